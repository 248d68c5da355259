package main

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles aceitos nos claims do token
const (
	RoleAdmin       = "ADMIN"
	RoleUser        = "USER"
	RolePremiumUser = "PREMIUM_USER"
)

var (
	ErrTokenInvalid = errors.New("invalid access token")
	ErrTokenExpired = errors.New("access token has expired")
)

// Claims representa os claims do token de acesso
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasAnyRole verifica se o portador do token possui algum dos roles exigidos
func (c *Claims) HasAnyRole(roles ...string) bool {
	for _, required := range roles {
		for _, role := range c.Roles {
			if role == required {
				return true
			}
		}
	}
	return false
}

// JWTManager valida e emite tokens de acesso HS256
type JWTManager struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
}

// NewJWTManager cria uma nova instância de JWTManager
func NewJWTManager(secret, issuer string, lifetime time.Duration) *JWTManager {
	return &JWTManager{
		secret:   []byte(secret),
		issuer:   issuer,
		lifetime: lifetime,
	}
}

// GenerateToken emite um token para o sujeito com os roles informados
func (m *JWTManager) GenerateToken(subject string, roles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken valida o token e retorna os claims.
// Tokens expirados e malformados são distinguidos para o corpo do 401.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
