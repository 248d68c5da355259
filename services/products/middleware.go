package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const claimsContextKey = "claims"

// unauthorized escreve o corpo estruturado de 401 e aborta a requisição
func unauthorized(c *gin.Context, message string) {
	log.Printf("⚠️ Unauthorized request: %s %s", c.Request.Method, c.Request.URL.Path)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"status":  http.StatusUnauthorized,
		"error":   "Unauthorized",
		"message": message,
	})
}

// RequireAuth valida o bearer token e grava os claims no contexto da requisição
func RequireAuth(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authentication token missing")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c, "Invalid access token")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := jwtManager.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				unauthorized(c, "Access token has expired")
				return
			}
			unauthorized(c, "Invalid access token")
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// RequireRoles garante que o portador do token possui algum dos roles exigidos.
// Deve ser registrado depois de RequireAuth.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(claimsContextKey)
		if !exists {
			unauthorized(c, "Authentication token missing")
			return
		}

		claims := value.(*Claims)
		if !claims.HasAnyRole(roles...) {
			log.Printf("⚠️ Forbidden request: subject=%s %s %s", claims.Subject, c.Request.Method, c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"detail":      fmt.Sprintf("access requires one of roles %v", roles),
				"description": "You are not authorized to access this resource",
				"instance":    c.Request.URL.Path,
			})
			return
		}

		c.Next()
	}
}
