package main

import (
	"context"
	"fmt"
	"log"

	"github.com/dtm-labs/client/dtmcli"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/trace"
)

// StockGateway abstrai as chamadas diretas ao products-service
type StockGateway interface {
	ValidateStock(ctx context.Context, items []OrderLineItem) error
}

// RestyStockGateway implementa StockGateway com um cliente HTTP resty
type RestyStockGateway struct {
	client  *resty.Client
	baseURL string
	token   string
}

// NewStockGateway cria uma nova instância de RestyStockGateway
func NewStockGateway(baseURL, token string) *RestyStockGateway {
	return &RestyStockGateway{
		client:  resty.New(),
		baseURL: baseURL,
		token:   token,
	}
}

// ValidateStock é a fase de checagem do fluxo em duas fases: uma leitura pura
// no products-service antes de o pedido ser criado
func (g *RestyStockGateway) ValidateStock(ctx context.Context, items []OrderLineItem) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+g.token).
		SetBody(items).
		Post(g.baseURL + "/api/products/validate-stock")
	if err != nil {
		return fmt.Errorf("failed to call validate-stock: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("stock validation rejected: %s", resp.String())
	}
	return nil
}

// SagaOrchestrator abstrai as operações SAGA do DTM
type SagaOrchestrator interface {
	SubmitCheckoutSaga(ctx context.Context, order *Order) (string, error)
}

// DTMSagaOrchestrator implementa SagaOrchestrator usando DTM
type DTMSagaOrchestrator struct {
	dtmServer   string
	ordersURL   string
	productsURL string
	token       string
}

// NewDTMSagaOrchestrator cria uma nova instância do orquestrador SAGA
func NewDTMSagaOrchestrator(dtmServer, ordersURL, productsURL, token string) *DTMSagaOrchestrator {
	return &DTMSagaOrchestrator{
		dtmServer:   dtmServer,
		ordersURL:   ordersURL,
		productsURL: productsURL,
		token:       token,
	}
}

// SubmitCheckoutSaga registra a SAGA de checkout: cria o pedido (a compensação
// marca rejeitado), deduz o estoque do lote inteiro com restore-stock como
// compensação, e completa o pedido no último branch
func (so *DTMSagaOrchestrator) SubmitCheckoutSaga(ctx context.Context, order *Order) (gid string, err error) {
	var traceID string
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		traceID = span.SpanContext().TraceID().String()
	}

	// MustGenGid entra em pânico quando o DTM está inacessível; a falha
	// precisa chegar ao chamador como erro para o pedido ser rejeitado
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to generate saga gid: %v", r)
		}
	}()
	gid = dtmcli.MustGenGid(so.dtmServer)

	log.Printf("🚀 Starting checkout SAGA | TraceID: %s | GID: %s | OrderID: %s", traceID, gid, order.ID)

	saga := dtmcli.NewSaga(so.dtmServer, gid).
		Add(
			so.ordersURL+"/api/orders/create",
			so.ordersURL+"/api/orders/compensate",
			&SagaOrderRequest{
				OrderID: order.ID,
				UserID:  order.UserID,
				Items:   order.Items,
			},
		).
		Add(
			so.productsURL+"/api/products/deduct-stock",
			so.productsURL+"/api/products/restore-stock",
			order.Items,
		).
		Add(
			so.ordersURL+"/api/orders/complete",
			"",
			&OrderActionRequest{OrderID: order.ID},
		)

	// Os endpoints de estoque exigem bearer token
	saga.BranchHeaders = map[string]string{
		"Authorization": "Bearer " + so.token,
	}

	if err := saga.Submit(); err != nil {
		log.Printf("❌ SAGA failed: %v", err)
		return gid, fmt.Errorf("failed to process order: %w", err)
	}

	log.Printf("✅ SAGA submitted successfully - GID: %s, OrderID: %s", gid, order.ID)
	return gid, nil
}
