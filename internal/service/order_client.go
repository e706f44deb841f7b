package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"shipment-orchestrator/internal/model"
)

var ErrOrderNotFound = errors.New("orden no encontrada")

// OrderClient lee órdenes del microservicio de órdenes, reenviando el token del usuario.
type OrderClient struct {
	ordersURL string
	client    *http.Client
}

func NewOrderClient(ordersURL string) *OrderClient {
	return &OrderClient{
		ordersURL: ordersURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (o *OrderClient) GetOrders(ctx context.Context, ids []string, token string) ([]*model.Order, error) {
	orders := make([]*model.Order, 0, len(ids))
	for _, id := range ids {
		ord, err := o.getOrder(ctx, id, token)
		if err != nil {
			return nil, err
		}
		orders = append(orders, ord)
	}
	return orders, nil
}

func (o *OrderClient) getOrder(ctx context.Context, id, token string) (*model.Order, error) {
	endpoint := fmt.Sprintf("%s/orders/%s", o.ordersURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("orders request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("orders service respondió %d para la orden %s", resp.StatusCode, id)
	}

	var ord model.Order
	if err := json.NewDecoder(resp.Body).Decode(&ord); err != nil {
		return nil, err
	}
	return &ord, nil
}
