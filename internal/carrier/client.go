package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"shipment-orchestrator/internal/model"
)

// Tamaño máximo de respuesta JSON del carrier (las etiquetas van por stream)
const maxResponseSize = 10 * 1024 * 1024

var ErrInvalidResponse = errors.New("carrier: respuesta inválida")

// APIError respuesta no 2xx del carrier.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("carrier: status %d: %s", e.StatusCode, e.Body)
}

// Client habla con la API de envíos del carrier usando una configuración.
// Se construye uno por invocación; el http.Client se comparte.
type Client struct {
	host           string
	apiKey         string
	organizationID string
	http           *http.Client
}

func NewClient(cfg *model.CarrierConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		host:           strings.TrimRight(cfg.Host, "/"),
		apiKey:         cfg.APIKey,
		organizationID: cfg.OrganizationID,
		http:           httpClient,
	}
}

// CreateShipment crea el envío remoto en la organización configurada.
func (c *Client) CreateShipment(ctx context.Context, req CreateShipmentRequest) (*Shipment, error) {
	var out Shipment
	path := fmt.Sprintf("/v1/organizations/%s/shipments", c.organizationID)
	if err := c.doJSON(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetShipment(ctx context.Context, id int64) (*Shipment, error) {
	var out Shipment
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/v1/shipments/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BuyOffer(ctx context.Context, shipmentID, offerID int64) (*Shipment, error) {
	var out Shipment
	body := buyRequest{OfferID: offerID}
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/v1/shipments/%d/buy", shipmentID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchLabel devuelve el stream de la etiqueta. El llamador debe cerrarlo.
func (c *Client) FetchLabel(ctx context.Context, shipmentID int64, format string) (io.ReadCloser, error) {
	path := fmt.Sprintf("/v1/shipments/%d/label?format=%s", shipmentID, format)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("carrier: leyendo respuesta: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// do ejecuta la petición; en respuestas no 2xx cierra el body y devuelve *APIError.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.host+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("carrier request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(msg)}
	}
	return resp, nil
}
