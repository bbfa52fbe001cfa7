package promoservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client клиент для проверки промокодов
// Управление промокодами живёт в PromoService, здесь только проверка
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента PromoService
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// ValidatePromo проверяет промокод для услуги
func (c *Client) ValidatePromo(ctx context.Context, code string, serviceID int64) (*Promo, error) {
	url := fmt.Sprintf("%s/internal/promos/validate", c.baseURL)

	body, err := json.Marshal(ValidateRequest{Code: code, ServiceID: serviceID})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		var errResp ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		c.log.Info("Promo code %q rejected for service=%d: %s", code, serviceID, errResp.Message)
		return nil, fmt.Errorf("%w: %s", ErrPromoInvalid, errResp.Message)
	default:
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(raw))
	}

	var promo Promo
	if err := json.NewDecoder(resp.Body).Decode(&promo); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	switch promo.DiscountType {
	case "percent", "fixed":
	default:
		return nil, fmt.Errorf("%w: unknown discount type %q", ErrInvalidResponse, promo.DiscountType)
	}

	return &promo, nil
}
