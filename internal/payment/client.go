// Package payment клиент платёжного шлюза для оплаты специальных вывозов.
package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Client обращается к REST API шлюза с basic-авторизацией магазина
type Client struct {
	shopID     string
	secretKey  string
	apiURL     string
	currency   string
	httpClient *http.Client
}

// NewClient создаёт клиент шлюза
func NewClient(apiURL, shopID, secretKey, currency string) *Client {
	return &Client{
		shopID:     shopID,
		secretKey:  secretKey,
		apiURL:     apiURL,
		currency:   currency,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// StatusError неуспешный HTTP-ответ шлюза
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("payment gateway: unexpected status %d: %s", e.StatusCode, e.Body)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.shopID + ":" + c.secretKey))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotence-Key", uuid.NewString())
	return req, nil
}

// Charge списывает amount по токену платёжного метода. Повторное
// списание по тому же description не дедуплицируется на стороне клиента.
func (c *Client) Charge(ctx context.Context, token string, amount decimal.Decimal, description string, metadata map[string]string) (*Payment, error) {
	const op = "payment.Charge"
	req, err := c.newRequest(ctx, http.MethodPost, "/payments", CreatePaymentRequest{
		Amount:       Amount{Value: amount.StringFixed(2), Currency: c.currency},
		PaymentToken: token,
		Capture:      true,
		Description:  description,
		Metadata:     metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%s: %w", op, &StatusError{StatusCode: resp.StatusCode, Body: string(body)})
	}

	var p Payment
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.Status != StatusSucceeded {
		return nil, fmt.Errorf("%s: payment %s in status %s", op, p.ID, p.Status)
	}
	return &p, nil
}
