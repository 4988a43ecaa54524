// Package geocoder клиент сервиса геокодирования адресов в координаты.
package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/magabrotheeeer/waste-collection/internal/models"
)

// ErrNoResults адрес не найден
var ErrNoResults = errors.New("geocoder: no results")

// Client ходит в API формата Nominatim: GET /search?q=...&format=json
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт клиент
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode возвращает координаты первого найденного совпадения
func (c *Client) Geocode(ctx context.Context, address string) (models.Location, error) {
	const op = "geocoder.Geocode"
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return models.Location{}, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "waste-collection/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Location{}, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Location{}, fmt.Errorf("%s: unexpected status %s", op, resp.Status)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return models.Location{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(places) == 0 {
		return models.Location{}, fmt.Errorf("%s: %w", op, ErrNoResults)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("%s: lat: %w", op, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("%s: lon: %w", op, err)
	}
	return models.Location{Lat: lat, Lng: lng}, nil
}
