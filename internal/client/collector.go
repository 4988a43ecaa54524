package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/magabrotheeeer/waste-collection/internal/lib/slot"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	"github.com/magabrotheeeer/waste-collection/internal/services/stats"
)

// Accounts все точки сбора.
func (c *Client) Accounts(ctx context.Context) ([]models.WasteAccount, error) {
	const op = "client.Accounts"
	var list []models.WasteAccount
	if err := c.do(ctx, http.MethodGet, "/api/auth/waste-accounts", nil, &list); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// ResolveAccount точка сбора по коду из QR.
func (c *Client) ResolveAccount(ctx context.Context, accountID string) (*models.WasteAccount, error) {
	const op = "client.ResolveAccount"
	var a models.WasteAccount
	if err := c.do(ctx, http.MethodGet, "/api/auth/waste-accounts/"+url.PathEscape(accountID), nil, &a); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &a, nil
}

// CollectAccount подтверждает вывоз с точки.
func (c *Client) CollectAccount(ctx context.Context, accountID string, weightKg float64) (*models.CollectResult, error) {
	const op = "client.CollectAccount"
	var res models.CollectResult
	path := "/api/auth/waste-accounts/" + url.PathEscape(accountID) + "/collect"
	if err := c.do(ctx, http.MethodPost, path, models.CollectRequest{WeightKg: weightKg}, &res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &res, nil
}

// AccountQR PNG QR-кода точки.
func (c *Client) AccountQR(ctx context.Context, accountID string) ([]byte, error) {
	const op = "client.AccountQR"
	png, err := c.raw(ctx, "/api/auth/waste-accounts/"+url.PathEscape(accountID)+"/qr")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return png, nil
}

// Submissions заявки на вторсырьё.
func (c *Client) Submissions(ctx context.Context) ([]models.WasteSubmission, error) {
	const op = "client.Submissions"
	var list []models.WasteSubmission
	if err := c.do(ctx, http.MethodGet, "/api/waste/wastes", nil, &list); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// ScanSubmission находит заявку по QR-коду или номеру.
func (c *Client) ScanSubmission(ctx context.Context, code string) (*models.WasteSubmission, error) {
	const op = "client.ScanSubmission"
	var sub models.WasteSubmission
	if err := c.do(ctx, http.MethodPost, "/api/waste/scan-qr", models.ScanRequest{Code: code}, &sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// SetSubmissionStatus меняет статус заявки.
func (c *Client) SetSubmissionStatus(ctx context.Context, id int64, status models.WasteStatus) (*models.WasteSubmission, error) {
	const op = "client.SetSubmissionStatus"
	var sub models.WasteSubmission
	path := "/api/waste/" + strconv.FormatInt(id, 10) + "/status"
	if err := c.do(ctx, http.MethodPut, path, models.StatusRequest{Status: status}, &sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// MySpecials специальные вывозы текущего пользователя.
func (c *Client) MySpecials(ctx context.Context) ([]models.SpecialCollection, error) {
	const op = "client.MySpecials"
	var list []models.SpecialCollection
	if err := c.do(ctx, http.MethodGet, "/api/special-collection/my", nil, &list); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// CollectSpecial отмечает специальный вывоз выполненным по QR-коду.
func (c *Client) CollectSpecial(ctx context.Context, code string) (*models.SpecialCollection, error) {
	const op = "client.CollectSpecial"
	var sc models.SpecialCollection
	if err := c.do(ctx, http.MethodPost, "/api/special-collection/scan-qr", models.ScanRequest{Code: code}, &sc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sc, nil
}

// Markers карта сборщика. live и selected могут быть nil.
func (c *Client) Markers(ctx context.Context, live, selected *models.Location) (*models.MapView, error) {
	const op = "client.Markers"
	path := "/api/map/markers"
	q := url.Values{}
	if live != nil {
		q.Set("lat", strconv.FormatFloat(live.Lat, 'f', -1, 64))
		q.Set("lng", strconv.FormatFloat(live.Lng, 'f', -1, 64))
	}
	if selected != nil {
		q.Set("selected", strconv.FormatFloat(selected.Lat, 'f', -1, 64)+","+
			strconv.FormatFloat(selected.Lng, 'f', -1, 64))
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var view models.MapView
	if err := c.do(ctx, http.MethodGet, path, nil, &view); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &view, nil
}

func dashboardPath(base string, from, to time.Time) string {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.Format(slot.DateLayout))
	}
	if !to.IsZero() {
		q.Set("to", to.Format(slot.DateLayout))
	}
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}

// CollectorStats панель сборщика. Нулевые from и to не ограничивают период.
func (c *Client) CollectorStats(ctx context.Context, from, to time.Time) (*stats.Collector, error) {
	const op = "client.CollectorStats"
	var out stats.Collector
	if err := c.do(ctx, http.MethodGet, dashboardPath("/api/dashboard/collector", from, to), nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}

// AdminStats панель администратора.
func (c *Client) AdminStats(ctx context.Context, from, to time.Time) (*stats.Admin, error) {
	const op = "client.AdminStats"
	var out stats.Admin
	if err := c.do(ctx, http.MethodGet, dashboardPath("/api/dashboard/admin", from, to), nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &out, nil
}
