package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/waste-collection/internal/cache"
	"github.com/magabrotheeeer/waste-collection/internal/metrics"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	"github.com/magabrotheeeer/waste-collection/internal/rabbitmq"
	"github.com/magabrotheeeer/waste-collection/internal/services"
)

// CapacityHandler обрабатывает capacity.updated: сбрасывает кеш маркеров и
// панелей, чтобы следующий запрос карты увидел новую заполненность.
func CapacityHandler(c services.Cache, m *metrics.Metrics, log *slog.Logger) rabbitmq.Handler {
	return func(ctx context.Context, body []byte) error {
		const op = "services.accounts.CapacityHandler"
		var event models.CapacityEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrMalformed, err)
		}
		if event.AccountID == "" {
			return fmt.Errorf("%s: %w: empty account id", op, rabbitmq.ErrMalformed)
		}
		if err := c.InvalidatePrefix(ctx, cache.MarkersPrefix); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := c.Invalidate(ctx, cache.DashboardKeys()...); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		m.CapacityEvent()
		log.Debug("capacity updated", slog.String("account_id", event.AccountID), slog.Int("capacity", event.Capacity))
		return nil
	}
}
