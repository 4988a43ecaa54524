// Package dashboard HTTP-обработчики панелей администратора и сборщика.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/waste-collection/internal/http/handlers"
	"github.com/magabrotheeeer/waste-collection/internal/http/response"
	"github.com/magabrotheeeer/waste-collection/internal/lib/slot"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	"github.com/magabrotheeeer/waste-collection/internal/services/stats"
)

// Service панели
type Service interface {
	Admin(ctx context.Context, actor models.User, r stats.Range) (*stats.Admin, error)
	Collector(ctx context.Context, actor models.User, r stats.Range) (*stats.Collector, error)
}

// Handler обработчики /api/dashboard
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// Admin панель администратора. Необязательные from и to в формате 2006-01-02.
func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard.Admin"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	rng, ok := parseRange(w, r, log)
	if !ok {
		return
	}
	out, err := h.service.Admin(r.Context(), actor, rng)
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to build admin dashboard")
		return
	}
	handlers.OK(w, r, out)
}

// Collector панель сборщика.
func (h *Handler) Collector(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard.Collector"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	rng, ok := parseRange(w, r, log)
	if !ok {
		return
	}
	out, err := h.service.Collector(r.Context(), actor, rng)
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to build collector dashboard")
		return
	}
	handlers.OK(w, r, out)
}

// parseRange разбирает from/to; to включает весь указанный день.
func parseRange(w http.ResponseWriter, r *http.Request, log *slog.Logger) (stats.Range, bool) {
	var rng stats.Range
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &rng.From}, {"to", &rng.To}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(slot.DateLayout, raw)
		if err != nil {
			log.Warn("invalid date filter", slog.String(p.name, raw))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid "+p.name+" date, expected "+slot.DateLayout))
			return stats.Range{}, false
		}
		*p.dst = t
	}
	if !rng.To.IsZero() {
		rng.To = rng.To.Add(24*time.Hour - time.Nanosecond)
	}
	return rng, true
}
