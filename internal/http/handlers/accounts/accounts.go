// Package accounts HTTP-обработчики /api/auth/waste-accounts.
package accounts

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/waste-collection/internal/http/handlers"
	"github.com/magabrotheeeer/waste-collection/internal/lib/validate"
	"github.com/magabrotheeeer/waste-collection/internal/models"
)

// Service бизнес-логика точек сбора
type Service interface {
	List(ctx context.Context) ([]*models.WasteAccount, error)
	ResolveQR(ctx context.Context, actor models.User, accountID string) (*models.WasteAccount, error)
	QRCode(ctx context.Context, actor models.User, accountID string) ([]byte, error)
	RandomizeCapacity(ctx context.Context) (int, error)
	Collect(ctx context.Context, actor models.User, accountID string, weightKg float64) (*models.CollectResult, error)
}

// Handler обработчики точек сбора
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validate.New()}
}

// List все точки сбора.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.accounts.List"
	log := handlers.Logger(h.log, r, op)

	list, err := h.service.List(r.Context())
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to list waste accounts")
		return
	}
	handlers.OK(w, r, list)
}

// Get точка по идентификатору из QR-кода.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.accounts.Get"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	a, err := h.service.ResolveQR(r.Context(), actor, chi.URLParam(r, "accountID"))
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to resolve waste account")
		return
	}
	handlers.OK(w, r, a)
}

// QRCode PNG с идентификатором точки.
func (h *Handler) QRCode(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.accounts.QRCode"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	png, err := h.service.QRCode(r.Context(), actor, chi.URLParam(r, "accountID"))
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to render qr code")
		return
	}
	handlers.PNG(w, log, png)
}

// Randomize ручной запуск симуляции заполненности.
func (h *Handler) Randomize(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.accounts.Randomize"
	log := handlers.Logger(h.log, r, op)

	n, err := h.service.RandomizeCapacity(r.Context())
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to randomize capacity")
		return
	}
	handlers.OK(w, r, map[string]any{"updated": n})
}

// Collect подтверждение вывоза сборщиком.
func (h *Handler) Collect(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.accounts.Collect"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	var req models.CollectRequest
	if !handlers.Decode(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.service.Collect(r.Context(), actor, chi.URLParam(r, "accountID"), req.WeightKg)
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to confirm collection")
		return
	}
	log.Info("collection confirmed", slog.String("account_id", res.Account.AccountID))
	handlers.OK(w, r, res)
}
