// Package special HTTP-обработчики /api/special-collection.
package special

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/waste-collection/internal/http/handlers"
	"github.com/magabrotheeeer/waste-collection/internal/lib/validate"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	specialservice "github.com/magabrotheeeer/waste-collection/internal/services/special"
)

// Service бизнес-логика специальных вывозов
type Service interface {
	CalculateFee(req models.FeeRequest) (decimal.Decimal, error)
	Schedule(ctx context.Context, actor models.User, req models.ScheduleRequest) (*models.SpecialCollection, error)
	List(ctx context.Context, actor models.User) ([]specialservice.Item, error)
	QRCode(ctx context.Context, actor models.User, id int64) ([]byte, error)
	Pay(ctx context.Context, actor models.User, id int64, token string) (*models.SpecialCollection, error)
	Cancel(ctx context.Context, actor models.User, id int64) (*models.SpecialCollection, error)
	Reschedule(ctx context.Context, actor models.User, id int64, req models.RescheduleRequest) (*models.SpecialCollection, error)
	Collect(ctx context.Context, actor models.User, code string) (*models.SpecialCollection, error)
}

// Handler обработчики /api/special-collection
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validate.New()}
}

// CalculateFee godoc
// @Summary Стоимость специального вывоза
// @Tags SpecialCollection
// @Accept json
// @Produce json
// @Param request body models.FeeRequest true "Категория и количество"
// @Success 200 {object} response.Response
// @Router /api/special-collection/calculate-fee [post]
func (h *Handler) CalculateFee(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.special.CalculateFee"
	log := handlers.Logger(h.log, r, op)

	var req models.FeeRequest
	if !handlers.Decode(w, r, log, h.validate, &req) {
		return
	}
	fee, err := h.service.CalculateFee(req)
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to calculate fee")
		return
	}
	handlers.OK(w, r, map[string]any{
		"category": req.Category,
		"quantity": req.Quantity,
		"fee":      fee,
	})
}

// Schedule оформляет вывоз.
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.special.Schedule"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	var req models.ScheduleRequest
	if !handlers.Decode(w, r, log, h.validate, &req) {
		return
	}
	c, err := h.service.Schedule(r.Context(), actor, req)
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to schedule collection")
		return
	}
	handlers.Created(w, r, c)
}

// My вывозы текущего пользователя с доступными действиями.
func (h *Handler) My(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.special.My"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	items, err := h.service.List(r.Context(), actor)
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to list collections")
		return
	}
	handlers.OK(w, r, items)
}

// QRCode PNG с QR-кодом вывоза.
func (h *Handler) QRCode(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.special.QRCode"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	id, ok := handlers.IDParam(w, r, log)
	if !ok {
		return
	}
	png, err := h.service.QRCode(r.Context(), actor, id)
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to render qr code")
		return
	}
	handlers.PNG(w, log, png)
}

// Pay оплачивает вывоз.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.special.Pay"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	id, ok := handlers.IDParam(w, r, log)
	if !ok {
		return
	}
	var req models.PaymentRequest
	if !handlers.Decode(w, r, log, h.validate, &req) {
		return
	}
	c, err := h.service.Pay(r.Context(), actor, id, req.PaymentToken)
	if err != nil {
		handlers.Fail(w, r, log, err, "payment failed")
		return
	}
	log.Info("collection paid", slog.Int64("id", id))
	handlers.OK(w, r, c)
}

// Cancel отменяет вывоз.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.special.Cancel"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	id, ok := handlers.IDParam(w, r, log)
	if !ok {
		return
	}
	c, err := h.service.Cancel(r.Context(), actor, id)
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to cancel collection")
		return
	}
	handlers.OK(w, r, c)
}

// Reschedule переносит вывоз.
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.special.Reschedule"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	id, ok := handlers.IDParam(w, r, log)
	if !ok {
		return
	}
	var req models.RescheduleRequest
	if !handlers.Decode(w, r, log, h.validate, &req) {
		return
	}
	c, err := h.service.Reschedule(r.Context(), actor, id, req)
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to reschedule collection")
		return
	}
	handlers.OK(w, r, c)
}

// ScanQR сборщик отмечает вывоз выполненным.
func (h *Handler) ScanQR(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.special.ScanQR"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	var req models.ScanRequest
	if !handlers.Decode(w, r, log, h.validate, &req) {
		return
	}
	c, err := h.service.Collect(r.Context(), actor, req.Code)
	if err != nil {
		handlers.Fail(w, r, log, err, "collection scan failed")
		return
	}
	log.Info("collection collected", slog.Int64("id", c.ID), slog.String("collector", actor.ID))
	handlers.OK(w, r, c)
}
