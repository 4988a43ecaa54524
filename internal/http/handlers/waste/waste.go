// Package waste HTTP-обработчики /api/waste.
package waste

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/waste-collection/internal/http/handlers"
	"github.com/magabrotheeeer/waste-collection/internal/lib/validate"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	wasteservice "github.com/magabrotheeeer/waste-collection/internal/services/waste"
)

// Service бизнес-логика заявок на вторсырьё
type Service interface {
	Create(ctx context.Context, actor models.User, req models.WasteRequest) (*models.WasteSubmission, error)
	List(ctx context.Context, actor models.User) ([]wasteservice.Item, error)
	Update(ctx context.Context, actor models.User, id int64, req models.WasteRequest) (*models.WasteSubmission, error)
	Delete(ctx context.Context, actor models.User, id int64) error
	UpdateStatus(ctx context.Context, actor models.User, id int64, status models.WasteStatus) (*models.WasteSubmission, error)
	Scan(ctx context.Context, actor models.User, code string) (*models.WasteSubmission, error)
}

// Handler обработчики /api/waste
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validate.New()}
}

// Create godoc
// @Summary Новая заявка на сдачу вторсырья
// @Tags Waste
// @Accept json
// @Produce json
// @Param request body models.WasteRequest true "Заявка"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /api/waste/wastes [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.waste.Create"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	var req models.WasteRequest
	if !handlers.Decode(w, r, log, h.validate, &req) {
		return
	}
	sub, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to create submission")
		return
	}
	log.Info("submission created", slog.Int64("id", sub.ID))
	handlers.Created(w, r, sub)
}

// List свои заявки жителя или все заявки для сотрудников.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.waste.List"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	items, err := h.service.List(r.Context(), actor)
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to list submissions")
		return
	}
	handlers.OK(w, r, items)
}

// Update редактирует заявку в статусе Pending.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.waste.Update"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	id, ok := handlers.IDParam(w, r, log)
	if !ok {
		return
	}
	var req models.WasteRequest
	if !handlers.Decode(w, r, log, h.validate, &req) {
		return
	}
	sub, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to update submission")
		return
	}
	handlers.OK(w, r, sub)
}

// Delete удаляет заявку.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.waste.Delete"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	id, ok := handlers.IDParam(w, r, log)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		handlers.Fail(w, r, log, err, "failed to delete submission")
		return
	}
	log.Info("submission deleted", slog.Int64("id", id))
	handlers.OK(w, r, map[string]any{"deleted": id})
}

// UpdateStatus смена статуса сборщиком.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.waste.UpdateStatus"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	id, ok := handlers.IDParam(w, r, log)
	if !ok {
		return
	}
	var req models.StatusRequest
	if !handlers.Decode(w, r, log, h.validate, &req) {
		return
	}
	sub, err := h.service.UpdateStatus(r.Context(), actor, id, req.Status)
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to update status")
		return
	}
	handlers.OK(w, r, sub)
}

// ScanQR подтверждение заявки по QR-коду или номеру.
func (h *Handler) ScanQR(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.waste.ScanQR"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	var req models.ScanRequest
	if !handlers.Decode(w, r, log, h.validate, &req) {
		return
	}
	sub, err := h.service.Scan(r.Context(), actor, req.Code)
	if err != nil {
		handlers.Fail(w, r, log, err, "scan failed")
		return
	}
	log.Info("submission scanned", slog.Int64("id", sub.ID), slog.String("collector", actor.ID))
	handlers.OK(w, r, sub)
}
