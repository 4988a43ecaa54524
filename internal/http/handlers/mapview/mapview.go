// Package mapview HTTP-обработчик карты сборщика.
package mapview

import (
	"context"
	"log/slog"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/waste-collection/internal/http/handlers"
	"github.com/magabrotheeeer/waste-collection/internal/http/response"
	"github.com/magabrotheeeer/waste-collection/internal/models"
)

// Service сборка карты
type Service interface {
	View(ctx context.Context, actor models.User, live, selected *models.Location) (*models.MapView, error)
}

// Handler обработчик /api/map/markers
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// Markers godoc
// @Summary Маркеры карты
// @Description Точки сбора, заявки и вывозы, отсортированные по заполненности, и область отображения.
// @Tags Map
// @Produce json
// @Param lat query number false "Широта сборщика"
// @Param lng query number false "Долгота сборщика"
// @Param selected query string false "Выбранная точка в формате lat,lng"
// @Success 200 {object} response.Response
// @Router /api/map/markers [get]
func (h *Handler) Markers(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.mapview.Markers"
	log := handlers.Logger(h.log, r, op)

	actor, ok := handlers.CurrentUser(w, r, log)
	if !ok {
		return
	}
	live, err := liveLocation(r)
	if err != nil {
		log.Warn("invalid live location", slog.String("query", r.URL.RawQuery))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid lat/lng"))
		return
	}
	selected, err := parsePoint(r.URL.Query().Get("selected"))
	if err != nil {
		log.Warn("invalid selected location", slog.String("query", r.URL.RawQuery))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid selected"))
		return
	}
	view, err := h.service.View(r.Context(), actor, live, selected)
	if err != nil {
		handlers.Fail(w, r, log, err, "failed to build map")
		return
	}
	log.Debug("map built", slog.Int("markers", len(view.Markers)))
	handlers.OK(w, r, view)
}

// liveLocation положение сборщика из query; оба параметра или ни одного.
func liveLocation(r *http.Request) (*models.Location, error) {
	q := r.URL.Query()
	rawLat, rawLng := q.Get("lat"), q.Get("lng")
	if rawLat == "" && rawLng == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return nil, err
	}
	lng, err := strconv.ParseFloat(rawLng, 64)
	if err != nil {
		return nil, err
	}
	return &models.Location{Lat: lat, Lng: lng}, nil
}

// parsePoint разбирает "lat,lng"; пустая строка означает отсутствие точки.
func parsePoint(raw string) (*models.Location, error) {
	if raw == "" {
		return nil, nil
	}
	rawLat, rawLng, ok := strings.Cut(raw, ",")
	if !ok {
		return nil, errors.New("expected lat,lng")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(rawLat), 64)
	if err != nil {
		return nil, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(rawLng), 64)
	if err != nil {
		return nil, err
	}
	return &models.Location{Lat: lat, Lng: lng}, nil
}
