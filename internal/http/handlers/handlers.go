// Package handlers общие шаги HTTP-обработчиков: разбор тела запроса,
// текущий пользователь, параметры пути и отображение ошибок сервисов.
package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/waste-collection/internal/http/middlewarectx"
	"github.com/magabrotheeeer/waste-collection/internal/http/response"
	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
	"github.com/magabrotheeeer/waste-collection/internal/models"
)

// Logger логгер запроса с op и request_id.
func Logger(log *slog.Logger, r *http.Request, op string) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Decode читает JSON в req и валидирует его. При ошибке ответ уже записан.
func Decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate, req any) bool {
	if err := render.DecodeJSON(r.Body, req); err != nil {
		if errors.Is(err, io.EOF) {
			log.Warn("empty request body")
		} else {
			log.Warn("failed to decode request body", sl.Err(err))
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return false
	}

	if err := validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request"))
			return false
		}
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(verrs))
		return false
	}
	return true
}

// CurrentUser пользователь из контекста; без него отвечает 401.
func CurrentUser(w http.ResponseWriter, r *http.Request, log *slog.Logger) (models.User, bool) {
	u, ok := middlewarectx.UserFrom(r.Context())
	if !ok {
		log.Warn("user not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return models.User{}, false
	}
	return u, true
}

// IDParam числовой {id} из пути.
func IDParam(w http.ResponseWriter, r *http.Request, log *slog.Logger) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		log.Warn("failed to decode id from url", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return 0, false
	}
	return id, true
}

// Fail отвечает статусом, соответствующим ошибке сервиса. Ошибки 5xx
// логируются как Error, остальные как Warn.
func Fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, msg string) {
	status, public := response.StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(msg, sl.Err(err))
	} else {
		log.Warn(msg, sl.Err(err), slog.Int("status", status))
	}
	render.Status(r, status)
	render.JSON(w, r, response.Error(public))
}

// OK отвечает 200 с данными.
func OK(w http.ResponseWriter, r *http.Request, data any) {
	render.JSON(w, r, response.StatusOKWithData(data))
}

// Created отвечает 201 с данными.
func Created(w http.ResponseWriter, r *http.Request, data any) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(data))
}

// PNG отдаёт изображение.
func PNG(w http.ResponseWriter, log *slog.Logger, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(png); err != nil {
		log.Warn("failed to write image", sl.Err(err))
	}
}
