// Package response единый формат JSON-ответов HTTP-обработчиков и
// отображение ошибок сервисов в HTTP-статусы.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/waste-collection/internal/policy"
	"github.com/magabrotheeeer/waste-collection/internal/services"
	"github.com/magabrotheeeer/waste-collection/internal/storage"
)

// Response стандартная структура JSON-ответа.
// Status "OK" или "Error", Error текст ошибки, Data данные ответа.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse ответ с ошибкой
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// StatusOKWithData успешный Response с данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error Response с ошибкой и сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError собирает нарушения валидации в одно сообщение через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "alphanum":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers and letters", err.Field()))
		case "numeric":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		case "datetime":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must match format %s", err.Field(), err.Param()))
		case "min", "gte", "gt":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		case "max", "lte", "lt":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// StatusFor HTTP-статус и публичное сообщение для ошибки сервиса.
// Неизвестные ошибки становятся 500 без подробностей.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusConflict, "already exists"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, services.ErrDraftExpired):
		return http.StatusGone, services.ErrDraftExpired.Error()
	case errors.Is(err, services.ErrPaymentFailed):
		return http.StatusPaymentRequired, services.ErrPaymentFailed.Error()
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusUnprocessableEntity, message(err, services.ErrInvalidInput)
	}
	for _, policyErr := range []error{
		policy.ErrNotEditable,
		policy.ErrRescheduleWindow,
		policy.ErrCancelWindow,
		policy.ErrNotScheduled,
	} {
		if errors.Is(err, policyErr) {
			return http.StatusConflict, policyErr.Error()
		}
	}
	return http.StatusInternalServerError, "internal error"
}

// message отрезает от цепочки op-префиксы, оставляя текст начиная с sentinel.
func message(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()); i >= 0 {
		return msg[i:]
	}
	return sentinel.Error()
}
