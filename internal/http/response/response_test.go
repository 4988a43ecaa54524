package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/waste-collection/internal/policy"
	"github.com/magabrotheeeer/waste-collection/internal/services"
	"github.com/magabrotheeeer/waste-collection/internal/storage"
)

func TestStatusFor(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("services.special.Cancel: %w", err) }

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"не найдено", wrap(storage.ErrNotFound), http.StatusNotFound, "not found"},
		{"дубликат", wrap(storage.ErrAlreadyExists), http.StatusConflict, "already exists"},
		{"нет прав", wrap(services.ErrForbidden), http.StatusForbidden, "forbidden"},
		{"окно отмены", wrap(policy.ErrCancelWindow), http.StatusConflict, policy.ErrCancelWindow.Error()},
		{"окно переноса", wrap(policy.ErrRescheduleWindow), http.StatusConflict, policy.ErrRescheduleWindow.Error()},
		{"нельзя редактировать", wrap(policy.ErrNotEditable), http.StatusConflict, policy.ErrNotEditable.Error()},
		{"платёж", wrap(fmt.Errorf("%w: card declined", services.ErrPaymentFailed)), http.StatusPaymentRequired, "payment failed"},
		{"некорректные данные", wrap(fmt.Errorf("%w: collection time is in the past", services.ErrInvalidInput)),
			http.StatusUnprocessableEntity, "invalid input: collection time is in the past"},
		{"прочее", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := StatusFor(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestValidationError(t *testing.T) {
	type request struct {
		Name     string `validate:"required"`
		Quantity int    `validate:"min=1"`
		Kind     string `validate:"oneof=a b"`
	}
	err := validator.New().Struct(request{Kind: "c"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "field Name is a required field, field Quantity must be at least 1, field Kind must be one of [a b]", resp.Error)
}
