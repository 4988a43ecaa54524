package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/waste-collection/internal/http/middlewarectx"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	"github.com/magabrotheeeer/waste-collection/internal/services"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) RegisterStep1(ctx context.Context, req models.RegisterIdentityRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *ServiceMock) RegisterStep2(ctx context.Context, req models.RegisterCredentialsRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *ServiceMock) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	args := m.Called(ctx, username, password)
	u, _ := args.Get(1).(*models.User)
	return args.String(0), u, args.Error(2)
}

func (m *ServiceMock) Check(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *ServiceMock) UpdateProfile(ctx context.Context, userID string, req models.ProfileRequest) (*models.User, error) {
	args := m.Called(ctx, userID, req)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

type SessionsMock struct {
	mock.Mock
}

func (m *SessionsMock) Save(_ http.ResponseWriter, _ *http.Request, token string) error {
	return m.Called(token).Error(0)
}

func (m *SessionsMock) Clear(http.ResponseWriter, *http.Request) error {
	return m.Called().Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRequest(t *testing.T, method, url string, body any, user *models.User) *http.Request {
	var raw []byte
	switch b := body.(type) {
	case nil:
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, url, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "req-id")
	if user != nil {
		ctx = middlewarectx.WithUser(ctx, *user)
	}
	return req.WithContext(ctx)
}

func TestHandler_Login(t *testing.T) {
	user := &models.User{ID: "u-1", Username: "kamal", Role: models.RoleUser}

	tests := []struct {
		name           string
		body           any
		setup          func(*ServiceMock, *SessionsMock)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешный вход",
			body: models.LoginRequest{Username: "kamal", Password: "secret123"},
			setup: func(s *ServiceMock, sess *SessionsMock) {
				s.On("Login", mock.Anything, "kamal", "secret123").Return("jwt-token", user, nil).Once()
				sess.On("Save", "jwt-token").Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"token":"jwt-token"`,
		},
		{
			name:           "некорректный JSON",
			body:           "not a json",
			setup:          func(*ServiceMock, *SessionsMock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"failed to decode request"}`,
		},
		{
			name:           "ошибка валидации",
			body:           models.LoginRequest{},
			setup:          func(*ServiceMock, *SessionsMock) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"field Username is a required field, field Password is a required field"}`,
		},
		{
			name: "неверный пароль",
			body: models.LoginRequest{Username: "kamal", Password: "wrong"},
			setup: func(s *ServiceMock, _ *SessionsMock) {
				s.On("Login", mock.Anything, "kamal", "wrong").
					Return("", nil, fmt.Errorf("services.auth.Login: %w", services.ErrInvalidCredentials)).Once()
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"invalid credentials"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, sess := new(ServiceMock), new(SessionsMock)
			tt.setup(svc, sess)
			h := New(newNoopLogger(), svc, sess)

			rec := httptest.NewRecorder()
			h.Login(rec, newRequest(t, http.MethodPost, "/api/auth/login", tt.body, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
			sess.AssertExpectations(t)
		})
	}
}

func TestHandler_Register(t *testing.T) {
	svc, sess := new(ServiceMock), new(SessionsMock)
	h := New(newNoopLogger(), svc, sess)

	identity := models.RegisterIdentityRequest{Name: "Nimal Perera", Email: "nimal@example.com", Address: "12 Galle Rd"}
	svc.On("RegisterStep1", mock.Anything, identity).Return("1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed", nil).Once()

	rec := httptest.NewRecorder()
	h.RegisterStep1(rec, newRequest(t, http.MethodPost, "/api/auth/register/step1", identity, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"draft_id":"1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"`)

	creds := models.RegisterCredentialsRequest{DraftID: "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed", Username: "nimal", Password: "longpassword"}
	svc.On("RegisterStep2", mock.Anything, creds).Return(&models.User{ID: "u-2", Username: "nimal", Role: models.RoleUser}, nil).Once()

	rec = httptest.NewRecorder()
	h.RegisterStep2(rec, newRequest(t, http.MethodPost, "/api/auth/register/step2", creds, nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "longpassword")

	expired := creds
	expired.DraftID = "2b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"
	svc.On("RegisterStep2", mock.Anything, expired).Return(nil, services.ErrDraftExpired).Once()
	rec = httptest.NewRecorder()
	h.RegisterStep2(rec, newRequest(t, http.MethodPost, "/api/auth/register/step2", expired, nil))
	assert.Equal(t, http.StatusGone, rec.Code)

	svc.AssertExpectations(t)
}

func TestHandler_CheckAndProfile(t *testing.T) {
	svc, sess := new(ServiceMock), new(SessionsMock)
	h := New(newNoopLogger(), svc, sess)
	actor := &models.User{ID: "u-1", Role: models.RoleUser}

	rec := httptest.NewRecorder()
	h.Check(rec, newRequest(t, http.MethodGet, "/api/auth/check", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	svc.On("Check", mock.Anything, "u-1").Return(&models.User{ID: "u-1", Name: "Kamal"}, nil).Once()
	rec = httptest.NewRecorder()
	h.Check(rec, newRequest(t, http.MethodGet, "/api/auth/check", nil, actor))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Kamal"`)

	profile := models.ProfileRequest{Name: "Kamal S", Phone: "0771234567"}
	svc.On("UpdateProfile", mock.Anything, "u-1", profile).Return(&models.User{ID: "u-1", Name: "Kamal S"}, nil).Once()
	rec = httptest.NewRecorder()
	h.UpdateProfile(rec, newRequest(t, http.MethodPut, "/api/auth/profile", profile, actor))
	assert.Equal(t, http.StatusOK, rec.Code)

	sess.On("Clear").Return(nil).Once()
	rec = httptest.NewRecorder()
	h.Logout(rec, newRequest(t, http.MethodPost, "/api/auth/logout", nil, actor))
	assert.Equal(t, http.StatusOK, rec.Code)

	svc.AssertExpectations(t)
	sess.AssertExpectations(t)
}
