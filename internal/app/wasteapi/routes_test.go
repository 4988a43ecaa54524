package wasteapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/waste-collection/internal/config"
	"github.com/magabrotheeeer/waste-collection/internal/http/middlewarectx"
	"github.com/magabrotheeeer/waste-collection/internal/metrics"
	"github.com/magabrotheeeer/waste-collection/internal/models"
)

type authStub struct {
	users map[string]models.User
}

func (a authStub) RegisterStep1(context.Context, models.RegisterIdentityRequest) (string, error) {
	return "draft", nil
}

func (a authStub) RegisterStep2(context.Context, models.RegisterCredentialsRequest) (*models.User, error) {
	return nil, errors.New("not used")
}

func (a authStub) Login(context.Context, string, string) (string, *models.User, error) {
	return "", nil, errors.New("not used")
}

func (a authStub) Check(_ context.Context, userID string) (*models.User, error) {
	for _, u := range a.users {
		if u.ID == userID {
			return &u, nil
		}
	}
	return nil, errors.New("unknown user")
}

func (a authStub) UpdateProfile(context.Context, string, models.ProfileRequest) (*models.User, error) {
	return nil, errors.New("not used")
}

func (a authStub) ValidateToken(_ context.Context, token string) (*models.User, error) {
	u, ok := a.users[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &u, nil
}

func newRouter(t *testing.T) (chi.Router, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	r := chi.NewRouter()
	RegisterRoutes(r, slog.New(slog.NewTextHandler(io.Discard, nil)), Deps{
		Auth: authStub{users: map[string]models.User{
			"user-token":      {ID: "u-1", Username: "resident", Role: models.RoleUser},
			"collector-token": {ID: "c-1", Username: "collector", Role: models.RoleCollector},
		}},
		Sessions: middlewarectx.NewSessionStore(config.Session{
			SessionKey: "0123456789abcdef0123456789abcdef",
			CookieName: "waste_session",
		}),
		Metrics: m,
	})
	return r, m
}

func TestRegisterRoutes_Access(t *testing.T) {
	router, _ := newRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"карта без токена", http.MethodGet, "/api/map/markers", "", http.StatusUnauthorized},
		{"карта для жителя", http.MethodGet, "/api/map/markers", "user-token", http.StatusForbidden},
		{"панель администратора для сборщика", http.MethodGet, "/api/dashboard/admin", "collector-token", http.StatusForbidden},
		{"случайная заполненность для сборщика", http.MethodPost, "/api/auth/waste-accounts/randomize", "collector-token", http.StatusForbidden},
		{"сканирование жителем", http.MethodPost, "/api/special-collection/scan-qr", "user-token", http.StatusForbidden},
		{"чужой токен", http.MethodGet, "/api/auth/check", "forged", http.StatusUnauthorized},
		{"проверка сессии", http.MethodGet, "/api/auth/check", "user-token", http.StatusOK},
		{"метрики открыты", http.MethodGet, "/metrics", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestRegisterRoutes_MetricsUseRoutePattern(t *testing.T) {
	router, m := newRouter(t)

	for _, path := range []string{"/api/waste/11", "/api/waste/12"} {
		req := httptest.NewRequest(http.MethodDelete, path, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("/api/waste/{id}", http.MethodDelete, "401")))
}
