package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/waste-collection/internal/http/response"
	"github.com/magabrotheeeer/waste-collection/internal/models"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "waste_session", Value: "cookie-token", Path: "/"})
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"token": "jwt-1",
			"user":  models.User{ID: "c-1", Username: "collector", Role: models.RoleCollector},
		}))
	})
	mux.HandleFunc("/api/auth/check", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("waste_session")
		if r.Header.Get("Authorization") != "Bearer jwt-1" || err != nil || cookie.Value != "cookie-token" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("missing or invalid authorization header"))
			return
		}
		render.JSON(w, r, response.StatusOKWithData(models.User{ID: "c-1", Role: models.RoleCollector}))
	})
	mux.HandleFunc("/api/auth/waste-accounts/missing", func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("not found"))
	})
	mux.HandleFunc("/api/auth/waste-accounts/a-1/qr", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG"))
	})
	mux.HandleFunc("/api/map/markers", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "6.9", r.URL.Query().Get("lat"))
		assert.Equal(t, "79.85", r.URL.Query().Get("lng"))
		assert.Equal(t, "6.91,79.84", r.URL.Query().Get("selected"))
		capacity := 90
		render.JSON(w, r, response.StatusOKWithData(models.MapView{
			Markers: []models.Marker{{PointID: "a-1", Type: models.MarkerWasteAccount, Capacity: &capacity, Priority: true}},
		}))
	})
	mux.HandleFunc("/api/dashboard/collector", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2030-01-01", r.URL.Query().Get("from"))
		assert.Empty(t, r.URL.Query().Get("to"))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{"full_accounts": 2, "total_accounts": 5}))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(srv.URL+"/", 5*time.Second)
	require.NoError(t, err)
	return c
}

func TestClient_LoginThenCheck(t *testing.T) {
	c := newClient(t, newServer(t))
	ctx := context.Background()

	u, err := c.Check(ctx)
	require.NoError(t, err)
	assert.Nil(t, u, "без входа сессии нет")

	u, err = c.Login(ctx, "collector", "secret123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleCollector, u.Role)

	u, err = c.Check(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "c-1", u.ID)
}

func TestClient_Errors(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)

	tests := []struct {
		name    string
		call    func() error
		status  int
		message string
	}{
		{
			name: "ошибка в конверте",
			call: func() error {
				_, err := c.ResolveAccount(context.Background(), "missing")
				return err
			},
			status:  http.StatusNotFound,
			message: "not found",
		},
		{
			name: "ответ не JSON",
			call: func() error {
				return c.do(context.Background(), http.MethodGet, "/broken", nil, nil)
			},
			status:  http.StatusBadGateway,
			message: "upstream down",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.True(t, IsStatus(err, tt.status))
		})
	}
}

func TestClient_MarkersAndStats(t *testing.T) {
	c := newClient(t, newServer(t))
	ctx := context.Background()

	view, err := c.Markers(ctx, &models.Location{Lat: 6.9, Lng: 79.85}, &models.Location{Lat: 6.91, Lng: 79.84})
	require.NoError(t, err)
	require.Len(t, view.Markers, 1)
	assert.True(t, view.Markers[0].Priority)
	assert.Equal(t, 90, *view.Markers[0].Capacity)

	st, err := c.CollectorStats(ctx, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, st.FullAccounts)
	assert.Equal(t, 5, st.TotalAccounts)

	png, err := c.AccountQR(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png)
}

func TestClient_CancelledContext(t *testing.T) {
	c := newClient(t, newServer(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Accounts(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("not a url", time.Second)
	assert.Error(t, err)
}
