package dashboard

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/waste-collection/internal/dashboard"
	"github.com/magabrotheeeer/waste-collection/internal/http/middlewarectx"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	"github.com/magabrotheeeer/waste-collection/internal/services"
	"github.com/magabrotheeeer/waste-collection/internal/services/stats"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Admin(ctx context.Context, actor models.User, r stats.Range) (*stats.Admin, error) {
	args := m.Called(ctx, actor, r)
	a, _ := args.Get(0).(*stats.Admin)
	return a, args.Error(1)
}

func (m *ServiceMock) Collector(ctx context.Context, actor models.User, r stats.Range) (*stats.Collector, error) {
	args := m.Called(ctx, actor, r)
	c, _ := args.Get(0).(*stats.Collector)
	return c, args.Error(1)
}

func request(url string, user models.User) *http.Request {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	return req.WithContext(middlewarectx.WithUser(req.Context(), user))
}

func TestHandler_Collector(t *testing.T) {
	collector := models.User{ID: "c-1", Role: models.RoleCollector}
	svc := new(ServiceMock)
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

	want := stats.Range{
		From: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2030, 1, 31, 23, 59, 59, 999999999, time.UTC),
	}
	svc.On("Collector", mock.Anything, collector, want).Return(&stats.Collector{
		Submissions:  dashboard.Summary{Stats: dashboard.Stats{Total: 4, Completed: 2, Pending: 1, TotalWeight: 12.5}},
		FullAccounts: 3,
	}, nil).Once()

	rec := httptest.NewRecorder()
	h.Collector(rec, request("/api/dashboard/collector?from=2030-01-01&to=2030-01-31", collector))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalWeight":12.5`)
	assert.Contains(t, rec.Body.String(), `"full_accounts":3`)

	rec = httptest.NewRecorder()
	h.Collector(rec, request("/api/dashboard/collector?from=01.01.2030", collector))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertExpectations(t)
}

func TestHandler_Admin_Forbidden(t *testing.T) {
	collector := models.User{ID: "c-1", Role: models.RoleCollector}
	svc := new(ServiceMock)
	svc.On("Admin", mock.Anything, collector, stats.Range{}).Return(nil, services.ErrForbidden).Once()
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

	rec := httptest.NewRecorder()
	h.Admin(rec, request("/api/dashboard/admin", collector))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	svc.AssertExpectations(t)
}
