package stats

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/waste-collection/internal/cache"
	"github.com/magabrotheeeer/waste-collection/internal/config"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	"github.com/magabrotheeeer/waste-collection/internal/services"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) ListSubmissions(ctx context.Context, userID string) ([]*models.WasteSubmission, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.WasteSubmission), args.Error(1)
}

func (m *RepoMock) ListSpecials(ctx context.Context, userID string) ([]*models.SpecialCollection, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.SpecialCollection), args.Error(1)
}

func (m *RepoMock) ListAccounts(ctx context.Context) ([]*models.WasteAccount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.WasteAccount), args.Error(1)
}

func (m *RepoMock) ListUsersByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]*models.User), args.Error(1)
}

var (
	day1 = time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	day2 = time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC)
)

func seed(repo *RepoMock) {
	repo.On("ListSubmissions", mock.Anything, "").Return([]*models.WasteSubmission{
		{ID: 1, Status: models.WastePending, WeightKg: 2.5, PaybackAmount: decimal.NewFromInt(30), CreatedAt: day1},
		{ID: 2, Status: models.WasteCompleted, WeightKg: 4, PaybackAmount: decimal.NewFromInt(60),
			PaymentStatus: models.PaymentPaid, CreatedAt: day2},
	}, nil)
	repo.On("ListSpecials", mock.Anything, "").Return([]*models.SpecialCollection{
		{ID: 1, Status: models.SpecialScheduled, Fee: decimal.NewFromInt(750), ScheduledAt: day2},
		{ID: 2, Status: models.SpecialCollected, Fee: decimal.NewFromInt(1200), PaymentStatus: models.PaymentPaid, ScheduledAt: day1},
	}, nil)
	repo.On("ListAccounts", mock.Anything).Return([]*models.WasteAccount{
		{AccountID: "a-1", Capacity: 85},
		{AccountID: "a-2", Capacity: 15},
	}, nil)
}

func newService(t *testing.T, repo Repository) (*Service, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	c, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	return New(repo, c, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func TestService_Collector(t *testing.T) {
	repo := new(RepoMock)
	seed(repo)
	svc, mr := newService(t, repo)
	actor := models.User{ID: "c-1", Role: models.RoleCollector}

	got, err := svc.Collector(context.Background(), actor, Range{})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Submissions.Stats.Total)
	assert.Equal(t, 1, got.Submissions.Stats.Completed)
	assert.Equal(t, 1, got.Submissions.Stats.Pending)
	assert.InDelta(t, 6.5, got.Submissions.Stats.TotalWeight, 1e-9)
	assert.True(t, got.Specials.Amounts.Unpaid.Equal(decimal.NewFromInt(750)))
	assert.Equal(t, 1, got.FullAccounts)
	assert.Equal(t, 2, got.TotalAccounts)
	assert.True(t, mr.Exists(cache.DashboardKey(models.RoleCollector)))

	cached, err := svc.Collector(context.Background(), actor, Range{})
	require.NoError(t, err)
	assert.Equal(t, got.FullAccounts, cached.FullAccounts)
	repo.AssertNumberOfCalls(t, "ListAccounts", 1)

	filtered, err := svc.Collector(context.Background(), actor, Range{From: day2})
	require.NoError(t, err)
	assert.Equal(t, 1, filtered.Submissions.Stats.Total)
	assert.Equal(t, map[string]int{"Scheduled": 1}, filtered.Specials.ByStatus)
	repo.AssertNumberOfCalls(t, "ListAccounts", 2)
}

func TestService_Admin(t *testing.T) {
	repo := new(RepoMock)
	seed(repo)
	repo.On("ListUsersByRole", mock.Anything, models.RoleUser).Return([]*models.User{{ID: "u-1"}, {ID: "u-2"}}, nil)
	repo.On("ListUsersByRole", mock.Anything, models.RoleCollector).Return([]*models.User{{ID: "c-1"}}, nil)
	repo.On("ListUsersByRole", mock.Anything, models.RoleAdmin).Return([]*models.User{{ID: "ad-1"}}, nil)
	svc, _ := newService(t, repo)

	got, err := svc.Admin(context.Background(), models.User{ID: "ad-1", Role: models.RoleAdmin}, Range{})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Users[models.RoleUser])
	assert.Equal(t, 1, got.Users[models.RoleCollector])
	assert.InDelta(t, 50.0, got.AverageCapacity, 1e-9)
	assert.Equal(t, 2, got.Specials.Stats.Total)
}

func TestService_Forbidden(t *testing.T) {
	svc, _ := newService(t, new(RepoMock))
	ctx := context.Background()

	_, err := svc.Admin(ctx, models.User{ID: "c-1", Role: models.RoleCollector}, Range{})
	assert.ErrorIs(t, err, services.ErrForbidden)
	_, err = svc.Collector(ctx, models.User{ID: "u-1", Role: models.RoleUser}, Range{})
	assert.ErrorIs(t, err, services.ErrForbidden)
}
