// Package stats сводные панели администратора и сборщика.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/waste-collection/internal/cache"
	"github.com/magabrotheeeer/waste-collection/internal/dashboard"
	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	"github.com/magabrotheeeer/waste-collection/internal/services"
)

// CacheTTL время жизни панели без фильтра по датам
const CacheTTL = 30 * time.Second

// FullThreshold заполненность, начиная с которой точка требует вывоза
const FullThreshold = 80

// Repository источники данных панелей
type Repository interface {
	ListSubmissions(ctx context.Context, userID string) ([]*models.WasteSubmission, error)
	ListSpecials(ctx context.Context, userID string) ([]*models.SpecialCollection, error)
	ListAccounts(ctx context.Context) ([]*models.WasteAccount, error)
	ListUsersByRole(ctx context.Context, role models.Role) ([]*models.User, error)
}

// Range фильтр по датам, нулевые границы не ограничивают
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) empty() bool { return r.From.IsZero() && r.To.IsZero() }

// Collector панель сборщика
type Collector struct {
	Submissions   dashboard.Summary `json:"submissions"`
	Specials      dashboard.Summary `json:"specials"`
	FullAccounts  int               `json:"full_accounts"`
	TotalAccounts int               `json:"total_accounts"`
}

// Admin панель администратора
type Admin struct {
	Collector
	Users           map[models.Role]int `json:"users"`
	AverageCapacity float64             `json:"average_capacity"`
}

// Service сервис панелей
type Service struct {
	repo  Repository
	cache services.Cache
	log   *slog.Logger
}

// New создаёт сервис
func New(repo Repository, cache services.Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

type snapshot struct {
	subs     []models.WasteSubmission
	specials []models.SpecialCollection
	accounts []*models.WasteAccount
}

func (s *Service) load(ctx context.Context) (*snapshot, error) {
	var (
		subs     []*models.WasteSubmission
		specials []*models.SpecialCollection
		snap     snapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		subs, err = s.repo.ListSubmissions(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		specials, err = s.repo.ListSpecials(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		snap.accounts, err = s.repo.ListAccounts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	snap.subs = make([]models.WasteSubmission, 0, len(subs))
	for _, sub := range subs {
		snap.subs = append(snap.subs, *sub)
	}
	snap.specials = make([]models.SpecialCollection, 0, len(specials))
	for _, c := range specials {
		snap.specials = append(snap.specials, *c)
	}
	return &snap, nil
}

func collectorOf(snap *snapshot, r Range) Collector {
	c := Collector{
		Submissions:   dashboard.Summarize(dashboard.FromSubmissions(snap.subs), r.From, r.To),
		Specials:      dashboard.Summarize(dashboard.FromSpecials(snap.specials), r.From, r.To),
		TotalAccounts: len(snap.accounts),
	}
	for _, a := range snap.accounts {
		if a.Capacity >= FullThreshold {
			c.FullAccounts++
		}
	}
	return c
}

// Collector панель сборщика
func (s *Service) Collector(ctx context.Context, actor models.User, r Range) (*Collector, error) {
	const op = "services.stats.Collector"
	if actor.Role != models.RoleCollector && actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	key := cache.DashboardKey(models.RoleCollector)
	var out Collector
	if r.empty() && s.cached(ctx, op, key, &out) {
		return &out, nil
	}
	snap, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out = collectorOf(snap, r)
	if r.empty() {
		s.store(ctx, op, key, out)
	}
	return &out, nil
}

// Admin панель администратора
func (s *Service) Admin(ctx context.Context, actor models.User, r Range) (*Admin, error) {
	const op = "services.stats.Admin"
	if actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	key := cache.DashboardKey(models.RoleAdmin)
	var out Admin
	if r.empty() && s.cached(ctx, op, key, &out) {
		return &out, nil
	}
	snap, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out = Admin{Collector: collectorOf(snap, r), Users: make(map[models.Role]int, 3)}
	for _, role := range []models.Role{models.RoleUser, models.RoleCollector, models.RoleAdmin} {
		users, err := s.repo.ListUsersByRole(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out.Users[role] = len(users)
	}
	if n := len(snap.accounts); n > 0 {
		total := 0
		for _, a := range snap.accounts {
			total += a.Capacity
		}
		out.AverageCapacity = float64(total) / float64(n)
	}
	if r.empty() {
		s.store(ctx, op, key, out)
	}
	return &out, nil
}

func (s *Service) cached(ctx context.Context, op, key string, out any) bool {
	found, err := s.cache.Get(ctx, key, out)
	if err != nil {
		s.log.Warn("failed to read cached dashboard", sl.Op(op), sl.Err(err))
		return false
	}
	return found
}

func (s *Service) store(ctx context.Context, op, key string, v any) {
	if err := s.cache.Set(ctx, key, v, CacheTTL); err != nil {
		s.log.Warn("failed to cache dashboard", sl.Op(op), sl.Err(err))
	}
}
