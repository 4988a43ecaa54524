// Package accounts точки сбора пользователей: список, поиск по QR-коду,
// изображение QR-кода и изменение заполненности.
package accounts

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/magabrotheeeer/waste-collection/internal/cache"
	"github.com/magabrotheeeer/waste-collection/internal/lib/qr"
	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	"github.com/magabrotheeeer/waste-collection/internal/rabbitmq"
	"github.com/magabrotheeeer/waste-collection/internal/services"
)

// Repository хранилище точек сбора
type Repository interface {
	GetAccount(ctx context.Context, accountID string) (*models.WasteAccount, error)
	ListAccounts(ctx context.Context) ([]*models.WasteAccount, error)
	UpdateCapacity(ctx context.Context, accountID string, capacity int) error
}

// Service сервис точек сбора
type Service struct {
	repo      Repository
	cache     services.Cache
	publisher services.Publisher
	log       *slog.Logger
	rand      func(n int) int
	now       services.Clock
}

// New создаёт сервис
func New(repo Repository, cache services.Cache, publisher services.Publisher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		log:       log,
		rand:      rand.Intn,
		now:       time.Now,
	}
}

// List все точки сбора
func (s *Service) List(ctx context.Context) ([]*models.WasteAccount, error) {
	const op = "services.accounts.List"
	list, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// ResolveQR находит точку по идентификатору, напечатанному в QR-коде.
// Житель видит только свою точку.
func (s *Service) ResolveQR(ctx context.Context, actor models.User, accountID string) (*models.WasteAccount, error) {
	const op = "services.accounts.ResolveQR"
	a, err := s.repo.GetAccount(ctx, strings.TrimSpace(accountID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if actor.Role == models.RoleUser && a.UserID != actor.ID {
		return nil, fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	return a, nil
}

// QRCode PNG с идентификатором точки
func (s *Service) QRCode(ctx context.Context, actor models.User, accountID string) ([]byte, error) {
	const op = "services.accounts.QRCode"
	a, err := s.ResolveQR(ctx, actor, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	png, err := qr.PNG(a.AccountID, qr.DefaultSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return png, nil
}

// SetCapacity сохраняет заполненность точки и публикует capacity.updated.
func (s *Service) SetCapacity(ctx context.Context, a *models.WasteAccount, capacity int) error {
	const op = "services.accounts.SetCapacity"
	if capacity < 0 || capacity > 100 {
		return fmt.Errorf("%s: %w: capacity %d out of range", op, services.ErrInvalidInput, capacity)
	}
	if err := s.repo.UpdateCapacity(ctx, a.AccountID, capacity); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	a.Capacity = capacity
	a.UpdatedAt = s.now()

	event := models.CapacityEvent{AccountID: a.AccountID, UserID: a.UserID, Capacity: capacity}
	if err := s.publisher.Publish(ctx, rabbitmq.RoutingCapacity, event); err != nil {
		s.log.Error("failed to publish capacity event", sl.Op(op), sl.Err(err),
			slog.String("account_id", a.AccountID))
	}
	return nil
}

// RandomizeCapacity присваивает каждой точке случайную заполненность 0..100.
// Возвращает число обновлённых точек; ошибка одной точки не прерывает обход.
func (s *Service) RandomizeCapacity(ctx context.Context) (int, error) {
	const op = "services.accounts.RandomizeCapacity"
	list, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	updated := 0
	for _, a := range list {
		if err := ctx.Err(); err != nil {
			return updated, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.SetCapacity(ctx, a, s.rand(101)); err != nil {
			s.log.Warn("failed to update capacity", sl.Op(op), sl.Err(err), slog.String("account_id", a.AccountID))
			continue
		}
		updated++
	}
	if updated > 0 {
		if err := s.cache.InvalidatePrefix(ctx, cache.MarkersPrefix); err != nil {
			s.log.Warn("failed to drop cached markers", sl.Op(op), sl.Err(err))
		}
	}
	s.log.Info("capacities randomized", slog.Int("updated", updated), slog.Int("total", len(list)))
	return updated, nil
}

// Collect подтверждает вывоз с точки: заполненность сбрасывается в 0.
func (s *Service) Collect(ctx context.Context, actor models.User, accountID string, weightKg float64) (*models.CollectResult, error) {
	const op = "services.accounts.Collect"
	if actor.Role != models.RoleCollector && actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	if weightKg <= 0 {
		return nil, fmt.Errorf("%s: %w: weight must be positive", op, services.ErrInvalidInput)
	}
	a, err := s.repo.GetAccount(ctx, strings.TrimSpace(accountID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.SetCapacity(ctx, a, 0); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.InvalidatePrefix(ctx, cache.MarkersPrefix); err != nil {
		s.log.Warn("failed to drop cached markers", sl.Op(op), sl.Err(err))
	}
	if err := s.cache.Invalidate(ctx, cache.DashboardKeys()...); err != nil {
		s.log.Warn("failed to drop cached dashboards", sl.Op(op), sl.Err(err))
	}
	s.log.Info("waste account collected",
		slog.String("account_id", a.AccountID),
		slog.String("collector_id", actor.ID),
		slog.Float64("weight_kg", weightKg),
	)
	return &models.CollectResult{
		Account:     a,
		WeightKg:    weightKg,
		CollectedBy: actor.ID,
		CollectedAt: s.now(),
	}, nil
}
