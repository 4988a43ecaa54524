// Package special специальные вывозы: расчёт стоимости, оформление, оплата,
// перенос, отмена и отметка о вывозе сборщиком.
package special

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/waste-collection/internal/cache"
	"github.com/magabrotheeeer/waste-collection/internal/lib/qr"
	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
	"github.com/magabrotheeeer/waste-collection/internal/lib/slot"
	"github.com/magabrotheeeer/waste-collection/internal/metrics"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	"github.com/magabrotheeeer/waste-collection/internal/payment"
	"github.com/magabrotheeeer/waste-collection/internal/policy"
	"github.com/magabrotheeeer/waste-collection/internal/pricing"
	"github.com/magabrotheeeer/waste-collection/internal/rabbitmq"
	"github.com/magabrotheeeer/waste-collection/internal/services"
	"github.com/magabrotheeeer/waste-collection/internal/storage"
)

// Repository хранилище специальных вывозов
type Repository interface {
	CreateSpecial(ctx context.Context, c models.SpecialCollection) (int64, error)
	GetSpecial(ctx context.Context, id int64) (*models.SpecialCollection, error)
	GetSpecialByQR(ctx context.Context, code string) (*models.SpecialCollection, error)
	ListSpecials(ctx context.Context, userID string) ([]*models.SpecialCollection, error)
	UpdateSpecialStatus(ctx context.Context, id int64, status models.SpecialStatus) error
	RescheduleSpecial(ctx context.Context, id int64, at time.Time, slot string) error
	MarkSpecialPaid(ctx context.Context, id int64, paymentID string) error
}

// Gateway платёжный шлюз
type Gateway interface {
	Charge(ctx context.Context, token string, amount decimal.Decimal, description string, metadata map[string]string) (*payment.Payment, error)
}

// Item вывоз с доступными действиями
type Item struct {
	*models.SpecialCollection
	Actions policy.Actions `json:"actions"`
}

// Service сервис специальных вывозов
type Service struct {
	repo      Repository
	prices    *pricing.Pricing
	gateway   Gateway
	cache     services.Cache
	publisher services.Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	loc       *time.Location
	now       services.Clock
}

// New создаёт сервис; даты и слоты трактуются в зоне loc.
func New(repo Repository, prices *pricing.Pricing, gateway Gateway, cache services.Cache,
	publisher services.Publisher, m *metrics.Metrics, log *slog.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:      repo,
		prices:    prices,
		gateway:   gateway,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		log:       log,
		loc:       loc,
		now:       time.Now,
	}
}

// CalculateFee стоимость вывоза до оформления
func (s *Service) CalculateFee(req models.FeeRequest) (decimal.Decimal, error) {
	const op = "services.special.CalculateFee"
	fee, ok := s.prices.Fee(req.Category, req.Quantity)
	if !ok {
		return decimal.Zero, fmt.Errorf("%s: %w: unknown category %q", op, services.ErrInvalidInput, req.Category)
	}
	return fee, nil
}

// Schedule оформляет вывоз на будущую дату
func (s *Service) Schedule(ctx context.Context, actor models.User, req models.ScheduleRequest) (*models.SpecialCollection, error) {
	const op = "services.special.Schedule"
	fee, err := s.CalculateFee(models.FeeRequest{Category: req.Category, Quantity: req.Quantity})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	at, err := slot.Parse(req.Date, req.TimeSlot, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, services.ErrInvalidInput, err)
	}
	now := s.now()
	if !at.After(now) {
		return nil, fmt.Errorf("%s: %w: collection time is in the past", op, services.ErrInvalidInput)
	}

	c := models.SpecialCollection{
		UserID:        actor.ID,
		Category:      req.Category,
		Quantity:      req.Quantity,
		Fee:           fee,
		ScheduledAt:   at,
		TimeSlot:      req.TimeSlot,
		Status:        models.SpecialScheduled,
		PaymentStatus: models.PaymentUnpaid,
		QRCode:        uuid.NewString(),
		Address:       strings.TrimSpace(req.Address),
		Location:      req.Location,
		CreatedAt:     now,
	}
	id, err := s.repo.CreateSpecial(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.ID = id

	s.invalidate(ctx, op)
	s.log.Info("special collection scheduled", slog.Int64("id", id), slog.String("user_id", actor.ID),
		slog.Time("scheduled_at", at))
	return &c, nil
}

// List свои вывозы для жителя, все для сборщика и администратора
func (s *Service) List(ctx context.Context, actor models.User) ([]Item, error) {
	const op = "services.special.List"
	owner := actor.ID
	if actor.Role == models.RoleCollector || actor.Role == models.RoleAdmin {
		owner = ""
	}
	list, err := s.repo.ListSpecials(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()
	out := make([]Item, 0, len(list))
	for _, c := range list {
		out = append(out, Item{SpecialCollection: c, Actions: policy.CollectionActions(*c, now)})
	}
	return out, nil
}

func (s *Service) owned(ctx context.Context, op string, actor models.User, id int64) (*models.SpecialCollection, error) {
	c, err := s.repo.GetSpecial(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if c.UserID != actor.ID && actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	return c, nil
}

// QRCode PNG с QR-кодом вывоза. Доступен владельцу и сотрудникам.
func (s *Service) QRCode(ctx context.Context, actor models.User, id int64) ([]byte, error) {
	const op = "services.special.QRCode"
	c, err := s.repo.GetSpecial(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if c.UserID != actor.ID && actor.Role == models.RoleUser {
		return nil, fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	png, err := qr.PNG(c.QRCode, qr.DefaultSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return png, nil
}

// Pay списывает стоимость вывоза через шлюз
func (s *Service) Pay(ctx context.Context, actor models.User, id int64, token string) (*models.SpecialCollection, error) {
	const op = "services.special.Pay"
	c, err := s.owned(ctx, op, actor, id)
	if err != nil {
		return nil, err
	}
	if c.Status != models.SpecialScheduled {
		return nil, fmt.Errorf("%s: %w", op, policy.ErrNotScheduled)
	}
	if c.PaymentStatus == models.PaymentPaid {
		return nil, fmt.Errorf("%s: %w: already paid", op, services.ErrInvalidInput)
	}

	p, err := s.gateway.Charge(ctx, token, c.Fee, fmt.Sprintf("Special collection #%d", c.ID),
		map[string]string{"collection_id": strconv.FormatInt(c.ID, 10), "user_id": c.UserID})
	if err != nil {
		s.log.Warn("payment declined", sl.Op(op), sl.Err(err), slog.Int64("id", id))
		return nil, fmt.Errorf("%s: %w: %w", op, services.ErrPaymentFailed, err)
	}
	if err := s.repo.MarkSpecialPaid(ctx, id, p.ID); err != nil {
		s.log.Error("payment succeeded but not saved", sl.Op(op), sl.Err(err),
			slog.Int64("id", id), slog.String("payment_id", p.ID))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.PaymentStatus = models.PaymentPaid
	c.PaymentID = p.ID
	s.invalidate(ctx, op)
	return c, nil
}

// Cancel отменяет вывоз не позднее чем за 8 часов
func (s *Service) Cancel(ctx context.Context, actor models.User, id int64) (*models.SpecialCollection, error) {
	const op = "services.special.Cancel"
	c, err := s.owned(ctx, op, actor, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckCancel(*c, s.now()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.setStatus(ctx, op, actor, c, models.SpecialCancelled); err != nil {
		return nil, err
	}
	return c, nil
}

// Reschedule переносит вывоз не позднее чем за 24 часа до исходного времени
func (s *Service) Reschedule(ctx context.Context, actor models.User, id int64, req models.RescheduleRequest) (*models.SpecialCollection, error) {
	const op = "services.special.Reschedule"
	c, err := s.owned(ctx, op, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := policy.CheckReschedule(*c, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	at, err := slot.Parse(req.Date, req.TimeSlot, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, services.ErrInvalidInput, err)
	}
	if !at.After(now) {
		return nil, fmt.Errorf("%s: %w: collection time is in the past", op, services.ErrInvalidInput)
	}
	if err := s.repo.RescheduleSpecial(ctx, id, at, req.TimeSlot); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.ScheduledAt = at
	c.TimeSlot = req.TimeSlot
	s.invalidate(ctx, op)
	return c, nil
}

// Resolve ищет вывоз по QR-коду или числовому ID
func (s *Service) Resolve(ctx context.Context, code string) (*models.SpecialCollection, error) {
	const op = "services.special.Resolve"
	code = strings.TrimSpace(code)
	c, err := s.repo.GetSpecialByQR(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		if id, convErr := strconv.ParseInt(code, 10, 64); convErr == nil {
			c, err = s.repo.GetSpecial(ctx, id)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// Collect отмечает вывоз выполненным по отсканированному коду
func (s *Service) Collect(ctx context.Context, actor models.User, code string) (*models.SpecialCollection, error) {
	const op = "services.special.Collect"
	c, err := s.Resolve(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if c.Status != models.SpecialScheduled {
		return nil, fmt.Errorf("%s: %w", op, policy.ErrNotScheduled)
	}
	if err := s.setStatus(ctx, op, actor, c, models.SpecialCollected); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) setStatus(ctx context.Context, op string, actor models.User, c *models.SpecialCollection, status models.SpecialStatus) error {
	if err := s.repo.UpdateSpecialStatus(ctx, c.ID, status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.Status = status
	s.metrics.StatusChanged("special", string(status))
	s.invalidate(ctx, op)

	event := models.StatusEvent{
		Kind:      "special",
		ID:        c.ID,
		UserID:    c.UserID,
		Status:    string(status),
		ChangedBy: actor.ID,
		ChangedAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, rabbitmq.RoutingStatus, event); err != nil {
		s.log.Error("failed to publish status event", sl.Op(op), sl.Err(err), slog.Int64("id", c.ID))
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, op string) {
	if err := s.cache.InvalidatePrefix(ctx, cache.MarkersPrefix); err != nil {
		s.log.Warn("failed to drop cached markers", sl.Op(op), sl.Err(err))
	}
	if err := s.cache.Invalidate(ctx, cache.DashboardKeys()...); err != nil {
		s.log.Warn("failed to drop cached dashboards", sl.Op(op), sl.Err(err))
	}
}
