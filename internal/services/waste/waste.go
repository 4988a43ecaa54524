// Package waste заявки на сдачу вторсырья: оформление, редактирование,
// удаление и подтверждение сборщиком по QR-коду.
package waste

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/waste-collection/internal/cache"
	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
	"github.com/magabrotheeeer/waste-collection/internal/metrics"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	"github.com/magabrotheeeer/waste-collection/internal/policy"
	"github.com/magabrotheeeer/waste-collection/internal/pricing"
	"github.com/magabrotheeeer/waste-collection/internal/rabbitmq"
	"github.com/magabrotheeeer/waste-collection/internal/services"
	"github.com/magabrotheeeer/waste-collection/internal/storage"
)

// Repository хранилище заявок
type Repository interface {
	CreateSubmission(ctx context.Context, sub models.WasteSubmission) (int64, error)
	GetSubmission(ctx context.Context, id int64) (*models.WasteSubmission, error)
	GetSubmissionByQR(ctx context.Context, code string) (*models.WasteSubmission, error)
	ListSubmissions(ctx context.Context, userID string) ([]*models.WasteSubmission, error)
	UpdateSubmission(ctx context.Context, sub models.WasteSubmission) error
	UpdateSubmissionStatus(ctx context.Context, id int64, status models.WasteStatus, payment models.PaymentStatus) error
	DeleteSubmission(ctx context.Context, id int64) error
}

// Item заявка с доступными над ней действиями
type Item struct {
	*models.WasteSubmission
	Actions policy.Actions `json:"actions"`
}

// Service сервис заявок
type Service struct {
	repo      Repository
	prices    *pricing.Pricing
	cache     services.Cache
	publisher services.Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       services.Clock
}

// New создаёт сервис. metrics может быть nil.
func New(repo Repository, prices *pricing.Pricing, cache services.Cache, publisher services.Publisher,
	m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		prices:    prices,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

func normalizeItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

// Create оформляет заявку; выплата равна весу, умноженному на тариф категории.
func (s *Service) Create(ctx context.Context, actor models.User, req models.WasteRequest) (*models.WasteSubmission, error) {
	const op = "services.waste.Create"
	items := normalizeItems(req.Items)
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w: no items", op, services.ErrInvalidInput)
	}
	now := s.now()
	sub := models.WasteSubmission{
		UserID:        actor.ID,
		Category:      req.Category,
		Items:         items,
		WeightKg:      req.WeightKg,
		PaybackAmount: s.prices.Payback(req.Category, req.WeightKg),
		Method:        req.Method,
		Status:        models.WastePending,
		PaymentStatus: models.PaymentUnpaid,
		QRCode:        uuid.NewString(),
		Address:       req.Address,
		Location:      req.Location,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	id, err := s.repo.CreateSubmission(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.ID = id

	s.metrics.SubmissionCreated(string(sub.Category))
	s.invalidate(ctx, op)
	s.log.Info("submission created", slog.Int64("id", id), slog.String("user_id", actor.ID),
		slog.String("category", string(sub.Category)))
	return &sub, nil
}

// List возвращает свои заявки для жителя и все для сборщика и администратора.
func (s *Service) List(ctx context.Context, actor models.User) ([]Item, error) {
	const op = "services.waste.List"
	owner := actor.ID
	if actor.Role == models.RoleCollector || actor.Role == models.RoleAdmin {
		owner = ""
	}
	subs, err := s.repo.ListSubmissions(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]Item, 0, len(subs))
	for _, sub := range subs {
		out = append(out, Item{WasteSubmission: sub, Actions: policy.SubmissionActions(*sub)})
	}
	return out, nil
}

// owned загружает заявку и проверяет, что actor её владелец. Администратору
// чужая заявка доступна только при adminAllowed.
func (s *Service) owned(ctx context.Context, op string, actor models.User, id int64, adminAllowed bool) (*models.WasteSubmission, error) {
	sub, err := s.repo.GetSubmission(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub.UserID != actor.ID && !(adminAllowed && actor.Role == models.RoleAdmin) {
		return nil, fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	return sub, nil
}

// Update меняет заявку владельца, пока она в статусе Pending.
func (s *Service) Update(ctx context.Context, actor models.User, id int64, req models.WasteRequest) (*models.WasteSubmission, error) {
	const op = "services.waste.Update"
	sub, err := s.owned(ctx, op, actor, id, false)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckEdit(*sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	items := normalizeItems(req.Items)
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w: no items", op, services.ErrInvalidInput)
	}

	sub.Category = req.Category
	sub.Items = items
	sub.WeightKg = req.WeightKg
	sub.PaybackAmount = s.prices.Payback(req.Category, req.WeightKg)
	sub.Method = req.Method
	if req.Address != "" {
		sub.Address = req.Address
	}
	if req.Location != nil {
		sub.Location = req.Location
	}
	sub.UpdatedAt = s.now()

	if err := s.repo.UpdateSubmission(ctx, *sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, op)
	return sub, nil
}

// Delete удаляет заявку владельца; администратор может удалить любую.
func (s *Service) Delete(ctx context.Context, actor models.User, id int64) error {
	const op = "services.waste.Delete"
	if _, err := s.owned(ctx, op, actor, id, true); err != nil {
		return err
	}
	if err := s.repo.DeleteSubmission(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, op)
	return nil
}

// Resolve ищет заявку по QR-коду; допускается ввод числового ID вручную.
func (s *Service) Resolve(ctx context.Context, code string) (*models.WasteSubmission, error) {
	const op = "services.waste.Resolve"
	code = strings.TrimSpace(code)
	sub, err := s.repo.GetSubmissionByQR(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		if id, convErr := strconv.ParseInt(code, 10, 64); convErr == nil {
			sub, err = s.repo.GetSubmission(ctx, id)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// UpdateStatus меняет статус заявки сборщиком и публикует событие.
// Completed отмечает выплату как произведённую.
func (s *Service) UpdateStatus(ctx context.Context, actor models.User, id int64, status models.WasteStatus) (*models.WasteSubmission, error) {
	const op = "services.waste.UpdateStatus"
	sub, err := s.repo.GetSubmission(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub.Status == models.WasteCompleted || sub.Status == models.WasteFailed {
		return nil, fmt.Errorf("%s: %w: submission already %s", op, services.ErrInvalidInput, sub.Status)
	}
	payment := sub.PaymentStatus
	if status == models.WasteCompleted {
		payment = models.PaymentPaid
	}
	if err := s.repo.UpdateSubmissionStatus(ctx, id, status, payment); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.Status = status
	sub.PaymentStatus = payment
	sub.UpdatedAt = s.now()

	s.metrics.StatusChanged("waste", string(status))
	s.invalidate(ctx, op)
	event := models.StatusEvent{
		Kind:      "waste",
		ID:        id,
		UserID:    sub.UserID,
		Status:    string(status),
		ChangedBy: actor.ID,
		ChangedAt: sub.UpdatedAt,
	}
	if err := s.publisher.Publish(ctx, rabbitmq.RoutingStatus, event); err != nil {
		s.log.Error("failed to publish status event", sl.Op(op), sl.Err(err), slog.Int64("id", id))
	}
	return sub, nil
}

// Scan находит заявку по QR-коду и отмечает её обработанной.
func (s *Service) Scan(ctx context.Context, actor models.User, code string) (*models.WasteSubmission, error) {
	const op = "services.waste.Scan"
	sub, err := s.Resolve(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub.Status != models.WastePending {
		return sub, nil
	}
	return s.UpdateStatus(ctx, actor, sub.ID, models.WasteProcessed)
}

func (s *Service) invalidate(ctx context.Context, op string) {
	if err := s.cache.InvalidatePrefix(ctx, cache.MarkersPrefix); err != nil {
		s.log.Warn("failed to drop cached markers", sl.Op(op), sl.Err(err))
	}
	if err := s.cache.Invalidate(ctx, cache.DashboardKeys()...); err != nil {
		s.log.Warn("failed to drop cached dashboards", sl.Op(op), sl.Err(err))
	}
}
