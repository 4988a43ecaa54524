// Package mapview собирает маркеры карты сборщика из точек сбора, заявок на
// вторсырьё и специальных вывозов.
package mapview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/waste-collection/internal/cache"
	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
	"github.com/magabrotheeeer/waste-collection/internal/markers"
	"github.com/magabrotheeeer/waste-collection/internal/metrics"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	"github.com/magabrotheeeer/waste-collection/internal/services"
)

// CacheTTL время жизни собранных маркеров в кеше
const CacheTTL = time.Minute

// Repository источники записей карты
type Repository interface {
	ListAccounts(ctx context.Context) ([]*models.WasteAccount, error)
	ListSubmissions(ctx context.Context, userID string) ([]*models.WasteSubmission, error)
	ListSpecials(ctx context.Context, userID string) ([]*models.SpecialCollection, error)
}

// Enricher фоновое геокодирование записей без координат
type Enricher interface {
	Enrich(records []markers.RawRecord) int
}

// Service сервис карты
type Service struct {
	repo     Repository
	cache    services.Cache
	enricher Enricher
	log      *slog.Logger
}

// New создаёт сервис. enricher может быть nil, тогда записи без координат
// просто не попадают на карту.
func New(repo Repository, cache services.Cache, enricher Enricher, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, enricher: enricher, log: log}
}

// Records загружает все три вида записей параллельно.
func (s *Service) Records(ctx context.Context) ([]markers.RawRecord, error) {
	const op = "services.mapview.Records"
	var (
		accounts []*models.WasteAccount
		subs     []*models.WasteSubmission
		specials []*models.SpecialCollection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		accounts, err = s.repo.ListAccounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		subs, err = s.repo.ListSubmissions(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		specials, err = s.repo.ListSpecials(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	records := make([]markers.RawRecord, 0, len(accounts)+len(subs)+len(specials))
	for _, a := range accounts {
		records = append(records, markers.FromAccount(*a))
	}
	for _, sub := range subs {
		records = append(records, markers.FromSubmission(*sub))
	}
	for _, c := range specials {
		if c.Status != models.SpecialScheduled {
			continue
		}
		records = append(records, markers.FromSpecial(*c))
	}
	return records, nil
}

// View маркеры и область карты. live текущее положение сборщика, selected
// выбранная на карте точка; обе могут быть nil и только расширяют область.
func (s *Service) View(ctx context.Context, actor models.User, live, selected *models.Location) (*models.MapView, error) {
	const op = "services.mapview.View"
	if actor.Role != models.RoleCollector && actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}

	key := cache.MarkersKey(actor.ID)
	var list []models.Marker
	found, err := s.cache.Get(ctx, key, &list)
	if err != nil {
		s.log.Warn("failed to read cached markers", sl.Op(op), sl.Err(err))
	}
	if !found {
		records, err := s.Records(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		list = markers.Aggregate(records)
		if s.enricher != nil {
			if n := s.enricher.Enrich(records); n > 0 {
				s.log.Debug("geocoding started", slog.Int("records", n))
			}
		}
		if err := s.cache.Set(ctx, key, list, CacheTTL); err != nil {
			s.log.Warn("failed to cache markers", sl.Op(op), sl.Err(err))
		}
	}

	return &models.MapView{Markers: list, Region: markers.Bounds(list, live, selected)}, nil
}

// DropCachedMarkers возвращает хук для markers.Enricher.AfterPatch:
// собранные карты сбрасываются, чтобы геокодированная запись появилась при
// следующем обновлении.
func DropCachedMarkers(c services.Cache, log *slog.Logger) func(ctx context.Context) {
	const op = "services.mapview.DropCachedMarkers"
	return func(ctx context.Context) {
		if err := c.InvalidatePrefix(ctx, cache.MarkersPrefix); err != nil {
			log.Warn("failed to drop cached markers", sl.Op(op), sl.Err(err))
		}
	}
}

// MeteredGeocoder учитывает результаты геокодирования в метриках.
type MeteredGeocoder struct {
	Geocoder markers.Geocoder
	Metrics  *metrics.Metrics
}

// Geocode implements markers.Geocoder.
func (g MeteredGeocoder) Geocode(ctx context.Context, address string) (models.Location, error) {
	loc, err := g.Geocoder.Geocode(ctx, address)
	g.Metrics.Geocoded(err == nil)
	return loc, err
}
