package markers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
	"github.com/magabrotheeeer/waste-collection/internal/models"
)

// Geocoder определяет координаты по адресу.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Location, error)
}

// Patcher сохраняет найденные координаты записи.
type Patcher interface {
	PatchLocation(ctx context.Context, kind models.MarkerType, pointID string, loc models.Location) error
}

// Enricher в фоне геокодирует записи без координат, чтобы они появились на
// карте при следующем обновлении. Работа привязана к контексту владельца:
// после его отмены незавершённые запросы прерываются и ничего не сохраняют.
type Enricher struct {
	ctx     context.Context
	geo     Geocoder
	patch   Patcher
	log     *slog.Logger
	timeout time.Duration

	// AfterPatch вызывается после сохранения координат записи. Задаётся до
	// первого Enrich.
	AfterPatch func(ctx context.Context)

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

// NewEnricher создаёт Enricher, живущий не дольше ctx.
func NewEnricher(ctx context.Context, geo Geocoder, patch Patcher, log *slog.Logger, timeout time.Duration) *Enricher {
	return &Enricher{
		ctx:      ctx,
		geo:      geo,
		patch:    patch,
		log:      log,
		timeout:  timeout,
		inflight: make(map[string]struct{}),
	}
}

// Enrich запускает геокодирование записей с адресом и без координат и сразу
// возвращается. Запись, по которой запрос уже идёт, повторно не ставится.
func (e *Enricher) Enrich(records []RawRecord) int {
	started := 0
	for _, r := range Unresolved(records) {
		if r.Address == "" {
			continue
		}
		key := string(r.Kind) + ":" + r.PointID
		e.mu.Lock()
		if _, busy := e.inflight[key]; busy {
			e.mu.Unlock()
			continue
		}
		e.inflight[key] = struct{}{}
		e.mu.Unlock()

		started++
		e.wg.Add(1)
		go e.run(key, r)
	}
	return started
}

func (e *Enricher) run(key string, r RawRecord) {
	const op = "markers.Enricher.run"
	defer e.wg.Done()
	defer func() {
		e.mu.Lock()
		delete(e.inflight, key)
		e.mu.Unlock()
	}()

	log := e.log.With(slog.String("op", op), slog.String("point", key))

	ctx, cancel := context.WithTimeout(e.ctx, e.timeout)
	defer cancel()

	loc, err := e.geo.Geocode(ctx, r.Address)
	if err != nil {
		log.Warn("geocoding failed", sl.Err(err))
		return
	}
	if err := e.patch.PatchLocation(ctx, r.Kind, r.PointID, loc); err != nil {
		log.Warn("failed to save geocoded location", sl.Err(err))
		return
	}
	if e.AfterPatch != nil {
		e.AfterPatch(ctx)
	}
	log.Debug("location enriched", slog.Float64("lat", loc.Lat), slog.Float64("lng", loc.Lng))
}

// Wait дожидается завершения запущенных запросов.
func (e *Enricher) Wait() {
	e.wg.Wait()
}
