package markers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/waste-collection/internal/models"
)

func intp(v int) *int { return &v }

func fp(v float64) *float64 { return &v }

func loc(lat, lng float64) *models.Location { return &models.Location{Lat: lat, Lng: lng} }

func TestExtractLocation(t *testing.T) {
	tests := []struct {
		name string
		rec  RawRecord
		want bool
	}{
		{name: "вложенный объект", rec: RawRecord{Location: loc(6.9, 79.8)}, want: true},
		{name: "поля верхнего уровня", rec: RawRecord{Lat: fp(6.9), Lng: fp(79.8)}, want: true},
		{name: "только широта", rec: RawRecord{Lat: fp(6.9)}, want: false},
		{name: "нулевая точка", rec: RawRecord{Location: loc(0, 0)}, want: false},
		{name: "вне диапазона", rec: RawRecord{Location: loc(120, 10)}, want: false},
		{name: "NaN", rec: RawRecord{Lat: fp(math.NaN()), Lng: fp(1)}, want: false},
		{name: "пустой объект, поля есть", rec: RawRecord{Location: loc(0, 0), Lat: fp(1), Lng: fp(2)}, want: true},
		{name: "ничего", rec: RawRecord{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ExtractLocation(tt.rec)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestAggregate_SortDropAndPriority(t *testing.T) {
	records := []RawRecord{
		{Kind: models.MarkerRecyclable, PointID: "r1", Location: loc(1, 1)},
		{Kind: models.MarkerWasteAccount, PointID: "a1", Capacity: intp(40), Location: loc(2, 2)},
		{Kind: models.MarkerSpecial, PointID: "s1"},
		{Kind: models.MarkerWasteAccount, PointID: "a2", Capacity: intp(90), Lat: fp(3), Lng: fp(3)},
		{Kind: models.MarkerWasteAccount, PointID: "a3", Capacity: intp(40), Location: loc(4, 4)},
		{Kind: models.MarkerSpecial, PointID: "s2", Location: loc(5, 5)},
	}

	got := Aggregate(records)
	require.Len(t, got, 5, "записи без координат отбрасываются")

	ids := make([]string, len(got))
	for i, m := range got {
		ids[i] = m.PointID
	}
	assert.Equal(t, []string{"a2", "a1", "a3", "r1", "s2"}, ids)

	assert.True(t, got[0].Priority)
	for _, m := range got[1:] {
		assert.False(t, m.Priority)
	}
	assert.Equal(t, models.MarkerWasteAccount, got[0].Type)
	assert.Nil(t, got[3].Capacity)
}

func TestAggregate_Idempotent(t *testing.T) {
	records := []RawRecord{
		{PointID: "x", Capacity: intp(10), Location: loc(1, 1)},
		{PointID: "y", Capacity: intp(10), Location: loc(1, 2)},
		{PointID: "z", Capacity: intp(50), Location: loc(1, 3)},
	}
	first := Aggregate(records)
	second := Aggregate(records)
	assert.Equal(t, first, second)

	// результат не делит память с входными данными
	*first[0].Capacity = 0
	assert.Equal(t, 50, *records[2].Capacity)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
	assert.Empty(t, Aggregate([]RawRecord{{PointID: "no-coords"}}))
}

func TestBounds(t *testing.T) {
	markers := []models.Marker{{Lat: 1, Lng: 10}, {Lat: 3, Lng: 12}}

	r := Bounds(markers, nil, nil)
	assert.False(t, r.Empty)
	assert.Equal(t, 1.0, r.South)
	assert.Equal(t, 3.0, r.North)
	assert.Equal(t, 10.0, r.West)
	assert.Equal(t, 12.0, r.East)
	assert.Equal(t, models.Location{Lat: 2, Lng: 11}, r.Center)

	r = Bounds(markers, loc(-1, 9), loc(5, 15))
	assert.Equal(t, -1.0, r.South)
	assert.Equal(t, 5.0, r.North)
	assert.Equal(t, 9.0, r.West)
	assert.Equal(t, 15.0, r.East)

	r = Bounds(nil, nil, nil)
	assert.True(t, r.Empty)
	assert.Equal(t, DefaultCenter, r.Center)

	r = Bounds(nil, loc(7, 80), nil)
	assert.False(t, r.Empty)
	assert.Equal(t, models.Location{Lat: 7, Lng: 80}, r.Center)
}

func TestFromAdapters(t *testing.T) {
	acc := FromAccount(models.WasteAccount{AccountID: "acc", Capacity: 85, Location: loc(1, 1)})
	assert.Equal(t, models.MarkerWasteAccount, acc.Kind)
	assert.Equal(t, "full", acc.Status)
	require.NotNil(t, acc.Capacity)
	assert.Equal(t, 85, *acc.Capacity)

	sub := FromSubmission(models.WasteSubmission{ID: 12, Status: models.WastePending})
	assert.Equal(t, "12", sub.PointID)
	assert.Equal(t, models.MarkerRecyclable, sub.Kind)
	assert.Nil(t, sub.Capacity)

	sp := FromSpecial(models.SpecialCollection{ID: 3, Status: models.SpecialScheduled})
	assert.Equal(t, models.MarkerSpecial, sp.Kind)
	assert.Equal(t, "Scheduled", sp.Status)
}

type fakeGeocoder struct {
	mu    sync.Mutex
	calls int
	fail  bool
	block chan struct{}
}

func (g *fakeGeocoder) Geocode(ctx context.Context, _ string) (models.Location, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
			return models.Location{}, ctx.Err()
		}
	}
	if g.fail {
		return models.Location{}, errors.New("quota exceeded")
	}
	return models.Location{Lat: 6.1, Lng: 80.1}, nil
}

type fakePatcher struct {
	mu      sync.Mutex
	patched map[string]models.Location
}

func (p *fakePatcher) PatchLocation(_ context.Context, kind models.MarkerType, id string, l models.Location) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.patched[string(kind)+":"+id] = l
	return nil
}

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnricher_PatchesUnresolved(t *testing.T) {
	geo := &fakeGeocoder{}
	patch := &fakePatcher{patched: map[string]models.Location{}}
	e := NewEnricher(context.Background(), geo, patch, noopLogger(), time.Second)
	var hooks atomic.Int32
	e.AfterPatch = func(context.Context) { hooks.Add(1) }

	started := e.Enrich([]RawRecord{
		{Kind: models.MarkerSpecial, PointID: "1", Address: "Main st. 1"},
		{Kind: models.MarkerSpecial, PointID: "2"},
		{Kind: models.MarkerRecyclable, PointID: "3", Address: "Lake rd. 5", Location: loc(1, 1)},
	})
	e.Wait()

	assert.Equal(t, 1, started)
	assert.Equal(t, map[string]models.Location{"special:1": {Lat: 6.1, Lng: 80.1}}, patch.patched)
	assert.Equal(t, int32(1), hooks.Load())
}

func TestEnricher_CancelledOwnerStopsWork(t *testing.T) {
	geo := &fakeGeocoder{block: make(chan struct{})}
	patch := &fakePatcher{patched: map[string]models.Location{}}
	ctx, cancel := context.WithCancel(context.Background())
	e := NewEnricher(ctx, geo, patch, noopLogger(), time.Minute)
	e.AfterPatch = func(context.Context) { t.Error("hook called for a cancelled request") }

	rec := RawRecord{Kind: models.MarkerSpecial, PointID: "9", Address: "Hill st."}
	assert.Equal(t, 1, e.Enrich([]RawRecord{rec}))
	assert.Equal(t, 0, e.Enrich([]RawRecord{rec}), "повторный запрос по той же записи не запускается")

	cancel()
	e.Wait()
	assert.Empty(t, patch.patched)
}
