package dashboard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/waste-collection/internal/models"
)

func TestCalculateStats(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		want  Stats
	}{
		{
			name:  "пустой список",
			items: nil,
			want:  Stats{},
		},
		{
			name:  "collected и pending",
			items: []Item{{Status: "collected", WeightKg: 10}, {Status: "pending", WeightKg: 20}},
			want:  Stats{Total: 2, Completed: 1, Pending: 1, TotalWeight: 30},
		},
		{
			name:  "записи без статуса учитываются только в total",
			items: []Item{{Status: ""}, {Status: "  "}, {Status: "Completed", WeightKg: 1.5}},
			want:  Stats{Total: 3, Completed: 1, TotalWeight: 1.5},
		},
		{
			name:  "статусы моделей",
			items: []Item{{Status: "Scheduled"}, {Status: "Processed"}, {Status: "Cancelled"}, {Status: "Failed"}},
			want:  Stats{Total: 4, Completed: 1, Pending: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateStats(tt.items))
		})
	}
}

func TestCountByStatus(t *testing.T) {
	got := CountByStatus([]Item{{Status: "Pending"}, {Status: "Pending"}, {Status: ""}, {Status: "Failed"}})
	assert.Equal(t, map[string]int{"Pending": 2, "Failed": 1}, got)
}

func TestSumAmounts(t *testing.T) {
	got := SumAmounts([]Item{
		{Amount: decimal.RequireFromString("10.50"), Paid: true},
		{Amount: decimal.RequireFromString("4.25")},
		{Amount: decimal.RequireFromString("0.25"), Paid: true},
	})
	assert.True(t, got.Total.Equal(decimal.RequireFromString("15")))
	assert.True(t, got.Paid.Equal(decimal.RequireFromString("10.75")))
	assert.True(t, got.Unpaid.Equal(decimal.RequireFromString("4.25")))

	empty := SumAmounts(nil)
	assert.True(t, empty.Total.IsZero())
}

func TestFilterByDate(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 5, d, 12, 0, 0, 0, time.UTC) }
	items := []Item{{Date: day(1)}, {Date: day(5)}, {Date: day(10)}}

	assert.Len(t, FilterByDate(items, time.Time{}, time.Time{}), 3)
	assert.Len(t, FilterByDate(items, day(5), time.Time{}), 2)
	assert.Len(t, FilterByDate(items, time.Time{}, day(5)), 2)
	assert.Len(t, FilterByDate(items, day(2), day(9)), 1)
	assert.Empty(t, FilterByDate(items, day(11), day(12)))
}

func TestSummarizeFromModels(t *testing.T) {
	subs := []models.WasteSubmission{
		{Status: models.WasteCompleted, WeightKg: 3, PaybackAmount: decimal.NewFromInt(6), PaymentStatus: models.PaymentPaid},
		{Status: models.WastePending, WeightKg: 2, PaybackAmount: decimal.NewFromInt(4)},
	}
	s := Summarize(FromSubmissions(subs), time.Time{}, time.Time{})
	assert.Equal(t, Stats{Total: 2, Completed: 1, Pending: 1, TotalWeight: 5}, s.Stats)
	assert.True(t, s.Amounts.Paid.Equal(decimal.NewFromInt(6)))

	specials := []models.SpecialCollection{
		{Status: models.SpecialScheduled, Fee: decimal.NewFromInt(25)},
		{Status: models.SpecialCollected, Fee: decimal.NewFromInt(15), PaymentStatus: models.PaymentPaid},
	}
	s = Summarize(FromSpecials(specials), time.Time{}, time.Time{})
	assert.Equal(t, 1, s.Stats.Completed)
	assert.Equal(t, 1, s.Stats.Pending)
	assert.True(t, s.Amounts.Unpaid.Equal(decimal.NewFromInt(25)))
}
