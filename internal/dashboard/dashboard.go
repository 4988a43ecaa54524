// Package dashboard считает сводную статистику по уже загруженным спискам:
// количество по статусам, суммарный вес и суммы сборов, фильтр по датам.
// Производные значения нигде не сохраняются.
package dashboard

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/waste-collection/internal/models"
)

// Item запись, участвующая в подсчёте. Пустой Status означает, что статус
// неизвестен: такая запись учитывается только в Total.
type Item struct {
	Status   string          `json:"status"`
	WeightKg float64         `json:"weight_kg"`
	Amount   decimal.Decimal `json:"amount"`
	Paid     bool            `json:"paid"`
	Date     time.Time       `json:"date"`
}

// Stats основные показатели.
type Stats struct {
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	Pending     int     `json:"pending"`
	TotalWeight float64 `json:"totalWeight"`
}

var (
	completedStatuses = map[string]struct{}{"collected": {}, "completed": {}, "processed": {}}
	pendingStatuses   = map[string]struct{}{"pending": {}, "scheduled": {}}
)

// CalculateStats считает Total, Completed, Pending и TotalWeight.
func CalculateStats(items []Item) Stats {
	var s Stats
	for _, it := range items {
		s.Total++
		s.TotalWeight += it.WeightKg
		status := normalize(it.Status)
		if _, ok := completedStatuses[status]; ok {
			s.Completed++
		}
		if _, ok := pendingStatuses[status]; ok {
			s.Pending++
		}
	}
	return s
}

// CountByStatus группирует записи по статусу. Записи без статуса пропускаются.
func CountByStatus(items []Item) map[string]int {
	out := make(map[string]int)
	for _, it := range items {
		if it.Status == "" {
			continue
		}
		out[it.Status]++
	}
	return out
}

// Amounts суммы денежных полей.
type Amounts struct {
	Total  decimal.Decimal `json:"total"`
	Paid   decimal.Decimal `json:"paid"`
	Unpaid decimal.Decimal `json:"unpaid"`
}

// SumAmounts суммирует Amount с разбивкой на оплаченные и неоплаченные.
func SumAmounts(items []Item) Amounts {
	a := Amounts{Total: decimal.Zero, Paid: decimal.Zero, Unpaid: decimal.Zero}
	for _, it := range items {
		a.Total = a.Total.Add(it.Amount)
		if it.Paid {
			a.Paid = a.Paid.Add(it.Amount)
		} else {
			a.Unpaid = a.Unpaid.Add(it.Amount)
		}
	}
	return a
}

// FilterByDate оставляет записи с датой в [from, to]. Нулевая граница не
// ограничивает диапазон.
func FilterByDate(items []Item, from, to time.Time) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if !from.IsZero() && it.Date.Before(from) {
			continue
		}
		if !to.IsZero() && it.Date.After(to) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func normalize(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// FromSubmissions приводит заявки на вторсырьё к Item. Amount содержит сумму выплаты.
func FromSubmissions(subs []models.WasteSubmission) []Item {
	out := make([]Item, 0, len(subs))
	for _, s := range subs {
		out = append(out, Item{
			Status:   string(s.Status),
			WeightKg: s.WeightKg,
			Amount:   s.PaybackAmount,
			Paid:     s.PaymentStatus == models.PaymentPaid,
			Date:     s.CreatedAt,
		})
	}
	return out
}

// FromSpecials приводит специальные вывозы к Item. Amount содержит стоимость вывоза,
// Date содержит запланированное время.
func FromSpecials(cs []models.SpecialCollection) []Item {
	out := make([]Item, 0, len(cs))
	for _, c := range cs {
		out = append(out, Item{
			Status: string(c.Status),
			Amount: c.Fee,
			Paid:   c.PaymentStatus == models.PaymentPaid,
			Date:   c.ScheduledAt,
		})
	}
	return out
}

// Summary набор показателей одной панели.
type Summary struct {
	Stats    Stats          `json:"stats"`
	ByStatus map[string]int `json:"by_status"`
	Amounts  Amounts        `json:"amounts"`
}

// Summarize считает все показатели по записям из диапазона дат.
func Summarize(items []Item, from, to time.Time) Summary {
	filtered := FilterByDate(items, from, to)
	return Summary{
		Stats:    CalculateStats(filtered),
		ByStatus: CountByStatus(filtered),
		Amounts:  SumAmounts(filtered),
	}
}
