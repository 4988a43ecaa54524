// Package pricing тарифы выплат за вторсырьё и стоимости специальных вывозов.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/waste-collection/internal/config"
	"github.com/magabrotheeeer/waste-collection/internal/models"
)

// Тарифы по умолчанию, за килограмм и за единицу
var (
	defaultRates = map[models.WasteCategory]string{
		models.CategoryPlastic:     "15",
		models.CategoryPaper:       "10",
		models.CategoryGlass:       "5",
		models.CategoryMetal:       "60",
		models.CategoryElectronics: "120",
		models.CategoryOrganic:     "0",
	}
	defaultFees = map[models.SpecialCategory]string{
		models.SpecialBulky:        "750",
		models.SpecialHazardous:    "1200",
		models.SpecialEWaste:       "500",
		models.SpecialGarden:       "300",
		models.SpecialConstruction: "1500",
	}
)

// Pricing неизменяемая таблица тарифов
type Pricing struct {
	rates map[models.WasteCategory]decimal.Decimal
	fees  map[models.SpecialCategory]decimal.Decimal
}

// New собирает тарифы: значения из конфига перекрывают умолчания.
func New(cfg config.Pricing) (*Pricing, error) {
	const op = "pricing.New"
	p := &Pricing{
		rates: make(map[models.WasteCategory]decimal.Decimal, len(defaultRates)),
		fees:  make(map[models.SpecialCategory]decimal.Decimal, len(defaultFees)),
	}
	for c, v := range defaultRates {
		p.rates[c] = decimal.RequireFromString(v)
	}
	for c, v := range defaultFees {
		p.fees[c] = decimal.RequireFromString(v)
	}

	for c, v := range cfg.PaybackRates {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("%s: payback rate %s: %w", op, c, err)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("%s: payback rate %s is negative", op, c)
		}
		p.rates[models.WasteCategory(c)] = d
	}
	for c, v := range cfg.SpecialFees {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("%s: special fee %s: %w", op, c, err)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("%s: special fee %s is negative", op, c)
		}
		p.fees[models.SpecialCategory(c)] = d
	}
	return p, nil
}

// Payback выплата за вес weightKg, округлённая до копеек.
// Неизвестная категория и неперерабатываемые отходы дают ноль.
func (p *Pricing) Payback(c models.WasteCategory, weightKg float64) decimal.Decimal {
	rate, ok := p.rates[c]
	if !ok || weightKg <= 0 {
		return decimal.Zero
	}
	return rate.Mul(decimal.NewFromFloat(weightKg)).Round(2)
}

// Fee стоимость вывоза quantity единиц; ok=false для неизвестной категории.
func (p *Pricing) Fee(c models.SpecialCategory, quantity int) (decimal.Decimal, bool) {
	base, ok := p.fees[c]
	if !ok {
		return decimal.Zero, false
	}
	return base.Mul(decimal.NewFromInt(int64(quantity))), true
}
