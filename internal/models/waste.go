package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WasteCategory категория вторсырья. Назначается явно при оформлении заявки,
// вместо угадывания по подстроке в названии.
type WasteCategory string

// Категории вторсырья.
const (
	CategoryPlastic     WasteCategory = "plastic"
	CategoryPaper       WasteCategory = "paper"
	CategoryGlass       WasteCategory = "glass"
	CategoryMetal       WasteCategory = "metal"
	CategoryElectronics WasteCategory = "electronics"
	CategoryOrganic     WasteCategory = "organic"
)

// Recyclable сообщает, подлежит ли категория переработке с выплатой.
func (c WasteCategory) Recyclable() bool {
	switch c {
	case CategoryPlastic, CategoryPaper, CategoryGlass, CategoryMetal, CategoryElectronics:
		return true
	}
	return false
}

// SubmissionMethod способ передачи отходов.
type SubmissionMethod string

// Способы передачи.
const (
	MethodPickup  SubmissionMethod = "pickup"
	MethodDropOff SubmissionMethod = "drop-off"
)

// WasteStatus статус заявки на вторсырьё.
type WasteStatus string

// Статусы заявки: Pending -> Processed/Completed или Failed.
const (
	WastePending   WasteStatus = "Pending"
	WasteProcessed WasteStatus = "Processed"
	WasteCompleted WasteStatus = "Completed"
	WasteFailed    WasteStatus = "Failed"
)

// PaymentStatus статус оплаты или выплаты.
type PaymentStatus string

// Статусы оплаты.
const (
	PaymentUnpaid PaymentStatus = "Unpaid"
	PaymentPaid   PaymentStatus = "Paid"
)

// WasteSubmission заявка пользователя на сдачу вторсырья.
type WasteSubmission struct {
	ID            int64            `json:"id"`
	UserID        string           `json:"user_id"`
	Category      WasteCategory    `json:"category"`
	Items         []string         `json:"items"`
	WeightKg      float64          `json:"weight_kg"`
	PaybackAmount decimal.Decimal  `json:"payback_amount"`
	Method        SubmissionMethod `json:"method"`
	Status        WasteStatus      `json:"status"`
	PaymentStatus PaymentStatus    `json:"payment_status"`
	QRCode        string           `json:"qr_code"`
	Address       string           `json:"address,omitempty"`
	Location      *Location        `json:"location,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// WasteRequest используется для приёма заявки из JSON-запроса.
type WasteRequest struct {
	Category WasteCategory    `json:"category" validate:"required,oneof=plastic paper glass metal electronics organic"`
	Items    []string         `json:"items" validate:"required,min=1"`
	WeightKg float64          `json:"weight_kg" validate:"required,gt=0"`
	Method   SubmissionMethod `json:"method" validate:"required,oneof=pickup drop-off"`
	Address  string           `json:"address"`
	Location *Location        `json:"location"`
}

// StatusRequest смена статуса заявки сборщиком.
type StatusRequest struct {
	Status WasteStatus `json:"status" validate:"required,oneof=Processed Completed Failed"`
}

// ScanRequest идентификатор, полученный с камеры или введённый вручную.
type ScanRequest struct {
	Code string `json:"code" validate:"required"`
}
