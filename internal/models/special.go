package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SpecialCategory категория специальных отходов.
type SpecialCategory string

// Категории специальных отходов.
const (
	SpecialBulky        SpecialCategory = "bulky"
	SpecialHazardous    SpecialCategory = "hazardous"
	SpecialEWaste       SpecialCategory = "e-waste"
	SpecialGarden       SpecialCategory = "garden"
	SpecialConstruction SpecialCategory = "construction"
)

// SpecialStatus статус специального вывоза.
type SpecialStatus string

// Статусы: Scheduled -> Collected/Completed или Cancelled.
const (
	SpecialScheduled SpecialStatus = "Scheduled"
	SpecialCollected SpecialStatus = "Collected"
	SpecialCompleted SpecialStatus = "Completed"
	SpecialCancelled SpecialStatus = "Cancelled"
)

// SpecialCollection запланированный вывоз специальных отходов.
type SpecialCollection struct {
	ID            int64           `json:"id"`
	UserID        string          `json:"user_id"`
	Category      SpecialCategory `json:"category"`
	Quantity      int             `json:"quantity"`
	Fee           decimal.Decimal `json:"fee"`
	ScheduledAt   time.Time       `json:"scheduled_at"`
	TimeSlot      string          `json:"time_slot"`
	Status        SpecialStatus   `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	PaymentID     string          `json:"payment_id,omitempty"`
	QRCode        string          `json:"qr_code"`
	Address       string          `json:"address,omitempty"`
	Location      *Location       `json:"location,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// FeeRequest расчёт стоимости до оформления.
type FeeRequest struct {
	Category SpecialCategory `json:"category" validate:"required,oneof=bulky hazardous e-waste garden construction"`
	Quantity int             `json:"quantity" validate:"required,gt=0"`
}

// ScheduleRequest оформление специального вывоза.
type ScheduleRequest struct {
	Category SpecialCategory `json:"category" validate:"required,oneof=bulky hazardous e-waste garden construction"`
	Quantity int             `json:"quantity" validate:"required,gt=0"`
	Date     string          `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot string          `json:"time_slot" validate:"required,datetime=15:04"`
	Address  string          `json:"address" validate:"required"`
	Location *Location       `json:"location"`
}

// RescheduleRequest перенос вывоза на другую дату.
type RescheduleRequest struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot string `json:"time_slot" validate:"required,datetime=15:04"`
}

// PaymentRequest оплата вывоза токеном платёжного метода.
type PaymentRequest struct {
	PaymentToken string `json:"payment_token" validate:"required"`
}
