package models

import "time"

// WasteAccount физическая точка сбора пользователя. AccountID печатается
// в QR-коде, Capacity (0..100) изменяется симулятором на сервере.
type WasteAccount struct {
	AccountID string    `json:"account_id"`
	UserID    string    `json:"user_id"`
	Holder    string    `json:"holder"`
	Address   string    `json:"address"`
	Location  *Location `json:"location,omitempty"`
	Capacity  int       `json:"capacity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CapacityEvent публикуется при изменении заполненности точки сбора.
type CapacityEvent struct {
	AccountID string `json:"account_id"`
	UserID    string `json:"user_id"`
	Capacity  int    `json:"capacity"`
}

// StatusEvent публикуется при смене статуса заявки или вывоза.
type StatusEvent struct {
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

// CollectRequest подтверждение вывоза с точки сбора.
type CollectRequest struct {
	WeightKg float64 `json:"weight_kg" validate:"required,gt=0"`
}

// CollectResult итог подтверждённого вывоза.
type CollectResult struct {
	Account     *WasteAccount `json:"account"`
	WeightKg    float64       `json:"weight_kg"`
	CollectedBy string        `json:"collected_by"`
	CollectedAt time.Time     `json:"collected_at"`
}
