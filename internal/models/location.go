package models

// Location географическая точка.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
