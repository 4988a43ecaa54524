package models

// MarkerType дискриминатор маркера для выбора иконки на карте.
type MarkerType string

// Типы маркеров.
const (
	MarkerWasteAccount MarkerType = "waste_account"
	MarkerRecyclable   MarkerType = "recyclable"
	MarkerSpecial      MarkerType = "special"
)

// Marker временная проекция записи для отображения на карте. Создаётся
// при каждом запросе и нигде не хранится.
type Marker struct {
	Lat      float64    `json:"lat"`
	Lng      float64    `json:"lng"`
	Address  string     `json:"address"`
	PointID  string     `json:"point_id"`
	Type     MarkerType `json:"type"`
	Status   string     `json:"status"`
	Capacity *int       `json:"capacity,omitempty"`
	Priority bool       `json:"priority"`
}

// Region прямоугольная область карты и её центр.
type Region struct {
	South  float64  `json:"south"`
	West   float64  `json:"west"`
	North  float64  `json:"north"`
	East   float64  `json:"east"`
	Center Location `json:"center"`
	Empty  bool     `json:"empty"`
}

// MapView ответ карты: маркеры и область для fit-to-bounds.
type MapView struct {
	Markers []Marker `json:"markers"`
	Region  Region   `json:"region"`
}
