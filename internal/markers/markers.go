// Package markers превращает разнородные записи (точки сбора, заявки на
// вторсырьё, специальные вывозы) в единый список маркеров карты,
// упорядоченный по заполненности, и вычисляет область отображения.
//
// Aggregate и Bounds чистые функции: повторный вызов на тех же данных
// даёт тот же результат.
package markers

import (
	"math"
	"sort"
	"strconv"

	"github.com/magabrotheeeer/waste-collection/internal/models"
)

// DefaultCenter центр карты, если показывать нечего.
var DefaultCenter = models.Location{Lat: 6.9271, Lng: 79.8612}

// RawRecord запись до приведения к маркеру. Координаты могут прийти либо
// вложенным объектом Location, либо полями Lat/Lng верхнего уровня.
type RawRecord struct {
	Kind     models.MarkerType
	PointID  string
	Address  string
	Status   string
	Capacity *int
	Location *models.Location
	Lat      *float64
	Lng      *float64
}

// ExtractLocation находит координаты записи. Точка (0, 0) и значения вне
// допустимых диапазонов считаются отсутствующими.
func ExtractLocation(r RawRecord) (models.Location, bool) {
	if r.Location != nil && valid(r.Location.Lat, r.Location.Lng) {
		return *r.Location, true
	}
	if r.Lat != nil && r.Lng != nil && valid(*r.Lat, *r.Lng) {
		return models.Location{Lat: *r.Lat, Lng: *r.Lng}, true
	}
	return models.Location{}, false
}

func valid(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	if lat == 0 && lng == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Aggregate строит маркеры, отбрасывая записи без координат, и сортирует их
// по убыванию заполненности (отсутствие значения считается нулём). Сортировка
// устойчивая: при равенстве сохраняется исходный порядок. Первый маркер
// помечается как приоритетный.
func Aggregate(records []RawRecord) []models.Marker {
	out := make([]models.Marker, 0, len(records))
	for _, r := range records {
		loc, ok := ExtractLocation(r)
		if !ok {
			continue
		}
		m := models.Marker{
			Lat:     loc.Lat,
			Lng:     loc.Lng,
			Address: r.Address,
			PointID: r.PointID,
			Type:    r.Kind,
			Status:  r.Status,
		}
		if r.Capacity != nil {
			c := *r.Capacity
			m.Capacity = &c
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return capacityOf(out[i]) > capacityOf(out[j])
	})
	if len(out) > 0 {
		out[0].Priority = true
	}
	return out
}

// Unresolved возвращает записи, которые Aggregate отбросит.
func Unresolved(records []RawRecord) []RawRecord {
	var out []RawRecord
	for _, r := range records {
		if _, ok := ExtractLocation(r); !ok {
			out = append(out, r)
		}
	}
	return out
}

func capacityOf(m models.Marker) int {
	if m.Capacity == nil {
		return 0
	}
	return *m.Capacity
}

// Bounds вычисляет область, покрывающую все маркеры и, если заданы, текущее
// положение сборщика и выбранную точку. Без точек возвращается
// DefaultCenter с флагом Empty.
func Bounds(markers []models.Marker, live, selected *models.Location) models.Region {
	points := make([]models.Location, 0, len(markers)+2)
	for _, m := range markers {
		points = append(points, models.Location{Lat: m.Lat, Lng: m.Lng})
	}
	for _, p := range []*models.Location{live, selected} {
		if p != nil && valid(p.Lat, p.Lng) {
			points = append(points, *p)
		}
	}

	if len(points) == 0 {
		return models.Region{
			South:  DefaultCenter.Lat,
			North:  DefaultCenter.Lat,
			West:   DefaultCenter.Lng,
			East:   DefaultCenter.Lng,
			Center: DefaultCenter,
			Empty:  true,
		}
	}

	r := models.Region{
		South: points[0].Lat, North: points[0].Lat,
		West: points[0].Lng, East: points[0].Lng,
	}
	for _, p := range points[1:] {
		r.South = math.Min(r.South, p.Lat)
		r.North = math.Max(r.North, p.Lat)
		r.West = math.Min(r.West, p.Lng)
		r.East = math.Max(r.East, p.Lng)
	}
	r.Center = models.Location{Lat: (r.South + r.North) / 2, Lng: (r.West + r.East) / 2}
	return r
}

// FromAccount приводит точку сбора к RawRecord.
func FromAccount(a models.WasteAccount) RawRecord {
	c := a.Capacity
	return RawRecord{
		Kind:     models.MarkerWasteAccount,
		PointID:  a.AccountID,
		Address:  a.Address,
		Status:   accountStatus(a.Capacity),
		Capacity: &c,
		Location: a.Location,
	}
}

// FromSubmission приводит заявку на вторсырьё к RawRecord.
func FromSubmission(s models.WasteSubmission) RawRecord {
	return RawRecord{
		Kind:     models.MarkerRecyclable,
		PointID:  strconv.FormatInt(s.ID, 10),
		Address:  s.Address,
		Status:   string(s.Status),
		Location: s.Location,
	}
}

// FromSpecial приводит специальный вывоз к RawRecord.
func FromSpecial(c models.SpecialCollection) RawRecord {
	return RawRecord{
		Kind:     models.MarkerSpecial,
		PointID:  strconv.FormatInt(c.ID, 10),
		Address:  c.Address,
		Status:   string(c.Status),
		Location: c.Location,
	}
}

func accountStatus(capacity int) string {
	switch {
	case capacity >= 80:
		return "full"
	case capacity >= 50:
		return "half"
	default:
		return "available"
	}
}
