// Package slot разбирает дату и временной слот вывоза.
package slot

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Parse собирает момент вывоза из даты и начала слота в зоне loc.
func Parse(date, timeSlot string, loc *time.Location) (time.Time, error) {
	const op = "slot.Parse"
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+timeSlot, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}
