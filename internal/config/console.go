package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Console настройки консоли сборщика, читаются только из окружения.
type Console struct {
	APIURL     string        `env:"WASTE_API_URL" env-default:"http://localhost:8080"`
	APITimeout time.Duration `env:"WASTE_API_TIMEOUT" env-default:"15s"`
	// Положение сборщика в виде "lat,lng"; пусто, если неизвестно.
	Position string `env:"COLLECTOR_POSITION"`
}

// LoadConsole читает настройки консоли из переменных окружения.
func LoadConsole() (*Console, error) {
	const op = "config.LoadConsole"
	var cfg Console
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// Coordinates разбирает Position. ok=false, если положение не задано.
func (c *Console) Coordinates() (lat, lng float64, ok bool, err error) {
	const op = "config.Console.Coordinates"
	if strings.TrimSpace(c.Position) == "" {
		return 0, 0, false, nil
	}
	rawLat, rawLng, found := strings.Cut(c.Position, ",")
	if !found {
		return 0, 0, false, fmt.Errorf("%s: expected lat,lng, got %q", op, c.Position)
	}
	if lat, err = strconv.ParseFloat(strings.TrimSpace(rawLat), 64); err != nil {
		return 0, 0, false, fmt.Errorf("%s: %w", op, err)
	}
	if lng, err = strconv.ParseFloat(strings.TrimSpace(rawLng), 64); err != nil {
		return 0, 0, false, fmt.Errorf("%s: %w", op, err)
	}
	return lat, lng, true, nil
}
