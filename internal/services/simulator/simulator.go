// Package simulator периодически меняет заполненность точек сбора.
package simulator

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
)

// Randomizer обновляет заполненность всех точек
type Randomizer interface {
	RandomizeCapacity(ctx context.Context) (int, error)
}

// Service тикер симулятора
type Service struct {
	accounts Randomizer
	interval time.Duration
	log      *slog.Logger
}

// New создаёт симулятор с заданным периодом
func New(accounts Randomizer, interval time.Duration, log *slog.Logger) *Service {
	return &Service{accounts: accounts, interval: interval, log: log}
}

// Run выполняет первый проход сразу, затем раз в interval, пока ctx не отменён.
func (s *Service) Run(ctx context.Context) {
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("simulator stopped")
			return
		case <-ticker.C:
			if ctx.Err() == nil {
				s.tick(ctx)
			}
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	const op = "services.simulator.tick"
	s.log.Info("starting capacity simulation")
	n, err := s.accounts.RandomizeCapacity(ctx)
	if err != nil {
		s.log.Error("capacity simulation failed", sl.Op(op), sl.Err(err), slog.Int("updated", n))
		return
	}
	if n == 0 {
		s.log.Info("no waste accounts to update")
	}
}
