package lookup

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultPollInterval период опроса кадров камеры.
	DefaultPollInterval = 300 * time.Millisecond
	// DefaultFallback через сколько предлагается ручной ввод, если
	// распознавание недоступно.
	DefaultFallback = 5 * time.Second
)

// ErrDecoderUnavailable означает, что распознавание недоступно и нужно
// перейти к ручному вводу.
var ErrDecoderUnavailable = errors.New("qr decoder unavailable")

// FrameDecoder распознаёт код в текущем кадре.
type FrameDecoder interface {
	// Available сообщает, есть ли возможность распознавания.
	Available() bool
	// DecodeFrame пытается распознать код; ok=false, если в кадре кода нет.
	DecodeFrame(ctx context.Context) (code string, ok bool, err error)
}

// Scanner опрашивает FrameDecoder с постоянным интервалом.
type Scanner struct {
	Interval time.Duration
	Fallback time.Duration
}

// NewScanner возвращает Scanner с интервалами по умолчанию.
func NewScanner() Scanner {
	return Scanner{Interval: DefaultPollInterval, Fallback: DefaultFallback}
}

// Poll опрашивает декодер до первого распознанного кода. Ошибки отдельных
// кадров не прерывают опрос. Если декодер недоступен, после Fallback
// возвращается ErrDecoderUnavailable.
func (s Scanner) Poll(ctx context.Context, dec FrameDecoder) (string, error) {
	if dec == nil || !dec.Available() {
		timer := time.NewTimer(s.fallback())
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
			return "", ErrDecoderUnavailable
		}
	}

	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			code, ok, err := dec.DecodeFrame(ctx)
			if err != nil || !ok {
				continue
			}
			return code, nil
		}
	}
}

func (s Scanner) interval() time.Duration {
	if s.Interval <= 0 {
		return DefaultPollInterval
	}
	return s.Interval
}

func (s Scanner) fallback() time.Duration {
	if s.Fallback <= 0 {
		return DefaultFallback
	}
	return s.Fallback
}

// ScanWith ждёт код от камеры и выполняет поиск. Если распознавание
// недоступно, поток переходит к ручному вводу и возвращается
// ErrDecoderUnavailable.
func (f *Flow[S, R]) ScanWith(ctx context.Context, state S, s Scanner, dec FrameDecoder) (S, error) {
	f.RetryScan()
	code, err := s.Poll(ctx, dec)
	if err != nil {
		if errors.Is(err, ErrDecoderUnavailable) {
			f.EnterManual()
		}
		return state, err
	}
	return f.Scan(ctx, state, code)
}
