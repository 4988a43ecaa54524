// Package collector консоль сборщика: карта и панель с параллельным
// обновлением, маршрут сбора с поиском точки по QR-коду или вручную и
// подтверждение специальных вывозов.
package collector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/waste-collection/internal/client"
	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
	"github.com/magabrotheeeer/waste-collection/internal/lookup"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	"github.com/magabrotheeeer/waste-collection/internal/services/stats"
	"github.com/magabrotheeeer/waste-collection/internal/session"
)

// ErrNotCollector консоль доступна только сборщику и администратору.
var ErrNotCollector = errors.New("collector or admin role required")

// API вызовы сервера, нужные консоли.
type API interface {
	session.Checker
	Login(ctx context.Context, username, password string) (*models.User, error)
	Logout(ctx context.Context) error
	Markers(ctx context.Context, live, selected *models.Location) (*models.MapView, error)
	CollectorStats(ctx context.Context, from, to time.Time) (*stats.Collector, error)
	ResolveAccount(ctx context.Context, accountID string) (*models.WasteAccount, error)
	CollectAccount(ctx context.Context, accountID string, weightKg float64) (*models.CollectResult, error)
	CollectSpecial(ctx context.Context, code string) (*models.SpecialCollection, error)
}

// Console интерактивная консоль. Ввод читается построчно.
type Console struct {
	api     API
	session *session.Holder
	out     io.Writer
	lines   <-chan string
	log     *slog.Logger

	// Scanner и Decoder камеры; без Decoder после Scanner.Fallback
	// предлагается ручной ввод.
	Scanner lookup.Scanner
	Decoder lookup.FrameDecoder
	// Live текущее положение сборщика для области карты.
	Live *models.Location

	// selected последняя подтверждённая точка маршрута
	selected *models.Location
}

// New создаёт консоль. Чтение in идёт в отдельной горутине, чтобы
// ожидание ввода прерывалось отменой контекста.
func New(api API, in io.Reader, out io.Writer, log *slog.Logger) *Console {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return &Console{
		api:     api,
		session: session.NewHolder(),
		out:     out,
		lines:   lines,
		log:     log,
		Scanner: lookup.NewScanner(),
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) prompt(ctx context.Context, label string) (string, error) {
	fmt.Fprint(c.out, label)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

// Run загружает сессию и выполняет команды до quit, конца ввода или
// отмены ctx.
func (c *Console) Run(ctx context.Context) error {
	const op = "collector.Run"

	u, err := c.session.Load(ctx, c.api)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if u == nil {
		if err := c.login(ctx); err != nil {
			return done(op, err)
		}
	}
	if !c.session.HasRole(models.RoleCollector, models.RoleAdmin) {
		return fmt.Errorf("%s: %w", op, ErrNotCollector)
	}
	u, _ = c.session.User()
	c.printf("signed in as %s (%s)\n", u.Username, u.Role)

	if err := c.refresh(ctx); err != nil {
		c.report("refresh failed", err)
	}
	for {
		line, err := c.prompt(ctx, "> ")
		if err != nil {
			return done(op, err)
		}
		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "":
		case "help":
			c.printf("commands: refresh, route, special <code>, logout, quit\n")
		case "refresh":
			err = c.refresh(ctx)
		case "route":
			err = c.route(ctx)
		case "special":
			err = c.special(ctx, strings.TrimSpace(arg))
		case "logout":
			if err := c.api.Logout(ctx); err != nil {
				c.report("logout failed", err)
			}
			c.session.SignOut()
			return nil
		case "quit", "exit":
			return nil
		default:
			c.printf("unknown command %q, type help\n", cmd)
		}
		if err != nil {
			if ctx.Err() != nil {
				return done(op, err)
			}
			c.report(cmd+" failed", err)
		}
	}
}

// done превращает штатное завершение ввода или отмену в nil.
func done(op string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (c *Console) report(what string, err error) {
	c.log.Warn(what, sl.Err(err))
	c.printf("%s: %v\n", what, err)
}

func (c *Console) login(ctx context.Context) error {
	for {
		username, err := c.prompt(ctx, "username: ")
		if err != nil {
			return err
		}
		password, err := c.prompt(ctx, "password: ")
		if err != nil {
			return err
		}
		u, err := c.api.Login(ctx, username, password)
		if err != nil {
			if client.IsStatus(err, http.StatusUnauthorized) {
				c.printf("invalid username or password\n")
				continue
			}
			return err
		}
		c.session.SignIn(u)
		return nil
	}
}

// refresh загружает карту и панель параллельно.
func (c *Console) refresh(ctx context.Context) error {
	var (
		view *models.MapView
		st   *stats.Collector
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		view, err = c.api.Markers(gctx, c.Live, c.selected)
		return err
	})
	g.Go(func() error {
		var err error
		st, err = c.api.CollectorStats(gctx, time.Time{}, time.Time{})
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	c.printf("markers: %d, center %.4f,%.4f\n", len(view.Markers), view.Region.Center.Lat, view.Region.Center.Lng)
	for i, m := range view.Markers {
		if i == 5 {
			c.printf("  ... %d more\n", len(view.Markers)-i)
			break
		}
		flag := " "
		if m.Priority {
			flag = "!"
		}
		capacity := "-"
		if m.Capacity != nil {
			capacity = fmt.Sprintf("%d%%", *m.Capacity)
		}
		c.printf(" %s %-13s %-8s %5s  %s\n", flag, m.Type, m.PointID, capacity, m.Address)
	}
	c.printf("accounts full: %d of %d\n", st.FullAccounts, st.TotalAccounts)
	c.printf("submissions: %d total, %d completed, %d pending, %.1f kg\n",
		st.Submissions.Stats.Total, st.Submissions.Stats.Completed, st.Submissions.Stats.Pending, st.Submissions.Stats.TotalWeight)
	c.printf("specials: %d total, %d completed, %d pending\n",
		st.Specials.Stats.Total, st.Specials.Stats.Completed, st.Specials.Stats.Pending)
	return nil
}

func (c *Console) special(ctx context.Context, code string) error {
	if code == "" {
		var err error
		if code, err = c.prompt(ctx, "special collection code: "); err != nil {
			return err
		}
	}
	sc, err := c.api.CollectSpecial(ctx, code)
	if err != nil {
		return err
	}
	c.printf("special collection #%d marked %s\n", sc.ID, sc.Status)
	return nil
}

func (c *Console) resolveAccount(ctx context.Context, code string) (*models.WasteAccount, error) {
	a, err := c.api.ResolveAccount(ctx, code)
	if client.IsStatus(err, http.StatusNotFound) {
		return nil, fmt.Errorf("%w: %w", lookup.ErrNotFound, err)
	}
	return a, err
}
