package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/waste-collection/internal/lookup"
	"github.com/magabrotheeeer/waste-collection/internal/models"
	"github.com/magabrotheeeer/waste-collection/internal/wizard"
)

type routeRun struct {
	c     *Console
	ctl   *wizard.Controller[wizard.CollectionState]
	flow  *lookup.Flow[wizard.CollectionState, *models.WasteAccount]
	state wizard.CollectionState
}

func (c *Console) route(ctx context.Context) error {
	run := &routeRun{c: c}
	ctl, err := wizard.NewCollectionRoute(run.submit)
	if err != nil {
		return err
	}
	run.ctl = ctl
	run.flow = lookup.NewFlow[wizard.CollectionState, *models.WasteAccount](lookup.ResolverFunc[*models.WasteAccount](c.resolveAccount), ctl,
		func(s wizard.CollectionState, a *models.WasteAccount) wizard.CollectionState {
			s.Account = a
			s.Code = a.AccountID
			return s
		})
	if err := run.begin(ctx); err != nil {
		return err
	}
	return run.loop(ctx)
}

func (r *routeRun) begin(ctx context.Context) error {
	r.state = wizard.CollectionState{RouteStarted: true}
	r.flow.RetryScan()
	return wizard.BeginRoute(ctx, r.ctl, r.state)
}

func (r *routeRun) submit(ctx context.Context, s wizard.CollectionState) error {
	weight, err := wizard.ParseWeight(s.Weight)
	if err != nil {
		return err
	}
	res, err := r.c.api.CollectAccount(ctx, s.Account.AccountID, weight)
	if err != nil {
		return err
	}
	r.c.printf("collected %.2f kg from %s\n", res.WeightKg, res.Account.AccountID)
	return nil
}

func (r *routeRun) loop(ctx context.Context) error {
	for {
		step := r.ctl.Step()
		r.c.printf("[%d/%d] %s\n", r.ctl.Current(), r.ctl.Len(), step.Name)

		var (
			finished bool
			err      error
		)
		switch step.ID {
		case wizard.StepRoute:
			finished, err = r.another(ctx)
		case wizard.StepScan:
			finished, err = r.scan(ctx)
		case wizard.StepVerified:
			a := r.state.Account
			if a.Location != nil {
				r.c.selected = a.Location
			}
			r.c.printf("account %s, %s, capacity %d%%\n", a.AccountID, a.Address, a.Capacity)
			err = r.ctl.Next(ctx, r.state)
		case wizard.StepWeight:
			err = r.weight(ctx)
		case wizard.StepConfirm:
			finished, err = r.confirm(ctx)
		}
		if err != nil || finished {
			return err
		}
	}
}

// another после успешного подтверждения предлагает продолжить маршрут.
func (r *routeRun) another(ctx context.Context) (bool, error) {
	answer, err := r.c.prompt(ctx, "next stop? [Y/n] ")
	if err != nil {
		return true, err
	}
	if strings.EqualFold(answer, "n") {
		return true, nil
	}
	return false, r.begin(ctx)
}

func (r *routeRun) scan(ctx context.Context) (bool, error) {
	switch r.flow.Phase() {
	case lookup.PhaseScanning, lookup.PhaseVerified:
		r.c.printf("scanning...\n")
		next, err := r.flow.ScanWith(ctx, r.state, r.c.Scanner, r.c.Decoder)
		switch {
		case errors.Is(err, lookup.ErrDecoderUnavailable):
			r.c.printf("camera unavailable, enter the account id manually\n")
		case ctx.Err() != nil:
			return true, ctx.Err()
		case err != nil:
			r.c.printf("lookup failed: %v\n", err)
		default:
			r.state = next
		}
	case lookup.PhaseManual:
		code, err := r.c.prompt(ctx, "account id (empty to end route): ")
		if err != nil {
			return true, err
		}
		if code == "" {
			r.ctl.Reset()
			return true, nil
		}
		next, err := r.flow.Manual(ctx, r.state, code)
		if err != nil {
			if ctx.Err() != nil {
				return true, ctx.Err()
			}
			r.c.printf("lookup failed: %v\n", err)
			return false, nil
		}
		r.state = next
	case lookup.PhaseError:
		choice, err := r.c.prompt(ctx, "[r]etry scan, [m]anual entry, [c]ancel route: ")
		if err != nil {
			return true, err
		}
		switch strings.ToLower(choice) {
		case "r":
			r.flow.RetryScan()
		case "m":
			r.flow.EnterManual()
		case "c":
			r.ctl.Reset()
			return true, nil
		}
	}
	return false, nil
}

func (r *routeRun) weight(ctx context.Context) error {
	raw, err := r.c.prompt(ctx, "weight, kg: ")
	if err != nil {
		return err
	}
	r.state.Weight = raw
	if err := r.ctl.Next(ctx, r.state); err != nil {
		if !errors.Is(err, wizard.ErrBlocked) {
			return err
		}
		r.c.printf("weight must be a positive number\n")
	}
	return nil
}

// confirm отправляет подтверждение. При ошибке мастер остаётся на шаге
// подтверждения, повтор только по явному ответу.
func (r *routeRun) confirm(ctx context.Context) (bool, error) {
	answer, err := r.c.prompt(ctx, fmt.Sprintf("confirm %s kg from %s? [y/N] ", r.state.Weight, r.state.Account.AccountID))
	if err != nil {
		return true, err
	}
	if !strings.EqualFold(answer, "y") {
		r.ctl.Reset()
		r.c.printf("route ended\n")
		return true, nil
	}
	if err := r.ctl.Next(ctx, r.state); err != nil {
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		r.c.printf("collection failed: %v\n", err)
	}
	return false, nil
}
