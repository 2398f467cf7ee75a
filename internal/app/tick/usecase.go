package tick

import (
	"context"
	"errors"
	"strings"
	"time"

	"guildhall/internal/app/ports"
	"guildhall/internal/domain/guild"
)

var ErrInvalidRequest = errors.New("invalid tick request")

// UseCase advances the whole guild simulation by one update cycle. The load,
// tick and save happen inside a single transaction with optimistic version
// checking, so a concurrent command forces a clean retry instead of racing.
type UseCase struct {
	TxManager ports.TxManager
	StateRepo ports.GuildStateRepository
	EventRepo ports.EventRepository
	Metrics   ports.GuildMetrics
	Scheduler guild.Scheduler
	Now       func() time.Time
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	req.GuildID = strings.TrimSpace(req.GuildID)
	if req.GuildID == "" || req.DeltaSeconds < 0 {
		return Response{}, ErrInvalidRequest
	}

	nowFn := u.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	var out Response
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		state, err := u.StateRepo.GetByGuildID(txCtx, req.GuildID)
		if err != nil {
			return err
		}
		expected := state.Version

		events := u.Scheduler.Tick(&state, req.DeltaSeconds, nowFn())
		if req.DeltaSeconds == 0 {
			// A zero tick must not write anything.
			out = Response{Events: nil, Version: state.Version}
			return nil
		}

		if err := u.StateRepo.SaveWithVersion(txCtx, state, expected); err != nil {
			return err
		}
		if err := u.EventRepo.Append(txCtx, req.GuildID, events); err != nil {
			return err
		}
		out = Response{Events: events, Version: state.Version}
		return nil
	})
	if err != nil {
		if u.Metrics != nil {
			if errors.Is(err, ports.ErrConflict) {
				u.Metrics.RecordConflict()
			} else {
				u.Metrics.RecordFailure()
			}
		}
		return Response{}, err
	}
	if u.Metrics != nil {
		u.Metrics.RecordTick(out.Events)
	}
	return out, nil
}
