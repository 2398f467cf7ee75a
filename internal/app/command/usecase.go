package command

import (
	"context"
	"errors"
	"strings"
	"time"

	"guildhall/internal/app/ports"
	"guildhall/internal/domain/guild"
)

var (
	ErrInvalidRequest = errors.New("invalid command request")
	ErrUnknownCommand = errors.New("unknown command type")
)

// UseCase applies one player command to the guild aggregate. Commands are
// serialized against ticks by the transaction plus the aggregate version;
// a replayed idempotency key returns the recorded response without touching
// state again. Domain-level rejections (wrong phase, bad party) come back as
// ok=false responses, never as errors.
type UseCase struct {
	TxManager   ports.TxManager
	StateRepo   ports.GuildStateRepository
	CommandRepo ports.CommandExecutionRepository
	EventRepo   ports.EventRepository
	Metrics     ports.GuildMetrics
	Machine     guild.Machine
	Now         func() time.Time
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	req.GuildID = strings.TrimSpace(req.GuildID)
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	if req.GuildID == "" || req.IdempotencyKey == "" {
		return Response{}, ErrInvalidRequest
	}
	if !isSupportedCommand(req.Intent.Type) {
		return Response{}, ErrUnknownCommand
	}

	nowFn := u.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	var out Response
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		exec, err := u.CommandRepo.GetByIdempotencyKey(txCtx, req.GuildID, req.IdempotencyKey)
		if err == nil && exec != nil {
			out = Response{
				OK:      exec.Result.OK,
				Message: exec.Result.Message,
				Result:  exec.Result.Result,
				Events:  exec.Result.Events,
			}
			return nil
		}
		if err != nil && !errors.Is(err, ports.ErrNotFound) {
			return err
		}

		state, err := u.StateRepo.GetByGuildID(txCtx, req.GuildID)
		if err != nil {
			return err
		}
		expected := state.Version
		now := nowFn()

		out = u.apply(&state, req.Intent, now)

		// A rejection mutates nothing, so only accepted commands write the
		// aggregate back.
		if out.OK {
			state.Version++
			state.UpdatedAt = now
			if err := u.StateRepo.SaveWithVersion(txCtx, state, expected); err != nil {
				return err
			}
		}

		execution := ports.CommandExecutionRecord{
			GuildID:        req.GuildID,
			IdempotencyKey: req.IdempotencyKey,
			CommandType:    string(req.Intent.Type),
			Result: ports.CommandResult{
				OK:      out.OK,
				Message: out.Message,
				Result:  out.Result,
				Events:  out.Events,
			},
			AppliedAt: now,
		}
		if err := u.CommandRepo.SaveExecution(txCtx, execution); err != nil {
			return err
		}
		return u.EventRepo.Append(txCtx, req.GuildID, out.Events)
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
		u.Metrics.RecordCommand(string(req.Intent.Type), out.OK)
	}
	return out, nil
}

func (u UseCase) apply(state *guild.State, intent Intent, now time.Time) Response {
	switch intent.Type {
	case CommandAssignParty:
		ok, msg := u.Machine.AssignParty(state, intent.QuestID, intent.HeroIDs, intent.Mods)
		return Response{OK: ok, Message: msg}

	case CommandExecuteQuest:
		result, heroes, events := u.Machine.ExecuteQuest(state, intent.QuestID, now)
		if heroes == nil {
			if len(events) > 0 {
				return Response{OK: false, Message: "quest has a stale hero reference", Events: events}
			}
			return Response{OK: false, Message: "quest is not awaiting execution"}
		}
		return Response{OK: true, Result: result, Events: events}

	case CommandStartReturn:
		result, events := u.Machine.StartReturn(state, intent.QuestID, now)
		if result == nil {
			return Response{OK: false, Message: "quest is not awaiting its reward claim"}
		}
		return Response{OK: true, Result: result, Events: events}

	case CommandRetreat:
		ok, msg, events := u.Machine.Retreat(state, intent.QuestID, now)
		return Response{OK: ok, Message: msg, Events: events}

	case CommandDisbandParty:
		if !u.Machine.Bonds.Disband(state, intent.PartyID) {
			return Response{OK: false, Message: "no formed party with that id"}
		}
		return Response{OK: true, Message: "party disbanded"}

	case CommandReplaceMember:
		party := u.Machine.Bonds.PartyByID(state, intent.PartyID)
		if party == nil {
			return Response{OK: false, Message: "no party with that id"}
		}
		hero, found := state.Registry.Get(intent.HeroID)
		if !found {
			return Response{OK: false, Message: "unknown hero"}
		}
		ok, msg := u.Machine.Bonds.AddMember(state, party, hero)
		if msg == "" {
			msg = "member added; slot must re-qualify"
		}
		return Response{OK: ok, Message: msg}
	}
	return Response{OK: false, Message: "unknown command"}
}

func isSupportedCommand(t CommandType) bool {
	switch t {
	case CommandAssignParty, CommandExecuteQuest, CommandStartReturn,
		CommandRetreat, CommandDisbandParty, CommandReplaceMember:
		return true
	default:
		return false
	}
}
