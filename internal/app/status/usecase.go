package status

import (
	"context"
	"errors"
	"strings"

	"guildhall/internal/app/ports"
	"guildhall/internal/domain/guild"
)

var ErrInvalidRequest = errors.New("invalid status request")

type Request struct {
	GuildID string `json:"guild_id"`
}

type Response struct {
	State        guild.State `json:"state"`
	ActiveQuests int         `json:"active_quests"`
	IdleHeroes   int         `json:"idle_heroes"`
	FormedParty  int         `json:"formed_parties"`
	GraveyardLen int         `json:"graveyard_size"`
}

type UseCase struct {
	StateRepo ports.GuildStateRepository
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.GuildID) == "" {
		return Response{}, ErrInvalidRequest
	}
	state, err := u.StateRepo.GetByGuildID(ctx, req.GuildID)
	if err != nil {
		return Response{}, err
	}

	idle := 0
	for _, h := range state.Registry.Heroes {
		if h.Status == guild.HeroIdle {
			idle++
		}
	}
	return Response{
		State:        state,
		ActiveQuests: len(state.Quests),
		IdleHeroes:   idle,
		FormedParty:  len(state.Bonds.Formed),
		GraveyardLen: len(state.Registry.Graveyard),
	}, nil
}
