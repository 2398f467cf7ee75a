package preview

import (
	"context"
	"errors"
	"strings"

	"guildhall/internal/app/ports"
	"guildhall/internal/domain/guild"
)

var ErrInvalidRequest = errors.New("invalid preview request")

type Request struct {
	GuildID string   `json:"guild_id"`
	QuestID string   `json:"quest_id"`
	HeroIDs []string `json:"hero_ids"`
}

type Response struct {
	SuccessChance float64     `json:"success_chance"`
	PartyPower    int         `json:"party_power"`
	StatTotals    guild.Stats `json:"stat_totals"`
	FormedParty   bool        `json:"formed_party"`
}

// UseCase estimates how a candidate hero set would fare on a quest. It is
// read-only: no draw is made, no version is bumped.
type UseCase struct {
	StateRepo ports.GuildStateRepository
	Machine   guild.Machine
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	req.GuildID = strings.TrimSpace(req.GuildID)
	if req.GuildID == "" || req.QuestID == "" || len(req.HeroIDs) == 0 {
		return Response{}, ErrInvalidRequest
	}

	state, err := u.StateRepo.GetByGuildID(ctx, req.GuildID)
	if err != nil {
		return Response{}, err
	}
	q := state.Quest(req.QuestID)
	if q == nil {
		return Response{}, ports.ErrNotFound
	}
	heroes, err := state.Registry.Lookup(req.HeroIDs)
	if err != nil {
		return Response{}, ports.ErrNotFound
	}

	var totals guild.Stats
	for _, h := range heroes {
		totals = totals.Add(h.Stats)
	}

	luck := 0.0
	formed := u.Machine.Bonds.FormedParty(&state, heroes) != nil
	if formed {
		luck = guild.FormedPartyLuckBonus
	}
	return Response{
		SuccessChance: u.Machine.Resolver.SuccessChance(q, heroes, luck),
		PartyPower:    totals.Power(),
		StatTotals:    totals,
		FormedParty:   formed,
	}, nil
}
