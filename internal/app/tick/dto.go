package tick

import "guildhall/internal/domain/guild"

type Request struct {
	GuildID      string  `json:"guild_id"`
	DeltaSeconds float64 `json:"dt_seconds"`
}

type Response struct {
	Events  []guild.OutcomeEvent `json:"events"`
	Version int64                `json:"version"`
}
