package command

import "guildhall/internal/domain/guild"

type CommandType string

const (
	CommandAssignParty   CommandType = "assign_party"
	CommandExecuteQuest  CommandType = "execute_quest"
	CommandStartReturn   CommandType = "start_return"
	CommandRetreat       CommandType = "retreat"
	CommandDisbandParty  CommandType = "disband_party"
	CommandReplaceMember CommandType = "replace_member"
)

// Intent is the closed union of player commands. Only the fields relevant to
// the command type are read.
type Intent struct {
	Type    CommandType     `json:"type"`
	QuestID string          `json:"quest_id,omitempty"`
	HeroIDs []string        `json:"hero_ids,omitempty"`
	HeroID  string          `json:"hero_id,omitempty"`
	PartyID string          `json:"party_id,omitempty"`
	Mods    guild.Modifiers `json:"mods,omitempty"`
}

type Request struct {
	GuildID        string `json:"guild_id"`
	IdempotencyKey string `json:"idempotency_key"`
	Intent         Intent `json:"intent"`
}

type Response struct {
	OK      bool                 `json:"ok"`
	Message string               `json:"message,omitempty"`
	Result  *guild.QuestResult   `json:"result,omitempty"`
	Events  []guild.OutcomeEvent `json:"events,omitempty"`
}
