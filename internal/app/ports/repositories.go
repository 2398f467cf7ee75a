package ports

import (
	"context"
	"time"

	"guildhall/internal/domain/guild"
)

// CommandResult is the recorded response of a player command; replayed
// idempotency keys return it verbatim.
type CommandResult struct {
	OK      bool                 `json:"ok"`
	Message string               `json:"message,omitempty"`
	Result  *guild.QuestResult   `json:"result,omitempty"`
	Events  []guild.OutcomeEvent `json:"events,omitempty"`
}

type CommandExecutionRecord struct {
	GuildID        string
	IdempotencyKey string
	CommandType    string
	Result         CommandResult
	AppliedAt      time.Time
}

type GuildStateRepository interface {
	GetByGuildID(ctx context.Context, guildID string) (guild.State, error)
	SaveWithVersion(ctx context.Context, state guild.State, expectedVersion int64) error
}

type CommandExecutionRepository interface {
	GetByIdempotencyKey(ctx context.Context, guildID, key string) (*CommandExecutionRecord, error)
	SaveExecution(ctx context.Context, execution CommandExecutionRecord) error
}

type EventRepository interface {
	Append(ctx context.Context, guildID string, events []guild.OutcomeEvent) error
	ListByGuildID(ctx context.Context, guildID string, limit int) ([]guild.OutcomeEvent, error)
}
