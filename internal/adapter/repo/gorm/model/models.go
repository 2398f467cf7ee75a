package model

import "time"

// GuildState persists the whole aggregate as JSONB blobs plus the optimistic
// version column the repositories compare against.
type GuildState struct {
	GuildID   string    `gorm:"column:guild_id;primaryKey"`
	Registry  []byte    `gorm:"column:registry;type:jsonb"`
	Quests    []byte    `gorm:"column:quests;type:jsonb"`
	Bonds     []byte    `gorm:"column:bonds;type:jsonb"`
	Version   int64     `gorm:"column:version"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (GuildState) TableName() string { return "guild_states" }

type CommandExecution struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	GuildID        string    `gorm:"column:guild_id;uniqueIndex:idx_guild_idem,priority:1"`
	IdempotencyKey string    `gorm:"column:idempotency_key;uniqueIndex:idx_guild_idem,priority:2"`
	CommandType    string    `gorm:"column:command_type"`
	Result         []byte    `gorm:"column:result;type:jsonb"`
	AppliedAt      time.Time `gorm:"column:applied_at"`
}

func (CommandExecution) TableName() string { return "command_executions" }

type OutcomeEvent struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	GuildID    string    `gorm:"column:guild_id;index"`
	QuestID    string    `gorm:"column:quest_id"`
	HeroID     string    `gorm:"column:hero_id"`
	Type       string    `gorm:"column:type"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
	Payload    []byte    `gorm:"column:payload;type:jsonb"`
}

func (OutcomeEvent) TableName() string { return "outcome_events" }
