package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"guildhall/internal/adapter/repo/gorm/model"
	"guildhall/internal/app/ports"

	"gorm.io/gorm"
)

type CommandExecutionRepo struct {
	db *gorm.DB
}

func NewCommandExecutionRepo(db *gorm.DB) CommandExecutionRepo {
	return CommandExecutionRepo{db: db}
}

func (r CommandExecutionRepo) GetByIdempotencyKey(ctx context.Context, guildID, key string) (*ports.CommandExecutionRecord, error) {
	var m model.CommandExecution
	err := getDBFromCtx(ctx, r.db).
		Where("guild_id = ? AND idempotency_key = ?", guildID, key).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}

	record := ports.CommandExecutionRecord{
		GuildID:        m.GuildID,
		IdempotencyKey: m.IdempotencyKey,
		CommandType:    m.CommandType,
		AppliedAt:      m.AppliedAt,
	}
	if len(m.Result) > 0 {
		if err := json.Unmarshal(m.Result, &record.Result); err != nil {
			return nil, fmt.Errorf("decode command result: %w", err)
		}
	}
	return &record, nil
}

func (r CommandExecutionRepo) SaveExecution(ctx context.Context, execution ports.CommandExecutionRecord) error {
	result, err := json.Marshal(execution.Result)
	if err != nil {
		return fmt.Errorf("encode command result: %w", err)
	}
	m := model.CommandExecution{
		GuildID:        execution.GuildID,
		IdempotencyKey: execution.IdempotencyKey,
		CommandType:    execution.CommandType,
		Result:         result,
		AppliedAt:      execution.AppliedAt,
	}
	return getDBFromCtx(ctx, r.db).Create(&m).Error
}
