package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"guildhall/internal/adapter/repo/gorm/model"
	"guildhall/internal/app/ports"
	"guildhall/internal/domain/guild"

	"gorm.io/gorm"
)

type GuildStateRepo struct {
	db *gorm.DB
}

func NewGuildStateRepo(db *gorm.DB) GuildStateRepo {
	return GuildStateRepo{db: db}
}

func (r GuildStateRepo) GetByGuildID(ctx context.Context, guildID string) (guild.State, error) {
	var m model.GuildState
	if err := getDBFromCtx(ctx, r.db).Where("guild_id = ?", guildID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return guild.State{}, ports.ErrNotFound
		}
		return guild.State{}, err
	}

	state := guild.State{
		GuildID:   m.GuildID,
		Registry:  guild.NewRegistry(),
		Version:   m.Version,
		UpdatedAt: m.UpdatedAt,
	}
	if len(m.Registry) > 0 {
		if err := json.Unmarshal(m.Registry, &state.Registry); err != nil {
			return guild.State{}, fmt.Errorf("decode registry for %s: %w", guildID, err)
		}
	}
	if len(m.Quests) > 0 {
		if err := json.Unmarshal(m.Quests, &state.Quests); err != nil {
			return guild.State{}, fmt.Errorf("decode quests for %s: %w", guildID, err)
		}
	}
	if len(m.Bonds) > 0 {
		if err := json.Unmarshal(m.Bonds, &state.Bonds); err != nil {
			return guild.State{}, fmt.Errorf("decode bonds for %s: %w", guildID, err)
		}
	}
	if state.Registry.Heroes == nil {
		state.Registry.Heroes = map[string]*guild.Hero{}
	}
	return state, nil
}

func (r GuildStateRepo) SaveWithVersion(ctx context.Context, state guild.State, expectedVersion int64) error {
	registry, err := json.Marshal(state.Registry)
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	quests, err := json.Marshal(state.Quests)
	if err != nil {
		return fmt.Errorf("encode quests: %w", err)
	}
	bonds, err := json.Marshal(state.Bonds)
	if err != nil {
		return fmt.Errorf("encode bonds: %w", err)
	}

	db := getDBFromCtx(ctx, r.db)
	if expectedVersion == 0 {
		m := model.GuildState{
			GuildID:   state.GuildID,
			Registry:  registry,
			Quests:    quests,
			Bonds:     bonds,
			Version:   state.Version,
			UpdatedAt: state.UpdatedAt,
		}
		return db.Create(&m).Error
	}

	updates := map[string]any{
		"registry":   registry,
		"quests":     quests,
		"bonds":      bonds,
		"version":    state.Version,
		"updated_at": state.UpdatedAt,
	}
	res := db.Model(&model.GuildState{}).
		Where("guild_id = ? AND version = ?", state.GuildID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrConflict
	}
	return nil
}
