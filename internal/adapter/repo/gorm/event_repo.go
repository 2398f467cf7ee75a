package gormrepo

import (
	"context"
	"encoding/json"

	"guildhall/internal/adapter/repo/gorm/model"
	"guildhall/internal/app/ports"
	"guildhall/internal/domain/guild"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) EventRepo {
	return EventRepo{db: db}
}

func (r EventRepo) Append(ctx context.Context, guildID string, events []guild.OutcomeEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]model.OutcomeEvent, 0, len(events))
	for _, e := range events {
		b, _ := json.Marshal(e.Payload)
		rows = append(rows, model.OutcomeEvent{
			GuildID:    guildID,
			QuestID:    e.QuestID,
			HeroID:     e.HeroID,
			Type:       e.Type,
			OccurredAt: e.OccurredAt,
			Payload:    b,
		})
	}
	return getDBFromCtx(ctx, r.db).Create(&rows).Error
}

func (r EventRepo) ListByGuildID(ctx context.Context, guildID string, limit int) ([]guild.OutcomeEvent, error) {
	rows := []model.OutcomeEvent{}
	query := getDBFromCtx(ctx, r.db).
		Where(&model.OutcomeEvent{GuildID: guildID}).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "id"}, Desc: true}},
		})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ports.ErrNotFound
	}

	out := make([]guild.OutcomeEvent, 0, len(rows))
	for _, row := range rows {
		var payload map[string]any
		if len(row.Payload) > 0 {
			_ = json.Unmarshal(row.Payload, &payload)
		}
		out = append(out, guild.OutcomeEvent{
			Type:       row.Type,
			QuestID:    row.QuestID,
			HeroID:     row.HeroID,
			OccurredAt: row.OccurredAt,
			Payload:    payload,
		})
	}
	return out, nil
}
