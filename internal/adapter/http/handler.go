package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"guildhall/internal/app/command"
	"guildhall/internal/app/ports"
	"guildhall/internal/app/preview"
	"guildhall/internal/app/status"
	"guildhall/internal/app/tick"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"
)

type Handler struct {
	TickUC    tick.UseCase
	CommandUC command.UseCase
	StatusUC  status.UseCase
	PreviewUC preview.UseCase
	Events    ports.EventRepository
	KPI       kpiSnapshotProvider
	Logger    *zap.Logger
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware())
	if h.Logger != nil {
		s.Use(accessLogMiddleware(h.Logger))
	}

	g := s.Group("/api/guild")
	g.POST("/tick", h.tick)
	g.POST("/command", h.command)
	g.POST("/status", h.status)
	g.POST("/preview", h.preview)
	g.GET("/events", h.events)

	s.GET("/ops/kpi", h.kpi)
}

func (h Handler) tick(c context.Context, ctx *app.RequestContext) {
	var body tick.Request
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.TickUC.Execute(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) command(c context.Context, ctx *app.RequestContext) {
	var body command.Request
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.CommandUC.Execute(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) status(c context.Context, ctx *app.RequestContext) {
	var body status.Request
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.StatusUC.Execute(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) preview(c context.Context, ctx *app.RequestContext) {
	var body preview.Request
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.PreviewUC.Execute(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) events(c context.Context, ctx *app.RequestContext) {
	guildID := strings.TrimSpace(string(ctx.Query("guild_id")))
	if guildID == "" {
		writeErrorBody(ctx, consts.StatusBadRequest, "missing_guild_id", "guild_id is required")
		return
	}
	limit, _ := strconv.Atoi(string(ctx.Query("limit")))
	events, err := h.Events.ListByGuildID(c, guildID, limit)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"events": events})
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, "conflict", err.Error())
	case errors.Is(err, tick.ErrInvalidRequest),
		errors.Is(err, command.ErrInvalidRequest),
		errors.Is(err, command.ErrUnknownCommand),
		errors.Is(err, status.ErrInvalidRequest),
		errors.Is(err, preview.ErrInvalidRequest):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeErrorBody(ctx *app.RequestContext, statusCode int, code, message string) {
	ctx.JSON(statusCode, map[string]any{
		"error":   code,
		"message": message,
	})
}
