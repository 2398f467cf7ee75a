package main

import (
	"context"
	"errors"
	"time"

	httpadapter "guildhall/internal/adapter/http"
	metricsinmem "guildhall/internal/adapter/metrics/inmemory"
	gormrepo "guildhall/internal/adapter/repo/gorm"
	memoryrepo "guildhall/internal/adapter/repo/memory"
	"guildhall/internal/app/command"
	"guildhall/internal/app/ports"
	"guildhall/internal/app/preview"
	"guildhall/internal/app/status"
	"guildhall/internal/app/tick"
	"guildhall/internal/config"
	"guildhall/internal/domain/guild"
	"guildhall/internal/platform/random"

	"github.com/cloudwego/hertz/pkg/app/server"
	"go.uber.org/zap"
)

func main() {
	logger := zap.Must(zap.NewProduction())
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed, err = random.NewSeed()
		if err != nil {
			logger.Fatal("generate seed", zap.Error(err))
		}
	}
	rnd := guild.NewRand(seed)
	scheduler := guild.NewScheduler(rnd)

	stateRepo, commandRepo, eventRepo, txManager := mustBuildRepos(cfg, logger)
	seedDemoGuild(stateRepo, cfg.DemoGuildID, logger)
	kpi := metricsinmem.NewRecorder()

	h := httpadapter.Handler{
		TickUC: tick.UseCase{
			TxManager: txManager,
			StateRepo: stateRepo,
			EventRepo: eventRepo,
			Metrics:   kpi,
			Scheduler: scheduler,
			Now:       time.Now,
		},
		CommandUC: command.UseCase{
			TxManager:   txManager,
			StateRepo:   stateRepo,
			CommandRepo: commandRepo,
			EventRepo:   eventRepo,
			Metrics:     kpi,
			Machine:     scheduler.Machine,
			Now:         time.Now,
		},
		StatusUC:  status.UseCase{StateRepo: stateRepo},
		PreviewUC: preview.UseCase{StateRepo: stateRepo, Machine: scheduler.Machine},
		Events:    eventRepo,
		KPI:       kpi,
		Logger:    logger,
	}

	s := server.Default(server.WithHostPorts(cfg.Addr))
	h.RegisterRoutes(s)

	logger.Info("guildhall server listening",
		zap.String("addr", cfg.Addr),
		zap.Int64("seed", seed),
		zap.String("demo_guild", cfg.DemoGuildID),
	)
	s.Spin()
}

func mustBuildRepos(cfg config.Config, logger *zap.Logger) (ports.GuildStateRepository, ports.CommandExecutionRepository, ports.EventRepository, ports.TxManager) {
	if cfg.DBDSN == "" {
		logger.Info("no database configured, using in-memory store")
		store := memoryrepo.NewStore()
		return memoryrepo.NewGuildStateRepo(store),
			memoryrepo.NewCommandExecutionRepo(store),
			memoryrepo.NewEventRepo(store),
			memoryrepo.NewTxManager(store)
	}

	db, err := gormrepo.OpenPostgres(cfg.DBDSN)
	if err != nil {
		logger.Fatal("open postgres", zap.Error(err))
	}
	if err := gormrepo.ApplyMigrations(context.Background(), db, cfg.MigrationsDir); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}
	return gormrepo.NewGuildStateRepo(db),
		gormrepo.NewCommandExecutionRepo(db),
		gormrepo.NewEventRepo(db),
		gormrepo.NewTxManager(db)
}

// seedDemoGuild creates a playable roster and quest board on first boot.
func seedDemoGuild(repo ports.GuildStateRepository, guildID string, logger *zap.Logger) {
	ctx := context.Background()
	_, err := repo.GetByGuildID(ctx, guildID)
	if err == nil {
		return
	}
	if !errors.Is(err, ports.ErrNotFound) {
		logger.Fatal("load demo guild", zap.Error(err))
	}

	state := guild.State{
		GuildID:  guildID,
		Registry: guild.NewRegistry(),
		Version:  1,
	}
	heroes := []*guild.Hero{
		{ID: "hero-asha", Name: "Asha", Class: guild.ClassWarrior, Rank: guild.RankC, Level: 5, Stats: guild.Stats{Strength: 14, Agility: 8, Vitality: 12, Luck: 4}},
		{ID: "hero-brin", Name: "Brin", Class: guild.ClassMage, Rank: guild.RankC, Level: 5, Stats: guild.Stats{Magic: 16, Agility: 6, Vitality: 7, Luck: 6}},
		{ID: "hero-cole", Name: "Cole", Class: guild.ClassRanger, Rank: guild.RankB, Level: 7, Stats: guild.Stats{Strength: 9, Agility: 15, Vitality: 9, Luck: 8}},
		{ID: "hero-dara", Name: "Dara", Class: guild.ClassGuardian, Rank: guild.RankB, Level: 7, Stats: guild.Stats{Strength: 11, Agility: 5, Vitality: 18, Luck: 3}, ReviveCharm: true},
		{ID: "hero-edda", Name: "Edda", Class: guild.ClassCleric, Rank: guild.RankD, Level: 3, Stats: guild.Stats{Magic: 12, Agility: 7, Vitality: 8, Luck: 9}},
	}
	for _, h := range heroes {
		if err := state.Registry.Add(h); err != nil {
			logger.Fatal("seed hero", zap.String("hero", h.ID), zap.Error(err))
		}
	}
	state.Quests = []*guild.Quest{
		{
			ID: "quest-caravan", Name: "Escort the salt caravan", Rank: guild.RankC,
			Combat: true, TravelTime: 30, ExecTime: 60, ReturnTime: 30,
			GoldReward: 220, XPReward: 400, Phase: guild.PhaseAvailable,
		},
		{
			ID: "quest-mine", Name: "Purge the flooded mine", Rank: guild.RankB,
			Combat: true, IsDungeon: true, FloorCount: 4,
			TravelTime: 45, ExecTime: 120, ReturnTime: 45,
			GoldReward: 600, XPReward: 900, Phase: guild.PhaseAvailable,
		},
		{
			ID: "quest-herbs", Name: "Gather moonpetal herbs", Rank: guild.RankE,
			TravelTime: 20, ExecTime: 40, ReturnTime: 20,
			GoldReward: 60, XPReward: 90, Phase: guild.PhaseAvailable,
		},
	}

	if err := repo.SaveWithVersion(ctx, state, 0); err != nil {
		logger.Fatal("seed demo guild", zap.Error(err))
	}
	logger.Info("seeded demo guild", zap.String("guild_id", guildID))
}
