package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/empowering-agents/server/internal/agent/goals"
	"github.com/empowering-agents/server/internal/agent/graph/nodes"
	"github.com/empowering-agents/server/internal/agent/memory"
	"github.com/empowering-agents/server/internal/agent/model"
	"github.com/empowering-agents/server/internal/agent/personas"
	"github.com/empowering-agents/server/internal/agent/planning"
	"github.com/empowering-agents/server/internal/agent/repo"
	"github.com/empowering-agents/server/internal/agent/runtime"
	"github.com/empowering-agents/server/internal/core"
	"github.com/empowering-agents/server/internal/httpapi"
	"github.com/empowering-agents/server/internal/integrations/analytics"
	"github.com/empowering-agents/server/internal/integrations/calendar"
	"github.com/empowering-agents/server/internal/integrations/crm"
	"github.com/empowering-agents/server/internal/observability"
	logx "github.com/empowering-agents/server/pkg/logger"
	pkgredis "github.com/empowering-agents/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the server, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	Addr        string `envconfig:"HTTP_ADDR" default:":8080"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	Provider model.ProviderConfig
	Intent   model.IntentModelConfig
	Response model.ResponseModelConfig

	// Agent configs
	Memory    model.MemoryConfig
	Calendar  model.CalendarConfig
	Planning  model.PlanningConfig
	Analytics model.AnalyticsConfig
	CRM       model.CRMConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	env := core.ParseEnvironment(cfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env})

	memRepo, closeRepo, err := buildMemoryRepository(cfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise memory repository")
	}
	defer closeRepo()

	store := memory.NewStore(memRepo)
	tracker := goals.NewTracker()
	metrics := observability.NewMetrics("agentd")
	sink := analytics.NewSink(cfg.Analytics.Path)
	contacts := crm.NewStore(cfg.CRM.Path)
	hints := planning.LoadHints(cfg.Planning.HintsPath)

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		Provider:     cfg.Provider,
		IntentConfig: &cfg.Intent,
		RespConfig:   &cfg.Response,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise chat models")
	}

	var calSvc calendar.Service
	calendarOn := false
	if cfg.Calendar.Enabled {
		calSvc, err = calendar.NewClient(ctx, cfg.Calendar.TokenPath, cfg.Calendar.TimeZone)
		if err != nil {
			logx.Warn().Err(err).Msg("calendar integration unavailable, scheduling will use local suggestions")
		} else {
			calendarOn = true
		}
	}

	agents := map[string]httpapi.InteractionAgent{}
	for _, p := range personas.All() {
		agent, err := runtime.New(ctx, runtime.Config{
			Persona:    p,
			ChatModels: cms,
			Memory:     store,
			Goals:      tracker,
			Calendar:   calSvc,
			CalendarOn: calendarOn,
			TimeZone:   cfg.Calendar.TimeZone,
			Analytics:  sink,
			CRM:        contacts,
			Metrics:    metrics,
			Hints:      hints,
		})
		if err != nil {
			logx.Fatal().Err(err).Str("persona", p.Profile().ID).Msg("failed to build agent")
		}
		agents[p.Profile().ID] = agent
	}

	server := httpapi.New(agents, metrics)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logx.Info().Str("addr", cfg.Addr).Str("environment", string(env)).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("graceful shutdown failed")
	}
	logx.Info().Msg("server stopped")
}

// buildMemoryRepository prefers Redis when configured and falls back to the
// local file store otherwise.
func buildMemoryRepository(cfg AppConfig) (model.MemoryRepository, func(), error) {
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New()
		if err != nil {
			return nil, nil, err
		}
		ttl, err := time.ParseDuration(cfg.Memory.TTL)
		if err != nil {
			rdb.Close()
			return nil, nil, err
		}
		logx.Info().Msg("using Redis memory repository")
		return repo.NewRedisMemoryRepository(rdb, ttl), func() { rdb.Close() }, nil
	}

	fileRepo, err := repo.NewFileMemoryRepository(cfg.Memory.Dir)
	if err != nil {
		return nil, nil, err
	}
	logx.Info().Str("dir", cfg.Memory.Dir).Msg("using file memory repository")
	return fileRepo, func() {}, nil
}
