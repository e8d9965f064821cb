package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/longevity-agent/server/internal/agent/graph"
	"github.com/longevity-agent/server/internal/agent/graph/tools"
	"github.com/longevity-agent/server/internal/agent/llm"
	"github.com/longevity-agent/server/internal/agent/model"
	"github.com/longevity-agent/server/internal/agent/repo"
	"github.com/longevity-agent/server/internal/core"
	"github.com/longevity-agent/server/internal/server"
	"github.com/longevity-agent/server/pkg/config"
	logx "github.com/longevity-agent/server/pkg/logger"
	pkgredis "github.com/longevity-agent/server/pkg/redis"
)

// AppConfig defines all configurable parameters, sourced from environment
// variables (loaded from .env or -env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	Log         logx.Config

	// Infrastructure
	Redis   pkgredis.Config
	History model.HistoryConfig
	Server  model.ServerConfig

	// LLM provider and models
	LLM     model.LLMConfig
	Router  model.RouterModelConfig
	General model.GeneralModelConfig

	Tools model.ToolConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.MustNew[AppConfig]("")
	logx.Init(logx.LoggerOpts{
		Environment: core.ParseEnvironment(cfg.Environment),
		Config:      cfg.Log,
	})

	historyRepo, closeRepo, err := newHistoryRepository(ctx, cfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise history repository")
	}
	defer closeRepo()

	researchTools := tools.GetResearchTools(cfg.Tools.SimulatedLatency)
	toolInfos, err := tools.GetToolInfos(ctx, researchTools)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to get tool infos")
	}
	executor, err := tools.NewExecutor(ctx, researchTools)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build tool executor")
	}
	biomarker, err := executor.Tool(tools.ToolAgingBiomarker)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to bind biomarker tool")
	}
	clinicalTrial, err := executor.Tool(tools.ToolClinicalTrial)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to bind clinical trial tool")
	}

	cms, err := llm.NewChatModels(ctx, llm.ChatModelConfig{
		LLM:     cfg.LLM,
		Router:  &cfg.Router,
		General: &cfg.General,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to create chat models")
	}
	assistant, err := llm.NewAssistant(ctx, llm.AssistantConfig{
		ChatModels:     cms,
		ToolInfos:      toolInfos,
		GeneralTimeout: cfg.General.Timeout,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to create assistant")
	}

	runner, err := graph.BuildResponseGraph(ctx, graph.Config{
		Classifier:    assistant,
		Answerer:      assistant,
		Biomarker:     biomarker,
		ClinicalTrial: clinicalTrial,
		HistoryRepo:   historyRepo,
		History:       cfg.History,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build graph")
	}

	srv := server.New(cfg.Server, runner)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		if err != nil {
			logx.Error().Err(err).Msg("Server stopped")
		}
	case <-ctx.Done():
		logx.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logx.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}
}

func newHistoryRepository(ctx context.Context, cfg *AppConfig) (model.HistoryRepository, func(), error) {
	switch cfg.History.Backend {
	case "memory":
		logx.Warn().Msg("Using in-memory chat history; history is lost on restart")
		return repo.NewMemoryHistoryRepository(cfg.History.TTL), func() {}, nil
	case "redis", "":
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, nil, err
		}
		logx.Info().Msg("Connected to Redis successfully")
		return repo.NewRedisHistoryRepository(rdb, cfg.History.TTL), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, errors.New("unsupported HISTORY_BACKEND " + cfg.History.Backend)
	}
}
