// Package main is the mcp-gateway daemon entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opencode-ai/mcp-gateway/internal/approval"
	"github.com/opencode-ai/mcp-gateway/internal/batch"
	"github.com/opencode-ai/mcp-gateway/internal/config"
	"github.com/opencode-ai/mcp-gateway/internal/logging"
	"github.com/opencode-ai/mcp-gateway/internal/queue"
	"github.com/opencode-ai/mcp-gateway/internal/scheduler"
	"github.com/opencode-ai/mcp-gateway/internal/server"
	"github.com/opencode-ai/mcp-gateway/internal/session"
	"github.com/opencode-ai/mcp-gateway/internal/storage"
	"github.com/opencode-ai/mcp-gateway/internal/storage/memory"
	"github.com/opencode-ai/mcp-gateway/internal/taskqueue"
	"github.com/opencode-ai/mcp-gateway/internal/template"
	"github.com/opencode-ai/mcp-gateway/internal/tool"
	"github.com/opencode-ai/mcp-gateway/internal/upstream"
	"github.com/opencode-ai/mcp-gateway/internal/validator"
	"github.com/opencode-ai/mcp-gateway/internal/webhook"
)

var (
	port      = flag.Int("port", 8080, "Gateway port")
	directory = flag.String("directory", "", "Working directory for config discovery")
	version   = flag.Bool("version", false, "Print version and exit")
	ephemeral = flag.Bool("memory", false, "use the ephemeral map-backed persistence profile instead of the on-disk file profile (ignored when -persistence-url/config persistenceURL is set)")
)

const buildTime = "dev"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("mcp-gatewayd %s (%s)\n", server.Version, buildTime)
		os.Exit(0)
	}

	workDir := *directory
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "get working directory: %v\n", err)
			os.Exit(1)
		}
	}

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		fmt.Fprintf(os.Stderr, "create data directories: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultConfig()
	if cfg.LogLevel != "" {
		logCfg.Level = logging.ParseLevel(cfg.LogLevel)
	}
	logCfg.Pretty = cfg.LogFormat == "pretty"
	logging.Init(logCfg)
	defer logging.Close()

	var (
		store              storage.Backend
		persistenceProfile string
	)
	switch {
	case cfg.PersistenceURL != "":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		sqlStore, err := storage.OpenSQLStorage(ctx, cfg.PersistenceURL)
		cancel()
		if err != nil {
			logging.Fatal().Err(err).Msg("open sql storage")
		}
		store = sqlStore
		persistenceProfile = "sql"
	case *ephemeral:
		store = memory.New()
		persistenceProfile = "memory"
	default:
		store = storage.New(paths.StoragePath())
		persistenceProfile = "file"
	}

	upstreamClient, err := upstream.New(cfg.Upstream, cfg.CircuitBreaker, cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("construct upstream client")
	}

	sessions := session.NewService(store, upstreamClient)
	batches := batch.NewService(sessions)
	queues := queue.NewService(sessions)
	templates := template.NewService(store, sessions)
	tasks := taskqueue.NewService(sessions)
	approvals := approval.NewChecker()

	dedup := webhook.NewDedupStore(cfg.Webhook.DedupRetention)
	webhooks := webhook.NewReceiver(cfg.Webhook, upstreamClient, sessions, dedup)

	toolReg := tool.NewRegistry()
	tool.RegisterSessionTools(toolReg, sessions)
	tool.RegisterBatchTools(toolReg, batches)
	tool.RegisterQueueTools(toolReg, queues)
	tool.RegisterTemplateTools(toolReg, templates)
	tool.RegisterTaskQueueTools(toolReg, tasks)
	tool.RegisterApprovalTools(toolReg, approvals)

	validate := validator.New()
	for _, descriptor := range toolReg.Catalog() {
		if err := validate.Register(descriptor.Name, descriptor.Parameters); err != nil {
			logging.Fatal().Err(err).Str("tool", descriptor.Name).Msg("compile tool schema")
		}
	}

	sched := scheduler.New(sessions, queues, tasks, dedup)
	schedCtx, schedCancel := context.WithCancel(context.Background())
	go sched.Run(schedCtx)

	if watcher, err := config.NewWatcher(workDir); err != nil {
		logging.Warn().Err(err).Msg("config watcher unavailable")
	} else if watcher != nil {
		watcher.Start()
		defer watcher.Stop()
	}

	srv := server.New(server.Config{
		Port:               *port,
		CORSAllowOrigins:   cfg.CORSAllowOrigins,
		RateLimit:          cfg.RateLimit,
		ShutdownTimeout:    cfg.ShutdownTimeout,
		PersistenceProfile: persistenceProfile,
	}, server.Deps{
		Sessions:  sessions,
		Batches:   batches,
		Queue:     queues,
		Templates: templates,
		Tasks:     tasks,
		Approvals: approvals,
		Tools:     toolReg,
		Validator: validate,
		Webhooks:  webhooks,
		Upstream:  upstreamClient,
	})

	go func() {
		logging.Info().Int("port", *port).Msg("gateway listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("gateway stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down")
	schedCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("gateway shutdown error")
	}

	logging.Info().Msg("stopped")
}
