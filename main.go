package main

import (
	"context"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/task-manager/config"
	"github.com/example/task-manager/modules/api"
	"github.com/example/task-manager/modules/board"
	"github.com/example/task-manager/modules/cache"
	"github.com/example/task-manager/modules/task"
)

func main() {
	log.Println("=== Task Manager ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := mono.LogLevelInfo
	if cfg.LogLevel == "error" {
		logLevel = mono.LogLevelError
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	// A nil interface, not a nil *cache.Cache, disables list caching.
	var listCache task.ListCache
	if cfg.CacheEnabled() {
		cacheModule := cache.NewModule(cfg.RedisAddr, cfg.CachePrefix, cfg.CacheTTL)
		listCache = cacheModule.GetCache()
		app.Register(cacheModule)
	} else {
		log.Println("TASKMGR_REDIS_ADDR not set, running without list cache")
	}

	boardModule := board.NewModule(cfg.GraceWindow, logger.WithModule("board"))

	app.Register(task.NewModule(cfg.DBPath, cfg.DBDebug, listCache))
	app.Register(boardModule)
	app.Register(api.NewModule(cfg.HTTPPort, boardModule, logger.WithModule("api")))

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	logger.Info("Application started",
		"http_port", cfg.HTTPPort,
		"db_path", cfg.DBPath,
		"cache", cfg.CacheEnabled(),
	)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}
