// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/rmehta/truthdare/internal/auth"
	"github.com/rmehta/truthdare/internal/config"
	"github.com/rmehta/truthdare/internal/database"
	"github.com/rmehta/truthdare/internal/dispatch"
	"github.com/rmehta/truthdare/internal/game"
	"github.com/rmehta/truthdare/internal/handlers"
	"github.com/rmehta/truthdare/internal/messenger"
	"github.com/rmehta/truthdare/internal/middleware"
	"github.com/rmehta/truthdare/internal/stats"
	"github.com/rmehta/truthdare/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	if cfg.BridgePrivateKeyFile != "" {
		err = auth.InitFromPath(cfg.BridgePrivateKeyFile, cfg.BridgePublicKeyFile)
	} else {
		err = auth.Init()
	}
	if err != nil {
		logger.Fatalf("bridge auth init: %v", err)
	}

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer db.Close()

	var sessions store.SessionStore
	switch cfg.SessionBackend {
	case "memory":
		logger.Warn("using in-memory session store, sessions will not survive a restart")
		sessions = store.NewMemoryStore()
	default:
		rs, err := store.NewRedisStore(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rs.Close()
		sessions = rs
	}

	bank := game.LoadQuestionBank(cfg.DataDir)
	engine := game.NewEngine(sessions, bank)
	agg := stats.NewAggregator(db)

	gateway := messenger.NewGateway(logger, db)
	dispatcher := dispatch.NewDispatcher(engine, agg, db, gateway, logger)
	gateway.SetHandler(dispatcher.Handle)

	mux := http.NewServeMux()
	mux.Handle("/bridge/ws", gateway.Handler())
	mux.Handle("/healthz", middleware.LogMiddleware(logger)(handlers.HealthHandler()))

	logger.Infof("Running on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
