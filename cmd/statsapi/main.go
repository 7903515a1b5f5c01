// cmd/statsapi/main.go
package main

import (
	"context"
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/rmehta/truthdare/internal/config"
	"github.com/rmehta/truthdare/internal/database"
	"github.com/rmehta/truthdare/internal/handlers"
	"github.com/rmehta/truthdare/internal/middleware"
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

	db, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer db.Close()

	mux := http.NewServeMux()
	mux.Handle("/stats/room/", middleware.LogMiddleware(logger)(handlers.RoomStatsHandler(db)))
	mux.Handle("/stats/user/", middleware.LogMiddleware(logger)(handlers.UserStatsHandler(db)))
	mux.Handle("/healthz", handlers.HealthHandler())

	logger.Infof("Stats API running on %s", cfg.StatsAddr)
	if err := http.ListenAndServe(cfg.StatsAddr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
