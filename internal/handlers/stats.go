// internal/handlers/stats.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/rmehta/truthdare/internal/database"
	"github.com/rmehta/truthdare/internal/models"
)

// StatsReader serves the read-only reporting queries behind the HTTP API.
type StatsReader interface {
	RoomStats(ctx context.Context, roomID int64) (*models.RoomStats, error)
	UserStats(ctx context.Context, userID int64) (*models.UserStats, error)
}

// RoomStatsHandler serves GET /stats/room/{room_id} as JSON.
// Unknown rooms yield 404, query failures 500.
func RoomStatsHandler(reader StatsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		roomID, err := pathID(r.URL.Path, "/stats/room/")
		if err != nil {
			http.Error(w, "invalid room id", http.StatusBadRequest)
			return
		}
		st, err := reader.RoomStats(r.Context(), roomID)
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "no stats recorded for this room", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Errorf("room stats query failed for %d: %v", roomID, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, st)
	}
}

// UserStatsHandler serves GET /stats/user/{user_id} as JSON.
func UserStatsHandler(reader StatsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, err := pathID(r.URL.Path, "/stats/user/")
		if err != nil {
			http.Error(w, "invalid user id", http.StatusBadRequest)
			return
		}
		st, err := reader.UserStats(r.Context(), userID)
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "no stats recorded for this user", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Errorf("user stats query failed for %d: %v", userID, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, st)
	}
}

// HealthHandler reports liveness.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	}
}

// pathID extracts the trailing numeric id from a path like /stats/room/{id}.
func pathID(path, prefix string) (int64, error) {
	raw := strings.TrimSuffix(strings.TrimPrefix(path, prefix), "/")
	if raw == "" || strings.Contains(raw, "/") {
		return 0, errors.New("missing id segment")
	}
	return strconv.ParseInt(raw, 10, 64)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
