package handlers

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"log"
	"math/big"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/bigtwo-arena/bigtwo-server/internal/auth"
	"github.com/bigtwo-arena/bigtwo-server/internal/game"
	"github.com/bigtwo-arena/bigtwo-server/internal/models"
	"github.com/bigtwo-arena/bigtwo-server/internal/repository"
)

const (
	roomCodeChars    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLen      = 6
	leaderboardKey   = "leaderboard:top"
	leaderboardTTL   = 30 * time.Second
	leaderboardLimit = 100
	historyLimit     = 20
)

type GameHandler struct {
	registry *game.Registry
	gameRepo *repository.GameRepo
	userRepo *repository.UserRepo
	rdb      *redis.Client
}

func NewGameHandler(registry *game.Registry, gameRepo *repository.GameRepo, userRepo *repository.UserRepo, rdb *redis.Client) *GameHandler {
	return &GameHandler{
		registry: registry,
		gameRepo: gameRepo,
		userRepo: userRepo,
		rdb:      rdb,
	}
}

type createGameRequest struct {
	AIEnabled   *bool `json:"ai_enabled"`
	TurnTimeout int   `json:"turn_timeout_ms"`
}

func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r)
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req createGameRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	settings := models.GameSettings{AIEnabled: true, TurnTimeout: 60000}
	if req.AIEnabled != nil {
		settings.AIEnabled = *req.AIEnabled
	}
	if req.TurnTimeout > 0 {
		settings.TurnTimeout = req.TurnTimeout
	}

	roomCode, err := h.uniqueRoomCode(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create game"})
		return
	}

	sess := models.NewGameSession(roomCode, claims.UserID, claims.Username, settings)
	h.registry.Put(sess)
	if err := h.gameRepo.SaveState(r.Context(), sess); err != nil {
		h.registry.Delete(roomCode)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create game"})
		return
	}

	log.Printf("game %s created by %s", roomCode, claims.Username)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"room_code": roomCode,
		"settings":  settings,
	})
}

func (h *GameHandler) uniqueRoomCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code := make([]byte, roomCodeLen)
		for i := range code {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(roomCodeChars))))
			if err != nil {
				return "", err
			}
			code[i] = roomCodeChars[n.Int64()]
		}
		roomCode := string(code)

		if h.registry.Get(roomCode) != nil {
			continue
		}
		existing, err := h.gameRepo.LoadState(ctx, roomCode)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return roomCode, nil
		}
	}
	return "", errors.New("could not generate a free room code")
}

func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	infos := h.registry.ListInfos()
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"games": infos,
		"total": len(infos),
	})
}

func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	roomCode := mux.Vars(r)["roomCode"]

	sess := h.registry.Get(roomCode)
	if sess == nil {
		loaded, err := h.gameRepo.LoadState(r.Context(), roomCode)
		if err != nil || loaded == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "game not found"})
			return
		}
		sess = loaded
	}

	sess.Lock()
	resp := map[string]interface{}{
		"room_code":      sess.RoomCode,
		"status":         sess.Status,
		"players":        sess.PlayerInfos(),
		"round":          sess.Round,
		"scores":         sess.Scores,
		"current_player": sess.CurrentPlayer,
		"created_at":     sess.CreatedAt,
	}
	sess.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (h *GameHandler) History(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r)
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	records, err := h.gameRepo.History(r.Context(), claims.UserID, historyLimit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load history"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": records,
		"total":   len(records),
	})
}

// Leaderboard serves the top players, cached in redis for a short TTL so the
// query doesn't hit Postgres on every request.
func (h *GameHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cached, err := h.rdb.Get(ctx, leaderboardKey).Bytes(); err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(cached)
		return
	}

	profiles, err := h.userRepo.Leaderboard(ctx, leaderboardLimit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load leaderboard"})
		return
	}

	body, err := json.Marshal(map[string]interface{}{"leaderboard": profiles})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if err := h.rdb.Set(ctx, leaderboardKey, body, leaderboardTTL).Err(); err != nil {
		log.Printf("failed to cache leaderboard: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
