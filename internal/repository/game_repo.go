package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bigtwo-arena/bigtwo-server/internal/models"
)

// GameRepo persists sessions and completed-game history. The engine treats it
// as a trailing record: each save reflects exactly one committed transition.
type GameRepo struct {
	db *sql.DB
}

func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

// slotState and sessionState are the storage shape of a session. Hands are
// persisted here even though they never appear in broadcast payloads.
type slotState struct {
	UserID    int64         `json:"user_id,omitempty"`
	Username  string        `json:"username"`
	Position  int           `json:"position"`
	IsAI      bool          `json:"is_ai"`
	Connected bool          `json:"connected"`
	Hand      []models.Card `json:"hand"`
}

type sessionState struct {
	Players             []slotState            `json:"players"`
	Settings            models.GameSettings    `json:"settings"`
	CurrentPlayer       int                    `json:"current_player"`
	Round               int                    `json:"round"`
	Scores              [models.MaxPlayers]int `json:"scores"`
	LastPlay            []models.Card          `json:"last_play,omitempty"`
	LastPlayCombination *models.Combination    `json:"last_play_combination,omitempty"`
	LastPlayPlayer      int                    `json:"last_play_player"`
	TrickStartPlayer    int                    `json:"trick_start_player"`
	Trick               []models.TrickEntry    `json:"trick,omitempty"`
	ConsecutivePasses   int                    `json:"consecutive_passes"`
	PlayOccurred        bool                   `json:"play_occurred"`
}

func snapshotSession(sess *models.GameSession) (roomCode string, creatorID int64, status models.SessionStatus, state []byte, createdAt time.Time, startedAt, completedAt *time.Time, err error) {
	sess.Lock()
	defer sess.Unlock()

	st := sessionState{
		Settings:            sess.Settings,
		CurrentPlayer:       sess.CurrentPlayer,
		Round:               sess.Round,
		Scores:              sess.Scores,
		LastPlay:            sess.LastPlay,
		LastPlayCombination: sess.LastPlayCombination,
		LastPlayPlayer:      sess.LastPlayPlayer,
		TrickStartPlayer:    sess.TrickStartPlayer,
		Trick:               sess.Trick,
		ConsecutivePasses:   sess.ConsecutivePasses,
		PlayOccurred:        sess.PlayOccurred,
	}
	for _, p := range sess.Players {
		if p == nil {
			continue
		}
		st.Players = append(st.Players, slotState{
			UserID:    p.UserID,
			Username:  p.Username,
			Position:  p.Position,
			IsAI:      p.IsAI,
			Connected: p.Connected,
			Hand:      p.Hand,
		})
	}
	state, err = json.Marshal(st)
	return sess.RoomCode, sess.CreatorID, sess.Status, state, sess.CreatedAt, sess.StartedAt, sess.CompletedAt, err
}

func (r *GameRepo) SaveState(ctx context.Context, sess *models.GameSession) error {
	roomCode, creatorID, status, state, createdAt, startedAt, completedAt, err := snapshotSession(sess)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO games (room_code, creator_id, status, state, created_at, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (room_code) DO UPDATE
		 SET status = EXCLUDED.status, state = EXCLUDED.state,
		     started_at = EXCLUDED.started_at, completed_at = EXCLUDED.completed_at`,
		roomCode, creatorID, string(status), state, createdAt, startedAt, completedAt,
	)
	return err
}

func (r *GameRepo) LoadState(ctx context.Context, roomCode string) (*models.GameSession, error) {
	var (
		creatorID              int64
		status                 string
		state                  []byte
		createdAt              time.Time
		startedAt, completedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT creator_id, status, state, created_at, started_at, completed_at
		 FROM games WHERE room_code = $1`,
		roomCode,
	).Scan(&creatorID, &status, &state, &createdAt, &startedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var st sessionState
	if err := json.Unmarshal(state, &st); err != nil {
		return nil, fmt.Errorf("corrupt state for game %s: %w", roomCode, err)
	}

	sess := &models.GameSession{
		RoomCode:            roomCode,
		CreatorID:           creatorID,
		Status:              models.SessionStatus(status),
		Settings:            st.Settings,
		CurrentPlayer:       st.CurrentPlayer,
		Round:               st.Round,
		Scores:              st.Scores,
		LastPlay:            st.LastPlay,
		LastPlayCombination: st.LastPlayCombination,
		LastPlayPlayer:      st.LastPlayPlayer,
		TrickStartPlayer:    st.TrickStartPlayer,
		Trick:               st.Trick,
		ConsecutivePasses:   st.ConsecutivePasses,
		PlayOccurred:        st.PlayOccurred,
		CreatedAt:           createdAt,
	}
	if startedAt.Valid {
		t := startedAt.Time
		sess.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		sess.CompletedAt = &t
	}
	for _, s := range st.Players {
		if s.Position < 0 || s.Position >= models.MaxPlayers {
			continue
		}
		sess.Players[s.Position] = &models.PlayerSlot{
			UserID:    s.UserID,
			Username:  s.Username,
			Position:  s.Position,
			IsAI:      s.IsAI,
			Connected: false,
			Hand:      s.Hand,
		}
	}
	return sess, nil
}

// SaveCompleted writes the final game row, the history record, and the human
// players' stats in one transaction.
func (r *GameRepo) SaveCompleted(ctx context.Context, sess *models.GameSession, winner int) error {
	roomCode, creatorID, status, state, createdAt, startedAt, completedAt, err := snapshotSession(sess)
	if err != nil {
		return err
	}

	sess.Lock()
	record := models.GameRecord{
		RoomCode:    roomCode,
		WinnerName:  sess.Players[winner].Username,
		TotalRounds: sess.Round,
		FinalScores: sess.Scores,
	}
	for pos, p := range sess.Players {
		if p == nil {
			continue
		}
		record.Players = append(record.Players, models.GameRecordPlayer{
			UserID:     p.UserID,
			Username:   p.Username,
			Position:   pos,
			FinalScore: sess.Scores[pos],
			IsWinner:   pos == winner,
		})
	}
	winnerUserID := sess.Players[winner].UserID
	sess.Unlock()

	if startedAt != nil && completedAt != nil {
		record.Duration = int(completedAt.Sub(*startedAt).Seconds())
	}
	playersJSON, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}
	scoresJSON, err := json.Marshal(record.FinalScores)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO games (room_code, creator_id, status, state, created_at, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (room_code) DO UPDATE
		 SET status = EXCLUDED.status, state = EXCLUDED.state,
		     started_at = EXCLUDED.started_at, completed_at = EXCLUDED.completed_at`,
		roomCode, creatorID, string(status), state, createdAt, startedAt, completedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO game_history (room_code, players, winner_user_id, winner_name, total_rounds, duration_secs, final_scores)
		 VALUES ($1, $2, NULLIF($3, 0), $4, $5, $6, $7)`,
		roomCode, playersJSON, winnerUserID, record.WinnerName, record.TotalRounds, record.Duration, scoresJSON,
	)
	if err != nil {
		return err
	}

	for _, p := range record.Players {
		if p.UserID == 0 {
			continue
		}
		won := 0
		if p.IsWinner {
			won = 1
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE users
			 SET games_played = games_played + 1,
			     games_won = games_won + $1,
			     total_score = total_score + $2
			 WHERE id = $3`,
			won, p.FinalScore, p.UserID,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// History returns the most recent completed games a user took part in.
func (r *GameRepo) History(ctx context.Context, userID int64, limit int) ([]models.GameRecord, error) {
	filter := fmt.Sprintf(`[{"user_id":%d}]`, userID)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, room_code, players, winner_name, total_rounds, duration_secs, final_scores, played_at
		 FROM game_history
		 WHERE players @> $1::jsonb
		 ORDER BY played_at DESC
		 LIMIT $2`,
		filter, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.GameRecord
	for rows.Next() {
		var (
			rec         models.GameRecord
			playersJSON []byte
			scoresJSON  []byte
		)
		if err := rows.Scan(&rec.ID, &rec.RoomCode, &playersJSON, &rec.WinnerName, &rec.TotalRounds, &rec.Duration, &scoresJSON, &rec.PlayedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(playersJSON, &rec.Players); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(scoresJSON, &rec.FinalScores); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
