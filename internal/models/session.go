package models

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

type SessionStatus string

const (
	StatusWaiting    SessionStatus = "waiting"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusAbandoned  SessionStatus = "abandoned"
)

const (
	MaxPlayers = 4
	HandSize   = 13
)

// PlayerSlot is one of the four seats. AI slots carry no user identity.
type PlayerSlot struct {
	UserID    int64  `json:"user_id,omitempty"`
	Username  string `json:"username"`
	Position  int    `json:"position"`
	IsAI      bool   `json:"is_ai"`
	Connected bool   `json:"connected"`
	Hand      []Card `json:"-"`
}

type TrickEntry struct {
	Player int    `json:"player"`
	Cards  []Card `json:"cards"`
}

type GameSettings struct {
	AIEnabled   bool `json:"ai_enabled"`
	TurnTimeout int  `json:"turn_timeout_ms"`
}

// GameSession is the single-writer actor for one room. All transitions happen
// with the lock held; deferred callbacks re-validate against the turn sequence
// before touching anything.
type GameSession struct {
	mu      sync.Mutex
	turnSeq atomic.Int64

	RoomCode  string                  `json:"room_code"`
	CreatorID int64                   `json:"creator_id"`
	Status    SessionStatus           `json:"status"`
	Players   [MaxPlayers]*PlayerSlot `json:"players"`
	Settings  GameSettings            `json:"settings"`

	CurrentPlayer       int             `json:"current_player"`
	Round               int             `json:"round"`
	Scores              [MaxPlayers]int `json:"scores"`
	LastPlay            []Card          `json:"last_play,omitempty"`
	LastPlayCombination *Combination    `json:"last_play_combination,omitempty"`
	LastPlayPlayer      int             `json:"last_play_player"`
	TrickStartPlayer    int             `json:"trick_start_player"`
	Trick               []TrickEntry    `json:"trick,omitempty"`
	ConsecutivePasses   int             `json:"consecutive_passes"`
	PlayOccurred        bool            `json:"play_occurred"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func NewGameSession(roomCode string, creatorID int64, creatorName string, settings GameSettings) *GameSession {
	s := &GameSession{
		RoomCode:         roomCode,
		CreatorID:        creatorID,
		Status:           StatusWaiting,
		Settings:         settings,
		LastPlayPlayer:   -1,
		TrickStartPlayer: -1,
		CreatedAt:        time.Now(),
	}
	s.Players[0] = &PlayerSlot{
		UserID:    creatorID,
		Username:  creatorName,
		Position:  0,
		Connected: true,
	}
	return s
}

func (s *GameSession) Lock()   { s.mu.Lock() }
func (s *GameSession) Unlock() { s.mu.Unlock() }

// TurnSeq is the token deferred callbacks carry; any committed transition
// advances it, invalidating everything scheduled before.
func (s *GameSession) TurnSeq() int64 {
	return s.turnSeq.Load()
}

func (s *GameSession) AdvanceTurnSeq() int64 {
	return s.turnSeq.Inc()
}

func (s *GameSession) PlayerCount() int {
	count := 0
	for _, p := range s.Players {
		if p != nil {
			count++
		}
	}
	return count
}

func (s *GameSession) FindPlayerByUserID(userID int64) (int, *PlayerSlot) {
	for i, p := range s.Players {
		if p != nil && !p.IsAI && p.UserID == userID {
			return i, p
		}
	}
	return -1, nil
}

// AddPlayer seats a human in the next free position.
func (s *GameSession) AddPlayer(userID int64, username string) (*PlayerSlot, bool) {
	pos := s.PlayerCount()
	if pos >= MaxPlayers {
		return nil, false
	}
	slot := &PlayerSlot{
		UserID:    userID,
		Username:  username,
		Position:  pos,
		Connected: true,
	}
	s.Players[pos] = slot
	return slot, true
}

// ResetTrick clears trick-scoped state. The caller decides the next opener.
func (s *GameSession) ResetTrick() {
	s.Trick = nil
	s.LastPlay = nil
	s.LastPlayCombination = nil
	s.ConsecutivePasses = 0
}

// SessionInfo is the public lobby view: no hands, no per-seat detail beyond names.
type SessionInfo struct {
	RoomCode    string        `json:"room_code"`
	Status      SessionStatus `json:"status"`
	PlayerCount int           `json:"player_count"`
	Round       int           `json:"round"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (s *GameSession) ToInfo() SessionInfo {
	return SessionInfo{
		RoomCode:    s.RoomCode,
		Status:      s.Status,
		PlayerCount: s.PlayerCount(),
		Round:       s.Round,
		CreatedAt:   s.CreatedAt,
	}
}

// PlayerInfo is the per-seat view safe to broadcast: hands appear only as counts.
type PlayerInfo struct {
	Username  string `json:"username"`
	Position  int    `json:"position"`
	IsAI      bool   `json:"is_ai"`
	Connected bool   `json:"connected"`
	CardCount int    `json:"card_count"`
}

func (s *GameSession) PlayerInfos() []PlayerInfo {
	infos := make([]PlayerInfo, 0, MaxPlayers)
	for _, p := range s.Players {
		if p == nil {
			continue
		}
		infos = append(infos, PlayerInfo{
			Username:  p.Username,
			Position:  p.Position,
			IsAI:      p.IsAI,
			Connected: p.Connected,
			CardCount: len(p.Hand),
		})
	}
	return infos
}
