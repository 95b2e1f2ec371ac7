package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	GamesPlayed  int       `json:"games_played"`
	GamesWon     int       `json:"games_won"`
	TotalScore   int64     `json:"total_score"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserProfile struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	GamesPlayed int     `json:"games_played"`
	GamesWon    int     `json:"games_won"`
	TotalScore  int64   `json:"total_score"`
	WinRate     float64 `json:"win_rate"`
}

func (u *User) ToProfile() UserProfile {
	p := UserProfile{
		ID:          u.ID,
		Username:    u.Username,
		GamesPlayed: u.GamesPlayed,
		GamesWon:    u.GamesWon,
		TotalScore:  u.TotalScore,
	}
	if u.GamesPlayed > 0 {
		p.WinRate = float64(u.GamesWon) / float64(u.GamesPlayed)
	}
	return p
}

// GameRecord is one completed game as persisted to history.
type GameRecord struct {
	ID          int64              `json:"id"`
	RoomCode    string             `json:"room_code"`
	Players     []GameRecordPlayer `json:"players"`
	WinnerName  string             `json:"winner_name"`
	TotalRounds int                `json:"total_rounds"`
	Duration    int                `json:"duration_secs"`
	FinalScores [MaxPlayers]int    `json:"final_scores"`
	PlayedAt    time.Time          `json:"played_at"`
}

type GameRecordPlayer struct {
	UserID     int64  `json:"user_id,omitempty"`
	Username   string `json:"username"`
	Position   int    `json:"position"`
	FinalScore int    `json:"final_score"`
	IsWinner   bool   `json:"is_winner"`
}
