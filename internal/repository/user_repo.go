package repository

import (
	"context"
	"database/sql"

	"github.com/bigtwo-arena/bigtwo-server/internal/models"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, password_hash, games_played, games_won, total_score, created_at`

func (r *UserRepo) Create(ctx context.Context, username, passwordHash string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2)
		 RETURNING `+userColumns,
		username, passwordHash,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.GamesPlayed, &user.GamesWon, &user.TotalScore, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`,
		username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.GamesPlayed, &user.GamesWon, &user.TotalScore, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.GamesPlayed, &user.GamesWon, &user.TotalScore, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Leaderboard returns the top players by games won.
func (r *UserRepo) Leaderboard(ctx context.Context, limit int) ([]models.UserProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY games_won DESC, games_played ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []models.UserProfile
	for rows.Next() {
		user := models.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.GamesPlayed, &user.GamesWon, &user.TotalScore, &user.CreatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, user.ToProfile())
	}
	return profiles, rows.Err()
}
