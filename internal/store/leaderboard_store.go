package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type LeaderboardRow struct {
	ID              int64
	Username        string
	Country         string
	Score           int
	RoundsCompleted int
	TotalGuesses    int
	TimeSeconds     int
	CreatedAt       time.Time
}

type LeaderboardStore struct {
	db *pgxpool.Pool
}

func NewLeaderboardStore(db *pgxpool.Pool) *LeaderboardStore {
	return &LeaderboardStore{db: db}
}

func (s *LeaderboardStore) Insert(ctx context.Context, r LeaderboardRow) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO leaderboard (username, country, score, rounds_completed, total_guesses, time_seconds)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.Username, r.Country, r.Score, r.RoundsCompleted, r.TotalGuesses, r.TimeSeconds)
	return err
}

func (s *LeaderboardStore) ListTop(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, username, country, score, rounds_completed, total_guesses, time_seconds, created_at
		FROM leaderboard
		ORDER BY score DESC, created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.ID, &r.Username, &r.Country, &r.Score, &r.RoundsCompleted, &r.TotalGuesses, &r.TimeSeconds, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
