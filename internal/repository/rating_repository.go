package repository

import (
	"context"
	"database/sql"

	"github.com/GIRISHRV/moviereco/internal/model"
)

// RatingRepo persists per-user movie ratings keyed by TMDB id. One
// row per (user, movie); repeated writes overwrite in place.
type RatingRepo struct{ DB *sql.DB }

func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{DB: db} }

// Upsert writes the user's rating for a movie, replacing any
// previous value and refreshing the timestamp.
func (r *RatingRepo) Upsert(ctx context.Context, userID uint64, movieID int64, value float64) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO ratings (user_id, movie_id, rating, updated_at)
		 VALUES (?,?,?,NOW())
		 ON DUPLICATE KEY UPDATE rating = VALUES(rating), updated_at = NOW()`,
		userID, movieID, value)
	return err
}

// Get returns the user's rating for one movie. sql.ErrNoRows when
// the user never rated it.
func (r *RatingRepo) Get(ctx context.Context, userID uint64, movieID int64) (float64, error) {
	var value float64
	err := r.DB.QueryRowContext(ctx,
		"SELECT rating FROM ratings WHERE user_id=? AND movie_id=? LIMIT 1",
		userID, movieID).Scan(&value)
	return value, err
}

// ListByUser returns all of the user's ratings, most recently
// updated first.
func (r *RatingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Rating, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,movie_id,rating,updated_at FROM ratings WHERE user_id=? ORDER BY updated_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Rating
	for rows.Next() {
		var rt model.Rating
		if err := rows.Scan(&rt.ID, &rt.UserID, &rt.MovieID, &rt.Value, &rt.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}
