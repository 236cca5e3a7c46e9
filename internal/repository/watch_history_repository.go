package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/GIRISHRV/moviereco/internal/model"
)

// WatchHistoryRepo persists the (user, movie) watch relation. The
// composite primary key keeps at most one row per pair.
type WatchHistoryRepo struct{ DB *sql.DB }

func NewWatchHistoryRepo(db *sql.DB) *WatchHistoryRepo { return &WatchHistoryRepo{DB: db} }

// ErrNotInHistory is returned when a removal targets a movie the
// user never recorded.
var ErrNotInHistory = errors.New("movie not in watch history")

// Add records that the user watched the movie. Returns false with
// no error when the pair already exists; a concurrent duplicate
// insert is absorbed the same way via the primary key.
func (r *WatchHistoryRepo) Add(ctx context.Context, userID, movieID uint64, watchedAt time.Time) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM watch_history WHERE user_id=? AND movie_id=? LIMIT 1",
		userID, movieID).Scan(&one)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO watch_history (user_id, movie_id, watched_at) VALUES (?,?,?)",
		userID, movieID, watchedAt)
	if err != nil {
		if isDuplicate(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns the user's history joined with the movie cache,
// most recently watched first.
func (r *WatchHistoryRepo) List(ctx context.Context, userID uint64, limit int) ([]model.WatchedMovie, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT m.id, m.tmdb_id, m.title, m.overview, m.poster_path, m.release_date,
		        m.vote_average, m.vote_count, m.runtime, m.popularity, m.created_at,
		        wh.watched_at
		   FROM watch_history wh
		   JOIN movies m ON m.id = wh.movie_id
		  WHERE wh.user_id = ?
		  ORDER BY wh.watched_at DESC
		  LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.WatchedMovie, 0, limit)
	for rows.Next() {
		var (
			w       model.WatchedMovie
			release sql.NullTime
		)
		if err := rows.Scan(&w.ID, &w.TMDBID, &w.Title, &w.Overview, &w.PosterPath, &release,
			&w.VoteAverage, &w.VoteCount, &w.Runtime, &w.Popularity, &w.CreatedAt, &w.WatchedAt); err != nil {
			return nil, err
		}
		if release.Valid {
			w.ReleaseDate = release.Time
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Remove deletes the (user, movie) pair by local movie id.
func (r *WatchHistoryRepo) Remove(ctx context.Context, userID, movieID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM watch_history WHERE user_id=? AND movie_id=?", userID, movieID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotInHistory
	}
	return nil
}
