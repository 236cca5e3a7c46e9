package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/GIRISHRV/moviereco/internal/model"
)

// WatchlistRepo persists per-user watchlist entries keyed by TMDB
// id, with title/poster snapshots taken at add time.
type WatchlistRepo struct{ DB *sql.DB }

func NewWatchlistRepo(db *sql.DB) *WatchlistRepo { return &WatchlistRepo{DB: db} }

// ErrAlreadyListed is returned when an insert hits the
// (user_id, movie_id) unique key.
var ErrAlreadyListed = errors.New("movie already in watchlist")

// Get fetches the user's entry for a movie. sql.ErrNoRows when the
// movie is not listed.
func (r *WatchlistRepo) Get(ctx context.Context, userID uint64, movieID int64) (model.WatchlistEntry, error) {
	var e model.WatchlistEntry
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,movie_id,title,poster_path,added_at FROM watchlist WHERE user_id=? AND movie_id=? LIMIT 1",
		userID, movieID).
		Scan(&e.ID, &e.UserID, &e.MovieID, &e.Title, &e.PosterPath, &e.AddedAt)
	return e, err
}

// Add inserts a watchlist entry.
func (r *WatchlistRepo) Add(ctx context.Context, e *model.WatchlistEntry) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO watchlist (user_id, movie_id, title, poster_path, added_at) VALUES (?,?,?,?,?)",
		e.UserID, e.MovieID, e.Title, e.PosterPath, e.AddedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrAlreadyListed
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// Remove deletes the user's entry for a movie. Reports whether a
// row was actually removed.
func (r *WatchlistRepo) Remove(ctx context.Context, userID uint64, movieID int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM watchlist WHERE user_id=? AND movie_id=?", userID, movieID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns the user's watchlist, most recently added first.
func (r *WatchlistRepo) List(ctx context.Context, userID uint64) ([]model.WatchlistEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,movie_id,title,poster_path,added_at FROM watchlist WHERE user_id=? ORDER BY added_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WatchlistEntry
	for rows.Next() {
		var e model.WatchlistEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.MovieID, &e.Title, &e.PosterPath, &e.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
