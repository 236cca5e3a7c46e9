package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/GIRISHRV/moviereco/internal/model"
)

// MovieRepo manages the lazily built local movie cache. Rows are
// inserted on first reference and never updated or deleted; the
// UNIQUE key on tmdb_id decides the winner when two requests insert
// the same movie at once.
type MovieRepo struct{ DB *sql.DB }

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{DB: db} }

// ErrMovieExists is returned by Create when a row with the same
// tmdb_id already exists. Callers retry as a lookup.
var ErrMovieExists = errors.New("movie already cached")

const movieCols = "id,tmdb_id,title,overview,poster_path,release_date,vote_average,vote_count,runtime,popularity,created_at"

// GetByTMDBID fetches a cached movie by its external id. Returns
// sql.ErrNoRows when the movie has never been referenced.
func (r *MovieRepo) GetByTMDBID(ctx context.Context, tmdbID int64) (model.Movie, error) {
	return r.scanOne(ctx, "SELECT "+movieCols+" FROM movies WHERE tmdb_id=? LIMIT 1", tmdbID)
}

// GetByID fetches a cached movie by its local id.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	return r.scanOne(ctx, "SELECT "+movieCols+" FROM movies WHERE id=? LIMIT 1", id)
}

func (r *MovieRepo) scanOne(ctx context.Context, query string, arg any) (model.Movie, error) {
	var (
		m       model.Movie
		release sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&m.ID, &m.TMDBID, &m.Title, &m.Overview, &m.PosterPath, &release,
			&m.VoteAverage, &m.VoteCount, &m.Runtime, &m.Popularity, &m.CreatedAt)
	if err != nil {
		return model.Movie{}, err
	}
	if release.Valid {
		m.ReleaseDate = release.Time
	}
	return m, nil
}

// Create inserts a movie row and fills in its local id. A duplicate
// tmdb_id maps to ErrMovieExists.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	var release any
	if !m.ReleaseDate.IsZero() {
		release = m.ReleaseDate.Format("2006-01-02")
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO movies (tmdb_id, title, overview, poster_path, release_date, vote_average, vote_count, runtime, popularity) VALUES (?,?,?,?,?,?,?,?,?)",
		m.TMDBID, m.Title, m.Overview, m.PosterPath, release,
		m.VoteAverage, m.VoteCount, m.Runtime, m.Popularity)
	if err != nil {
		if isDuplicate(err) {
			return ErrMovieExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}
