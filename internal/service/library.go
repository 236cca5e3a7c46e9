// Package service implements the reconciliation layer between the
// TMDB catalog and the locally stored per-user movie state.
package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/GIRISHRV/moviereco/internal/model"
	"github.com/GIRISHRV/moviereco/internal/repository"
	"github.com/GIRISHRV/moviereco/internal/tmdb"
)

var (
	// ErrMovieNotFound means the movie could not be resolved to a
	// local row: the catalog does not know it or is unreachable.
	// Write paths fail with this rather than referencing a movie
	// that was never verified.
	ErrMovieNotFound = errors.New("movie not found")

	// ErrInvalidRating is returned for rating values outside [0,5].
	ErrInvalidRating = errors.New("rating must be between 0 and 5")
)

// MovieStore is the slice of the movie repository the service needs.
type MovieStore interface {
	GetByTMDBID(ctx context.Context, tmdbID int64) (model.Movie, error)
	Create(ctx context.Context, m *model.Movie) error
}

type HistoryStore interface {
	Add(ctx context.Context, userID, movieID uint64, watchedAt time.Time) (bool, error)
	List(ctx context.Context, userID uint64, limit int) ([]model.WatchedMovie, error)
	Remove(ctx context.Context, userID, movieID uint64) error
}

type WatchlistStore interface {
	Get(ctx context.Context, userID uint64, movieID int64) (model.WatchlistEntry, error)
	Add(ctx context.Context, e *model.WatchlistEntry) error
	Remove(ctx context.Context, userID uint64, movieID int64) (bool, error)
	List(ctx context.Context, userID uint64) ([]model.WatchlistEntry, error)
}

type RatingStore interface {
	Upsert(ctx context.Context, userID uint64, movieID int64, value float64) error
	Get(ctx context.Context, userID uint64, movieID int64) (float64, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Rating, error)
}

// MetadataClient is the slice of the TMDB client the service needs.
type MetadataClient interface {
	Details(ctx context.Context, id int64) (*tmdb.MovieDetails, error)
}

// defaultHistoryLimit applies when a history listing passes no
// usable limit.
const defaultHistoryLimit = 12

// Library ties the user movie state stores to the catalog client.
type Library struct {
	movies    MovieStore
	history   HistoryStore
	watchlist WatchlistStore
	ratings   RatingStore
	metadata  MetadataClient
	events    EventPublisher
}

// NewLibrary wires a Library. events may be nil to disable activity
// publishing.
func NewLibrary(movies MovieStore, history HistoryStore, watchlist WatchlistStore, ratings RatingStore, metadata MetadataClient, events EventPublisher) *Library {
	if movies == nil || history == nil || watchlist == nil || ratings == nil || metadata == nil {
		panic("service: NewLibrary requires movies, history, watchlist, ratings and metadata")
	}
	return &Library{
		movies:    movies,
		history:   history,
		watchlist: watchlist,
		ratings:   ratings,
		metadata:  metadata,
		events:    events,
	}
}

// ResolveMovie maps a TMDB id to the local movie row, creating the
// row on first reference. A concurrent first reference can lose the
// insert to the unique key on tmdb_id; the loser treats the movie
// as already cached and retries the lookup. Catalog failures map to
// ErrMovieNotFound and nothing is written.
func (l *Library) ResolveMovie(ctx context.Context, tmdbID int64) (model.Movie, error) {
	m, err := l.movies.GetByTMDBID(ctx, tmdbID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Movie{}, err
	}

	details, err := l.metadata.Details(ctx, tmdbID)
	if err != nil {
		return model.Movie{}, ErrMovieNotFound
	}

	m = movieFromDetails(details)
	if err := l.movies.Create(ctx, &m); err != nil {
		if errors.Is(err, repository.ErrMovieExists) {
			return l.movies.GetByTMDBID(ctx, tmdbID)
		}
		return model.Movie{}, err
	}
	return m, nil
}

// AddToHistory resolves the movie and records it as watched.
// Returns false when the movie was already in the user's history;
// that case writes nothing and keeps the original watched_at.
func (l *Library) AddToHistory(ctx context.Context, userID uint64, tmdbID int64) (bool, error) {
	m, err := l.ResolveMovie(ctx, tmdbID)
	if err != nil {
		return false, err
	}
	added, err := l.history.Add(ctx, userID, m.ID, time.Now().UTC())
	if err != nil {
		return false, err
	}
	if added {
		l.publish(ctx, EventHistoryAdded, userID, m.TMDBID, m.Title)
	}
	return added, nil
}

// History lists the user's watch history, most recent first. A
// non-positive limit falls back to the default of 12.
func (l *Library) History(ctx context.Context, userID uint64, limit int) ([]model.WatchedMovie, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return l.history.List(ctx, userID, limit)
}

// RemoveFromHistory deletes one history entry by local movie id.
// Returns repository.ErrNotInHistory when there is nothing to
// remove.
func (l *Library) RemoveFromHistory(ctx context.Context, userID, movieID uint64) error {
	return l.history.Remove(ctx, userID, movieID)
}

// ToggleWatchlist flips the movie's presence on the user's
// watchlist and reports the resulting state. An add resolves the
// movie first and snapshots title and poster into the entry; a
// remove needs no catalog round-trip.
func (l *Library) ToggleWatchlist(ctx context.Context, userID uint64, tmdbID int64) (bool, error) {
	_, err := l.watchlist.Get(ctx, userID, tmdbID)
	if err == nil {
		if _, err := l.watchlist.Remove(ctx, userID, tmdbID); err != nil {
			return false, err
		}
		l.publish(ctx, EventWatchlistRemoved, userID, tmdbID, "")
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	m, err := l.ResolveMovie(ctx, tmdbID)
	if err != nil {
		return false, err
	}
	entry := model.WatchlistEntry{
		UserID:     userID,
		MovieID:    tmdbID,
		Title:      m.Title,
		PosterPath: m.PosterPath,
		AddedAt:    time.Now().UTC(),
	}
	if err := l.watchlist.Add(ctx, &entry); err != nil {
		// A concurrent toggle already added it; the movie ends up
		// listed either way.
		if errors.Is(err, repository.ErrAlreadyListed) {
			return true, nil
		}
		return false, err
	}
	l.publish(ctx, EventWatchlistAdded, userID, tmdbID, m.Title)
	return true, nil
}

// Watchlist lists the user's watchlist from the stored snapshots,
// most recently added first.
func (l *Library) Watchlist(ctx context.Context, userID uint64) ([]model.WatchlistEntry, error) {
	return l.watchlist.List(ctx, userID)
}

// Rate validates and upserts the user's rating for a movie. No
// movie resolution happens here: a rating does not need the local
// cache row to exist.
func (l *Library) Rate(ctx context.Context, userID uint64, tmdbID int64, value float64) error {
	if value < 0 || value > 5 {
		return ErrInvalidRating
	}
	if err := l.ratings.Upsert(ctx, userID, tmdbID, value); err != nil {
		return err
	}
	l.publish(ctx, EventRatingSet, userID, tmdbID, "")
	return nil
}

// Rating returns the user's rating for one movie. ok is false when
// the user never rated it.
func (l *Library) Rating(ctx context.Context, userID uint64, tmdbID int64) (value float64, ok bool, err error) {
	value, err = l.ratings.Get(ctx, userID, tmdbID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

// Ratings lists all of the user's ratings, most recently updated
// first, enriched with live catalog metadata. Rows whose catalog
// fetch fails are omitted rather than failing the listing.
func (l *Library) Ratings(ctx context.Context, userID uint64) ([]model.RatedMovie, error) {
	rated, err := l.ratings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.RatedMovie, 0, len(rated))
	for _, rt := range rated {
		details, err := l.metadata.Details(ctx, rt.MovieID)
		if err != nil {
			continue
		}
		out = append(out, model.RatedMovie{
			MovieID:    rt.MovieID,
			Title:      details.Title,
			PosterPath: details.PosterPath,
			Rating:     rt.Value,
			RatedAt:    rt.UpdatedAt,
		})
	}
	return out, nil
}

func movieFromDetails(d *tmdb.MovieDetails) model.Movie {
	m := model.Movie{
		TMDBID:      d.ID,
		Title:       d.Title,
		Overview:    d.Overview,
		PosterPath:  d.PosterPath,
		VoteAverage: d.VoteAverage,
		VoteCount:   d.VoteCount,
		Runtime:     d.Runtime,
		Popularity:  d.Popularity,
	}
	if d.ReleaseDate != "" {
		if t, err := time.Parse("2006-01-02", d.ReleaseDate); err == nil {
			m.ReleaseDate = t
		}
	}
	return m
}
