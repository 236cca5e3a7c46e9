package model

import "time"

// WatchedMovie is a watch-history listing row: the cached movie
// joined with the moment the user watched it.
type WatchedMovie struct {
	Movie
	WatchedAt time.Time // watch_history.watched_at
}

// WatchlistEntry is a row in the `watchlist` table. The movie is
// referenced by its TMDB id and the title/poster are snapshots
// taken when the entry was added, so listings never need a catalog
// round-trip.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – owner of the entry.
//  MovieID    – TMDB identifier of the movie.
//  Title      – title snapshot taken at add time.
//  PosterPath – poster path snapshot taken at add time.
//  AddedAt    – when the entry was added.
type WatchlistEntry struct {
	ID         uint64    // watchlist.id
	UserID     uint64    // watchlist.user_id
	MovieID    int64     // watchlist.movie_id (tmdb id)
	Title      string    // watchlist.title
	PosterPath string    // watchlist.poster_path
	AddedAt    time.Time // watchlist.added_at
}

// Rating is a row in the `ratings` table. One row per
// (user, movie); repeated submissions overwrite value and
// timestamp in place. The movie is referenced by its TMDB id.
type Rating struct {
	ID        uint64    // ratings.id
	UserID    uint64    // ratings.user_id
	MovieID   int64     // ratings.movie_id (tmdb id)
	Value     float64   // ratings.rating
	UpdatedAt time.Time // ratings.updated_at
}

// RatedMovie is a ratings listing row enriched with live catalog
// metadata for display.
type RatedMovie struct {
	MovieID    int64
	Title      string
	PosterPath string
	Rating     float64
	RatedAt    time.Time
}
