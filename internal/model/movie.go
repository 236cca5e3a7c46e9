package model

import "time"

// Movie is a locally cached copy of a TMDB movie, stored in the
// `movies` table. Rows are created lazily the first time a user
// references the movie and are never deleted or refreshed by user
// actions; TMDBID is immutable once written and carries a UNIQUE
// key that arbitrates concurrent first-time inserts.
//
// Fields:
//  ID          – local primary key; what watch_history rows reference.
//  TMDBID      – external TMDB identifier (movies.tmdb_id, UNIQUE).
//  Title       – movie title at the time the row was created.
//  Overview    – plot summary (may be empty).
//  PosterPath  – TMDB poster path fragment (may be empty).
//  ReleaseDate – release date; zero when TMDB reported none.
//  VoteAverage – TMDB vote average at creation time.
//  VoteCount   – TMDB vote count at creation time.
//  Runtime     – runtime in minutes (0 when unknown).
//  Popularity  – TMDB popularity score at creation time.
//  CreatedAt   – timestamp of row creation.
type Movie struct {
	ID          uint64    // movies.id
	TMDBID      int64     // movies.tmdb_id
	Title       string    // movies.title
	Overview    string    // movies.overview
	PosterPath  string    // movies.poster_path
	ReleaseDate time.Time // movies.release_date (nullable DATE)
	VoteAverage float64   // movies.vote_average
	VoteCount   int       // movies.vote_count
	Runtime     int       // movies.runtime
	Popularity  float64   // movies.popularity
	CreatedAt   time.Time // movies.created_at
}
