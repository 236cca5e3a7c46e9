package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/GIRISHRV/moviereco/internal/repository"
	"github.com/GIRISHRV/moviereco/internal/service"
)

// LibraryHandler exposes the per-user movie state: watch history,
// watchlist and ratings.
type LibraryHandler struct {
	Library *service.Library
}

func NewLibraryHandler(lib *service.Library) *LibraryHandler {
	if lib == nil {
		panic("nil library passed to NewLibraryHandler")
	}
	return &LibraryHandler{Library: lib}
}

// ----- DTOs -----

type movieRef struct {
	MovieID int64 `json:"movie_id"`
}
type rateReq struct {
	MovieID int64   `json:"movie_id"`
	Rating  float64 `json:"rating"`
}

type historyItem struct {
	ID          uint64  `json:"id"`
	TMDBID      int64   `json:"tmdb_id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date,omitempty"`
	VoteAverage float64 `json:"vote_average"`
	WatchedAt   string  `json:"watched_at"`
}

type watchlistItem struct {
	ID         uint64 `json:"id"`
	MovieID    int64  `json:"movie_id"`
	Title      string `json:"title"`
	PosterPath string `json:"poster_path"`
	AddedAt    string `json:"added_at"`
}

type ratedItem struct {
	MovieID    int64   `json:"id"`
	Title      string  `json:"title"`
	PosterPath string  `json:"poster_path"`
	Rating     float64 `json:"rating"`
	RatedAt    string  `json:"rated_at"`
}

func libraryCtx(c echo.Context) (context.Context, context.CancelFunc) {
	// Resolution may call out to TMDB, so this is wider than the
	// plain DB timeout used elsewhere.
	return context.WithTimeout(c.Request().Context(), 15*time.Second)
}

// AddToHistory records the movie as watched. Adding a movie that is
// already present succeeds without touching the stored row.
func (h *LibraryHandler) AddToHistory(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req movieRef
	if err := c.Bind(&req); err != nil || req.MovieID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id required"})
	}

	ctx, cancel := libraryCtx(c)
	defer cancel()

	added, err := h.Library.AddToHistory(ctx, uid, req.MovieID)
	if err != nil {
		if errors.Is(err, service.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add to history failed"})
	}
	msg := "added to watch history"
	if !added {
		msg = "movie already in watch history"
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": msg})
}

// History lists the user's watch history, newest first.
func (h *LibraryHandler) History(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := libraryCtx(c)
	defer cancel()

	watched, err := h.Library.History(ctx, uid, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load history failed"})
	}
	items := make([]historyItem, 0, len(watched))
	for _, w := range watched {
		item := historyItem{
			ID:          w.ID,
			TMDBID:      w.TMDBID,
			Title:       w.Title,
			Overview:    w.Overview,
			PosterPath:  w.PosterPath,
			VoteAverage: w.VoteAverage,
			WatchedAt:   w.WatchedAt.UTC().Format(time.RFC3339),
		}
		if !w.ReleaseDate.IsZero() {
			item.ReleaseDate = w.ReleaseDate.Format("2006-01-02")
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"history": items})
}

// RemoveFromHistory deletes one entry by local movie id.
func (h *LibraryHandler) RemoveFromHistory(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	movieID, err := strconv.ParseUint(c.Param("movie_id"), 10, 64)
	if err != nil || movieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}

	ctx, cancel := libraryCtx(c)
	defer cancel()

	if err := h.Library.RemoveFromHistory(ctx, uid, movieID); err != nil {
		if errors.Is(err, repository.ErrNotInHistory) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not in watch history"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove from history failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "removed from watch history"})
}

// ToggleWatchlist flips the movie's watchlist state and reports the
// resulting state.
func (h *LibraryHandler) ToggleWatchlist(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req movieRef
	if err := c.Bind(&req); err != nil || req.MovieID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id required"})
	}

	ctx, cancel := libraryCtx(c)
	defer cancel()

	listed, err := h.Library.ToggleWatchlist(ctx, uid, req.MovieID)
	if err != nil {
		if errors.Is(err, service.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "toggle watchlist failed"})
	}
	msg := "removed from watchlist"
	if listed {
		msg = "added to watchlist"
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "in_watchlist": listed, "message": msg})
}

// Watchlist lists the user's watchlist from the stored snapshots.
func (h *LibraryHandler) Watchlist(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := libraryCtx(c)
	defer cancel()

	entries, err := h.Library.Watchlist(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load watchlist failed"})
	}
	items := make([]watchlistItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, watchlistItem{
			ID:         e.ID,
			MovieID:    e.MovieID,
			Title:      e.Title,
			PosterPath: e.PosterPath,
			AddedAt:    e.AddedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"watchlist": items})
}

// Rate stores or overwrites the user's rating for a movie.
func (h *LibraryHandler) Rate(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req rateReq
	if err := c.Bind(&req); err != nil || req.MovieID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id required"})
	}

	ctx, cancel := libraryCtx(c)
	defer cancel()

	if err := h.Library.Rate(ctx, uid, req.MovieID, req.Rating); err != nil {
		if errors.Is(err, service.ErrInvalidRating) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 0 and 5"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save rating failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "rating saved"})
}

// GetRating returns the user's rating for one movie, null when the
// user never rated it.
func (h *LibraryHandler) GetRating(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	movieID, err := strconv.ParseInt(c.Param("movie_id"), 10, 64)
	if err != nil || movieID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}

	ctx, cancel := libraryCtx(c)
	defer cancel()

	value, ok, err := h.Library.Rating(ctx, uid, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load rating failed"})
	}
	if !ok {
		return c.JSON(http.StatusOK, echo.Map{"rating": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{"rating": value})
}

// GetRatings lists all of the user's ratings enriched with live
// catalog metadata.
func (h *LibraryHandler) GetRatings(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := libraryCtx(c)
	defer cancel()

	rated, err := h.Library.Ratings(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load ratings failed"})
	}
	items := make([]ratedItem, 0, len(rated))
	for _, r := range rated {
		items = append(items, ratedItem{
			MovieID:    r.MovieID,
			Title:      r.Title,
			PosterPath: r.PosterPath,
			Rating:     r.Rating,
			RatedAt:    r.RatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"ratings": items})
}
