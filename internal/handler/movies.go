package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/GIRISHRV/moviereco/internal/tmdb"
)

// MovieHandler serves the public catalog endpoints. Everything here
// is a read-only proxy over TMDB: listing endpoints degrade to an
// empty result set when the upstream fails, so a TMDB outage never
// breaks browsing.
type MovieHandler struct {
	TMDB *tmdb.Client
}

func NewMovieHandler(client *tmdb.Client) *MovieHandler {
	if client == nil {
		panic("nil tmdb client passed to NewMovieHandler")
	}
	return &MovieHandler{TMDB: client}
}

// moviePage renders a listing page in the response shape the
// frontend consumes.
func moviePage(c echo.Context, p *tmdb.MoviePage) error {
	return c.JSON(http.StatusOK, echo.Map{
		"movies":        p.Results,
		"current_page":  p.Page,
		"total_pages":   p.TotalPages,
		"total_results": p.TotalResults,
	})
}

// emptyMoviePage is the degraded response for listing endpoints.
func emptyMoviePage(c echo.Context, page int) error {
	return moviePage(c, &tmdb.MoviePage{
		Page:       page,
		Results:    []tmdb.MovieSummary{},
		TotalPages: 1,
	})
}

func queryPage(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Popular lists popular movies.
func (h *MovieHandler) Popular(c echo.Context) error {
	page := queryPage(c)
	p, err := h.TMDB.Popular(c.Request().Context(), page)
	if err != nil {
		log.Printf("[tmdb] popular failed: %v", err)
		return emptyMoviePage(c, page)
	}
	return moviePage(c, p)
}

// Genres lists the movie genres.
func (h *MovieHandler) Genres(c echo.Context) error {
	genres, err := h.TMDB.Genres(c.Request().Context())
	if err != nil {
		log.Printf("[tmdb] genres failed: %v", err)
		genres = []tmdb.Genre{}
	}
	return c.JSON(http.StatusOK, echo.Map{"genres": genres})
}

// Search searches by title. A blank query short-circuits to an
// empty page without touching the upstream.
func (h *MovieHandler) Search(c echo.Context) error {
	page := queryPage(c)
	query := c.QueryParam("query")
	if query == "" {
		return emptyMoviePage(c, page)
	}
	p, err := h.TMDB.Search(c.Request().Context(), query, page)
	if err != nil {
		log.Printf("[tmdb] search %q failed: %v", query, err)
		return emptyMoviePage(c, page)
	}
	return moviePage(c, p)
}

// ByGenre lists movies for one genre id via discover.
func (h *MovieHandler) ByGenre(c echo.Context) error {
	page := queryPage(c)
	genreID := c.Param("id")
	if _, err := strconv.ParseInt(genreID, 10, 64); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid genre id"})
	}
	p, err := h.TMDB.Discover(c.Request().Context(), tmdb.DiscoverQuery{
		WithGenres: genreID,
		Page:       page,
		SortBy:     "popularity.desc",
	})
	if err != nil {
		log.Printf("[tmdb] genre %s failed: %v", genreID, err)
		return emptyMoviePage(c, page)
	}
	return moviePage(c, p)
}

// Discover lists movies matching the supported filters.
func (h *MovieHandler) Discover(c echo.Context) error {
	dq := tmdb.DiscoverQuery{
		SortBy:     c.QueryParam("sort_by"),
		Page:       queryPage(c),
		WithGenres: c.QueryParam("with_genres"),
		Language:   c.QueryParam("language"),
	}
	if y, err := strconv.Atoi(c.QueryParam("primary_release_year")); err == nil && y > 0 {
		dq.PrimaryReleaseYear = y
	}
	p, err := h.TMDB.Discover(c.Request().Context(), dq)
	if err != nil {
		log.Printf("[tmdb] discover failed: %v", err)
		return emptyMoviePage(c, dq.Page)
	}
	return moviePage(c, p)
}

// Details returns the full record for one movie. A single record
// cannot degrade to an empty set, so unknown or unreachable movies
// read as 404.
func (h *MovieHandler) Details(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	d, err := h.TMDB.Details(c.Request().Context(), id)
	if err != nil {
		if err != tmdb.ErrMovieNotFound {
			log.Printf("[tmdb] details %d failed: %v", id, err)
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}
	return c.JSON(http.StatusOK, d)
}

// Similar lists up to ?limit= movies similar to the given one.
func (h *MovieHandler) Similar(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	p, err := h.TMDB.Similar(c.Request().Context(), id, limit)
	if err != nil {
		log.Printf("[tmdb] similar %d failed: %v", id, err)
		return c.JSON(http.StatusOK, echo.Map{"movies": []tmdb.MovieSummary{}, "total_results": 0})
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": p.Results, "total_results": p.TotalResults})
}

// Reviews lists one page of reviews with upstream pagination.
func (h *MovieHandler) Reviews(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	page := queryPage(c)
	p, err := h.TMDB.Reviews(c.Request().Context(), id, page)
	if err != nil {
		log.Printf("[tmdb] reviews %d failed: %v", id, err)
		p = &tmdb.ReviewPage{Page: page, Results: []tmdb.Review{}, TotalPages: 1}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reviews":       p.Results,
		"current_page":  p.Page,
		"total_pages":   p.TotalPages,
		"total_results": p.TotalResults,
	})
}

// Videos lists the movie's YouTube trailers.
func (h *MovieHandler) Videos(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	videos, err := h.TMDB.Videos(c.Request().Context(), id)
	if err != nil {
		log.Printf("[tmdb] videos %d failed: %v", id, err)
		videos = []tmdb.Video{}
	}
	return c.JSON(http.StatusOK, echo.Map{"videos": videos})
}
