package router

import (
	"github.com/labstack/echo/v4"

	"github.com/GIRISHRV/moviereco/internal/handler"
)

// RegisterMovies registers the public catalog endpoints.  These routes do
// not apply any JWT or role middleware: browsing the catalog never
// requires a session, and upstream failures degrade to empty listings
// inside the handlers.
func RegisterMovies(e *echo.Echo, m *handler.MovieHandler) {
	g := e.Group("/v1/movies")
	g.GET("/popular", m.Popular)
	g.GET("/genres", m.Genres)
	g.GET("/search", m.Search)
	g.GET("/genre/:id", m.ByGenre)
	g.GET("/discover", m.Discover)
	// Parameterized routes come last so the static paths above win.
	g.GET("/:id", m.Details)
	g.GET("/:id/similar", m.Similar)
	g.GET("/:id/reviews", m.Reviews)
	g.GET("/:id/videos", m.Videos)
}
