package router

import (
	"github.com/labstack/echo/v4"

	"github.com/GIRISHRV/moviereco/internal/handler"
	"github.com/GIRISHRV/moviereco/internal/middleware"
)

// RegisterUsers registers the user-scoped endpoints under /v1/users.  All
// routes require a valid JWT and the USER role.  Users manage their own
// profile, avatar, watch history, watchlist and ratings here.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, l *handler.LibraryHandler, jwtSecret string) {
	g := e.Group(
		"/v1/users",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(handler.RoleUser),
	)

	g.GET("/profile", u.Profile)
	g.PUT("/profile", u.UpdateProfile)
	g.POST("/avatar", u.UploadAvatar)
	g.GET("/avatars", u.ListAvatars)

	g.POST("/watch-history", l.AddToHistory)
	g.GET("/watch-history", l.History)
	g.DELETE("/watch-history/:movie_id", l.RemoveFromHistory)

	g.POST("/watch-list/toggle", l.ToggleWatchlist)
	g.GET("/watch-list", l.Watchlist)

	g.POST("/ratings", l.Rate)
	g.GET("/ratings", l.GetRatings)
	g.GET("/ratings/:movie_id", l.GetRating)
}
