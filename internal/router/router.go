// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/filmorate/internal/handler"
	"github.com/iliyamo/filmorate/internal/validation"
)

// RegisterRoutes registers the operational endpoints that sit outside the
// catalog: the health check and the Prometheus scrape target.  It also
// installs the parameter validator when the caller has not set one, since
// every handler validates its bound path parameters through c.Validate.
func RegisterRoutes(e *echo.Echo) {
	if e.Validator == nil {
		e.Validator = validation.NewParams()
	}
	// Liveness probe for load balancers; never cached.
	e.GET("/healthz", handler.Health)
	// Prometheus scrape target served from the default registry.
	e.GET("/metrics", handler.Metrics)
}

// RegisterFilms mounts the /films group.  /films/popular is a static route
// and wins over /films/:id.
func RegisterFilms(e *echo.Echo, h *handler.FilmHandler) {
	if e.Validator == nil {
		e.Validator = validation.NewParams()
	}
	g := e.Group("/films")
	// Collection: create, patch by body id, list.
	g.POST("", h.Create)
	g.PUT("", h.Update)
	g.GET("", h.List)
	// Ranking by like count; ?count=N, default 10.
	g.GET("/popular", h.Popular)
	g.GET("/:id", h.Get)
	// Likes are keyed by film and user; both must exist.
	g.PUT("/:id/like/:userId", h.Like)
	g.DELETE("/:id/like/:userId", h.Unlike)
}

// RegisterUsers mounts the /users group.  Friend routes address an edge
// between two users; the edge is always stored on both of them.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler) {
	if e.Validator == nil {
		e.Validator = validation.NewParams()
	}
	g := e.Group("/users")
	// Collection: create, patch by body id, list.
	g.POST("", h.Create)
	g.PUT("", h.Update)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	// Friend lists resolve ids to full users ordered by id.
	g.GET("/:id/friends", h.Friends)
	g.GET("/:id/friends/common/:otherId", h.CommonFriends)
	g.PUT("/:id/friends/:friendId", h.AddFriend)
	g.DELETE("/:id/friends/:friendId", h.RemoveFriend)
}
