package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route binds one method and path to a handler.
type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

// FridgeRoutes is the routing table of the fridge API, relative to its group.
func FridgeRoutes(h *FridgeHandler) []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/", Handler: h.ListFridges},
		{Method: http.MethodPost, Path: "/", Handler: h.CreateFridge},
		{Method: http.MethodGet, Path: "/:id", Handler: h.GetFridge},
		{Method: http.MethodPut, Path: "/:id", Handler: h.UpdateFridge},
		{Method: http.MethodPost, Path: "/:id/images", Handler: h.UploadImage},
	}
}

// Register adds every route of the table to r.
func Register(r gin.IRouter, routes []Route) {
	for _, route := range routes {
		r.Handle(route.Method, route.Path, route.Handler)
	}
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health handles GET /health. It fails with 503 when the database cannot be reached.
func Health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	}
}
