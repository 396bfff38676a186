package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/moodlink-app/backend/internal/ledger"
	"github.com/moodlink-app/backend/internal/repositories"
	"github.com/moodlink-app/backend/internal/social"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	graph *social.Graph
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(graph *social.Graph) *FollowHandler {
	return &FollowHandler{graph: graph}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/accounts/:id/follow", h.ToggleFollow)
}

// ToggleFollow flips whether the authenticated account follows the target
// and returns the resulting state. Following yourself is a no-op.
func (h *FollowHandler) ToggleFollow(c echo.Context) error {
	actorID := accountIDFromContext(c)
	if actorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	following, err := h.graph.ToggleFollow(c.Request().Context(), actorID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Account not found")
		}
		if errors.Is(err, ledger.ErrConflictExhausted) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "Could not update, please retry")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not update")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": following}})
}
