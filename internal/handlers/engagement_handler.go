package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/moodlink-app/backend/internal/engagement"
	"github.com/moodlink-app/backend/internal/ledger"
	"github.com/moodlink-app/backend/internal/models"
	"github.com/moodlink-app/backend/internal/repositories"
)

// EngagementHandler handles like, bookmark and vote HTTP requests
type EngagementHandler struct {
	toggles *engagement.Toggles
}

// NewEngagementHandler creates a new EngagementHandler
func NewEngagementHandler(toggles *engagement.Toggles) *EngagementHandler {
	return &EngagementHandler{toggles: toggles}
}

// RegisterEngagementRoutes registers engagement-related routes
func (h *EngagementHandler) RegisterEngagementRoutes(g *echo.Group) {
	g.POST("/entries/:id/like", h.ToggleLike)
	g.POST("/entries/:id/bookmark", h.ToggleBookmark)
	g.POST("/entries/:id/vote", h.CastVote)
}

// ToggleLike flips the authenticated account's like on an entry
func (h *EngagementHandler) ToggleLike(c echo.Context) error {
	liked, err := h.toggles.ToggleLike(c.Request().Context(), accountIDFromContext(c), c.Param("id"))
	if err != nil {
		return engagementError(err, "Could not save like")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"liked": liked}})
}

// ToggleBookmark flips the authenticated account's bookmark on an entry
func (h *EngagementHandler) ToggleBookmark(c echo.Context) error {
	bookmarked, err := h.toggles.ToggleBookmark(c.Request().Context(), accountIDFromContext(c), c.Param("id"))
	if err != nil {
		return engagementError(err, "Could not save bookmark")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"bookmarked": bookmarked}})
}

// CastVote records the authenticated account's vote on a poll entry. A
// repeated vote succeeds without changing anything.
func (h *EngagementHandler) CastVote(c echo.Context) error {
	var req models.CastVoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.toggles.CastVote(c.Request().Context(), accountIDFromContext(c), c.Param("id"), *req.OptionIndex)
	if err != nil {
		if errors.Is(err, engagement.ErrNotVoting) || errors.Is(err, engagement.ErrOptionOutOfRange) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return engagementError(err, "Could not save vote")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// engagementError maps component failures onto transient, user-dismissable
// HTTP errors.
func engagementError(err error, notice string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Entry not found")
	}
	if errors.Is(err, ledger.ErrConflictExhausted) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, notice+", please retry")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, notice)
}
