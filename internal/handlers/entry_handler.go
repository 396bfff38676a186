package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/moodlink-app/backend/internal/ledger"
	"github.com/moodlink-app/backend/internal/live"
	"github.com/moodlink-app/backend/internal/models"
	"github.com/moodlink-app/backend/internal/repositories"
)

// EntryHandler handles HTTP requests related to entries
type EntryHandler struct {
	entryRepository   repositories.EntryRepository
	commentRepository repositories.CommentRepository
	entryFeed         *live.Feed[models.Entry]
}

// NewEntryHandler creates a new EntryHandler
func NewEntryHandler(entryRepo repositories.EntryRepository, commentRepo repositories.CommentRepository, entryFeed *live.Feed[models.Entry]) *EntryHandler {
	return &EntryHandler{
		entryRepository:   entryRepo,
		commentRepository: commentRepo,
		entryFeed:         entryFeed,
	}
}

// RegisterEntryRoutes registers entry-related routes
func (h *EntryHandler) RegisterEntryRoutes(g *echo.Group) {
	g.POST("/entries", h.CreateEntry)
	g.GET("/entries", h.ListEntries)
	g.GET("/entries/stream", h.StreamEntries)
	g.GET("/entries/:id", h.GetEntry)
	g.PUT("/entries/:id", h.UpdateEntry)
	g.DELETE("/entries/:id", h.DeleteEntry)
	g.GET("/accounts/:id/entries", h.ListEntriesByOwner)
}

// CreateEntry creates a new journal, voting or capsule entry
func (h *EntryHandler) CreateEntry(c echo.Context) error {
	var req models.CreateEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	entry := &models.Entry{
		OwnerID:   accountIDFromContext(c),
		Kind:      req.Kind,
		Content:   req.Content,
		Mood:      req.Mood,
		MediaURLs: req.MediaURLs,
	}

	switch req.Kind {
	case models.KindVoting:
		if len(req.Options) < 2 {
			return echo.NewHTTPError(http.StatusBadRequest, "A voting entry needs 2 to 5 options")
		}
		entry.Options = make([]models.PollOption, len(req.Options))
		entry.VotedBy = []string{}
		for i, text := range req.Options {
			entry.Options[i] = models.PollOption{ID: uuid.NewString(), Text: text}
		}
	case models.KindCapsule:
		if req.UnlocksAt == nil || !req.UnlocksAt.After(time.Now()) {
			return echo.NewHTTPError(http.StatusBadRequest, "A capsule needs a future unlock time")
		}
		entry.UnlocksAt = req.UnlocksAt
	default:
		if len(req.Options) > 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Only voting entries carry options")
		}
	}

	if err := h.entryRepository.Create(c.Request().Context(), entry); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, entry)
}

// GetEntry retrieves a single entry, decorated for the requesting account
func (h *EntryHandler) GetEntry(c echo.Context) error {
	entry, err := h.entryRepository.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Entry not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, models.NewEntryView(entry, accountIDFromContext(c), time.Now()))
}

// ListEntries returns the paginated feed, newest first
func (h *EntryHandler) ListEntries(c echo.Context) error {
	skip, limit := pagination(c)
	entries, err := h.entryRepository.List(c.Request().Context(), skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.decorate(entries, accountIDFromContext(c)))
}

// ListEntriesByOwner returns one account's entries, newest first
func (h *EntryHandler) ListEntriesByOwner(c echo.Context) error {
	skip, limit := pagination(c)
	entries, err := h.entryRepository.ListByOwner(c.Request().Context(), c.Param("id"), skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.decorate(entries, accountIDFromContext(c)))
}

func (h *EntryHandler) decorate(entries []models.Entry, accountID string) []models.EntryView {
	now := time.Now()
	views := make([]models.EntryView, len(entries))
	for i := range entries {
		views[i] = models.NewEntryView(&entries[i], accountID, now)
	}
	return views
}

// UpdateEntry updates an entry's content; owner only. Poll options cannot be
// edited once any vote has been cast.
func (h *EntryHandler) UpdateEntry(c echo.Context) error {
	var req models.UpdateEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	accountID := accountIDFromContext(c)
	entryID := c.Param("id")
	var entry *models.Entry
	err := ledger.WithConflictRetry(c.Request().Context(), ledger.MaxAttempts, func(ctx context.Context) error {
		var err error
		entry, err = h.entryRepository.GetByID(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.OwnerID != accountID {
			return echo.NewHTTPError(http.StatusForbidden, "Only the owner can edit an entry")
		}
		if len(req.Options) > 0 {
			if entry.Kind != models.KindVoting {
				return echo.NewHTTPError(http.StatusBadRequest, "Only voting entries carry options")
			}
			if len(entry.VotedBy) > 0 {
				return echo.NewHTTPError(http.StatusConflict, "Options cannot change after votes were cast")
			}
			entry.Options = make([]models.PollOption, len(req.Options))
			for i, text := range req.Options {
				entry.Options[i] = models.PollOption{ID: uuid.NewString(), Text: text}
			}
		}
		if req.Content != "" {
			entry.Content = req.Content
		}
		if req.Mood != "" {
			entry.Mood = req.Mood
		}
		if req.MediaURLs != nil {
			entry.MediaURLs = req.MediaURLs
		}
		return h.entryRepository.Replace(ctx, entry)
	})
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Entry not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not update entry")
	}

	return c.JSON(http.StatusOK, entry)
}

// DeleteEntry deletes an entry and its comments; owner only
func (h *EntryHandler) DeleteEntry(c echo.Context) error {
	ctx := c.Request().Context()
	entryID := c.Param("id")

	entry, err := h.entryRepository.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Entry not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if entry.OwnerID != accountIDFromContext(c) {
		return echo.NewHTTPError(http.StatusForbidden, "Only the owner can delete an entry")
	}

	if err := h.entryRepository.Delete(ctx, entryID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	// cascade; the entry is already gone, so a failure here only orphans rows
	if err := h.commentRepository.DeleteByEntry(entryID); err != nil {
		c.Logger().Warnf("failed to delete comments for entry %s: %v", entryID, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// StreamEntries pushes the entry feed as server-sent events whenever it changes
func (h *EntryHandler) StreamEntries(c echo.Context) error {
	ch, cancel, err := h.entryFeed.Subscribe(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not open entry stream")
	}
	defer cancel()
	return streamSSE(c, ch)
}

func pagination(c echo.Context) (skip, limit int64) {
	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	size, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 50 {
		size = 20
	}
	return (page - 1) * size, size
}
