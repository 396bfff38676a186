package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/moodlink-app/backend/internal/models"
	"github.com/moodlink-app/backend/internal/notify"
	"github.com/moodlink-app/backend/internal/repositories"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	entryRepository   repositories.EntryRepository
	center            *notify.Center
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, entryRepo repositories.EntryRepository, center *notify.Center) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		entryRepository:   entryRepo,
		center:            center,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/entries/:entry_id/comments", h.CreateComment)
	g.GET("/entries/:entry_id/comments", h.GetCommentsByEntry)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment creates a new comment on an entry and notifies its owner
func (h *CommentHandler) CreateComment(c echo.Context) error {
	entryID := c.Param("entry_id")

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	entry, err := h.entryRepository.GetByID(ctx, entryID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Entry not found")
	}

	authorID := accountIDFromContext(c)
	comment := &models.Comment{
		EntryID:  entryID,
		AuthorID: authorID,
		Content:  req.Content,
	}
	if err := h.commentRepository.Create(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.center.Publish(ctx, notify.Event{
		Type:        models.NotificationComment,
		ActorID:     authorID,
		RecipientID: entry.OwnerID,
		EntryID:     entryID,
		Snippet:     req.Content,
	})

	return c.JSON(http.StatusCreated, comment)
}

// GetCommentsByEntry lists an entry's comments, oldest first
func (h *CommentHandler) GetCommentsByEntry(c echo.Context) error {
	entryID := c.Param("entry_id")

	if _, err := h.entryRepository.GetByID(c.Request().Context(), entryID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Entry not found")
	}

	comments, err := h.commentRepository.ListByEntry(entryID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, comments)
}

// DeleteComment deletes a comment; author only
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	comment, err := h.commentRepository.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if comment.AuthorID != accountIDFromContext(c) {
		return echo.NewHTTPError(http.StatusForbidden, "Only the author can delete a comment")
	}

	if err := h.commentRepository.Delete(uint(id)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
