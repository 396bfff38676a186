package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/moodlink-app/backend/internal/notify"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	center *notify.Center
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(center *notify.Center) *NotificationHandler {
	return &NotificationHandler{center: center}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.GET("/notifications/stream", h.StreamNotifications)
	g.PUT("/notifications/read-all", h.MarkAllRead)
}

// GetNotifications returns paginated notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	recipientID := accountIDFromContext(c)
	if recipientID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	notifications, total, err := h.center.List(recipientID, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": notifications,
		},
		"meta": echo.Map{
			"currentPage":  page,
			"totalPages":   totalPages,
			"totalItems":   total,
			"itemsPerPage": limit,
		},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	recipientID := accountIDFromContext(c)
	if recipientID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	count, err := h.center.UnreadCount(recipientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// MarkAllRead marks every unread notification as read
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	recipientID := accountIDFromContext(c)
	if recipientID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	if err := h.center.MarkAllRead(recipientID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not update notifications")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// StreamNotifications pushes the recipient's notification feed and unread
// count as server-sent events whenever either changes.
func (h *NotificationHandler) StreamNotifications(c echo.Context) error {
	recipientID := accountIDFromContext(c)
	if recipientID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	ch, cancel, err := h.center.Subscribe(c.Request().Context(), recipientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not open notification stream")
	}
	defer cancel()
	return streamSSE(c, ch)
}
