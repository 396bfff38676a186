package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/moodlink-app/backend/internal/ledger"
	"github.com/moodlink-app/backend/internal/live"
	"github.com/moodlink-app/backend/internal/models"
	"github.com/moodlink-app/backend/internal/repositories"
)

// AccountHandler handles HTTP requests related to accounts
type AccountHandler struct {
	accountRepository repositories.AccountRepository
	accountFeed       *live.Feed[models.Account]
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountRepo repositories.AccountRepository, accountFeed *live.Feed[models.Account]) *AccountHandler {
	return &AccountHandler{accountRepository: accountRepo, accountFeed: accountFeed}
}

// RegisterAccountRoutes registers account-related routes
func (h *AccountHandler) RegisterAccountRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/accounts", h.ListAccounts)
	g.GET("/accounts/search", h.SearchAccounts)
	g.GET("/accounts/stream", h.StreamAccounts)
	g.GET("/accounts/:id", h.GetAccount)
}

// GetProfile retrieves the authenticated account's profile
func (h *AccountHandler) GetProfile(c echo.Context) error {
	account, err := h.accountRepository.GetByID(c.Request().Context(), accountIDFromContext(c))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Account not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, account)
}

// UpdateProfile updates the authenticated account's display name, avatar and
// bio. The write is conflict-retried so it never overwrites a concurrent
// point award from a stale read.
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	accountID := accountIDFromContext(c)
	var account *models.Account
	err := ledger.WithConflictRetry(c.Request().Context(), ledger.MaxAttempts, func(ctx context.Context) error {
		var err error
		account, err = h.accountRepository.GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		if req.Name != "" {
			account.Name = req.Name
		}
		if req.Avatar != "" {
			account.Avatar = req.Avatar
		}
		if req.Bio != "" {
			account.Bio = req.Bio
		}
		return h.accountRepository.Replace(ctx, account)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Account not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not update profile")
	}

	return c.JSON(http.StatusOK, account)
}

// GetAccount retrieves another account's profile by ID
func (h *AccountHandler) GetAccount(c echo.Context) error {
	account, err := h.accountRepository.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Account not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, account)
}

// ListAccounts returns all accounts ordered by points (the leaderboard view)
func (h *AccountHandler) ListAccounts(c echo.Context) error {
	accounts, err := h.accountRepository.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, accounts)
}

// SearchAccounts searches accounts by name or email
func (h *AccountHandler) SearchAccounts(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}

	accounts, err := h.accountRepository.Search(c.Request().Context(), query)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, accounts)
}

// StreamAccounts pushes the full account list as server-sent events whenever
// it changes. The subscription is torn down when the client disconnects.
func (h *AccountHandler) StreamAccounts(c echo.Context) error {
	ch, cancel, err := h.accountFeed.Subscribe(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not open account stream")
	}
	defer cancel()
	return streamSSE(c, ch)
}
