package controller

import (
	"net/http"
	"strings"
	"time"

	"unified-calendar/core/controller"
	"unified-calendar/core/errors"
	"unified-calendar/core/middleware"
	"unified-calendar/modules/calendar/dto"
	"unified-calendar/modules/calendar/entity"
	"unified-calendar/modules/calendar/service"
	"unified-calendar/modules/provider"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type CalendarController struct {
	controller.BaseController
	accountSvc  service.AccountService
	eventSvc    service.EventService
	syncSvc     service.SyncService
	conflictSvc service.ConflictService
	icsSvc      service.ICSService
}

func NewCalendarController(
	accountSvc service.AccountService,
	eventSvc service.EventService,
	syncSvc service.SyncService,
	conflictSvc service.ConflictService,
	icsSvc service.ICSService,
) *CalendarController {
	return &CalendarController{
		BaseController: controller.NewBaseController(),
		accountSvc:     accountSvc,
		eventSvc:       eventSvc,
		syncSvc:        syncSvc,
		conflictSvc:    conflictSvc,
		icsSvc:         icsSvc,
	}
}

// ConnectAccount registers a calendar connection from tokens the
// external OAuth flow obtained
// POST /api/v1/private/calendar/accounts
func (c *CalendarController) ConnectAccount(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	req := new(dto.ConnectAccountRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}
	prov, err := provider.Parse(req.Provider)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Unknown provider")
	}
	if req.Email == "" || req.AccessToken == "" || req.RefreshToken == "" {
		return c.BadRequest(errors.ErrInvalidInput, "Email and tokens are required")
	}

	account := &entity.Account{
		OwnerID:        userID,
		Provider:       prov,
		Email:          req.Email,
		AccessToken:    req.AccessToken,
		RefreshToken:   req.RefreshToken,
		TokenExpiresAt: req.TokenExpiresAt,
		IsActive:       true,
	}
	created, appErr := c.accountSvc.ConnectAccount(ctx.Request().Context(), account)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, dto.ToAccountResponse(created), "Account connected")
}

// GetAccounts returns all connected calendar accounts for the current user
// GET /api/v1/private/calendar/accounts
func (c *CalendarController) GetAccounts(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	accounts, appErr := c.accountSvc.GetActiveAccounts(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	resp := dto.AccountListResponse{Accounts: make([]dto.AccountResponse, 0, len(accounts))}
	for i := range accounts {
		resp.Accounts = append(resp.Accounts, dto.ToAccountResponse(&accounts[i]))
	}
	return c.SuccessResponse(ctx, resp, "Accounts retrieved")
}

// DisconnectAccount deactivates a connected account
// DELETE /api/v1/private/calendar/accounts/:id
func (c *CalendarController) DisconnectAccount(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	accountID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid account id")
	}

	if appErr := c.accountSvc.DisconnectAccount(ctx.Request().Context(), userID, accountID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Account disconnected")
}

// GetEvents returns the unified timeline for a window, optionally
// filtered to a subset of accounts
// GET /api/v1/private/calendar/events?from=...&to=...&account_ids=a,b
func (c *CalendarController) GetEvents(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	from, to, err := parseWindow(ctx)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, err.Error())
	}

	var accountIDs []uuid.UUID
	if raw := ctx.QueryParam("account_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				return c.BadRequest(errors.ErrInvalidInput, "Invalid account id in filter")
			}
			accountIDs = append(accountIDs, id)
		}
	}

	events, appErr := c.eventSvc.ListEvents(ctx.Request().Context(), userID, accountIDs, from, to)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	resp := dto.EventListResponse{From: from, To: to, Events: make([]dto.EventResponse, 0, len(events))}
	for i := range events {
		resp.Events = append(resp.Events, dto.ToEventResponse(&events[i]))
	}
	return c.SuccessResponse(ctx, resp, "Events retrieved")
}

// GetConflicts returns only conflicted events in a window
// GET /api/v1/private/calendar/conflicts?from=...&to=...
func (c *CalendarController) GetConflicts(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	from, to, err := parseWindow(ctx)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, err.Error())
	}

	events, appErr := c.conflictSvc.ListConflicts(ctx.Request().Context(), userID, from, to)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	resp := dto.EventListResponse{From: from, To: to, Events: make([]dto.EventResponse, 0, len(events))}
	for i := range events {
		resp.Events = append(resp.Events, dto.ToEventResponse(&events[i]))
	}
	return c.SuccessResponse(ctx, resp, "Conflicts retrieved")
}

// SyncNow triggers an immediate sync of all of the user's accounts
// POST /api/v1/private/calendar/sync
func (c *CalendarController) SyncNow(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	summary, appErr := c.syncSvc.SyncOwner(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, dto.SyncResponse{Synced: summary.Synced, Failed: summary.Failed}, "Sync completed")
}

// ExportICS renders the timeline as an iCalendar feed
// GET /api/v1/private/calendar/export.ics?from=...&to=...
func (c *CalendarController) ExportICS(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	from, to, err := parseWindow(ctx)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, err.Error())
	}

	feed, appErr := c.icsSvc.Export(ctx.Request().Context(), userID, from, to)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return ctx.Blob(http.StatusOK, "text/calendar", feed)
}

// parseWindow reads the from/to query pair, defaulting to the rolling
// sync window when absent.
func parseWindow(ctx echo.Context) (time.Time, time.Time, error) {
	fromStr := ctx.QueryParam("from")
	toStr := ctx.QueryParam("to")

	from, to := service.SyncWindow(time.Now())
	var err error
	if fromStr != "" {
		if from, err = time.Parse(time.RFC3339, fromStr); err != nil {
			return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "invalid from")
		}
	}
	if toStr != "" {
		if to, err = time.Parse(time.RFC3339, toStr); err != nil {
			return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "invalid to")
		}
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "from must precede to")
	}
	return from, to, nil
}
