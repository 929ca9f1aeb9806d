package dto

import (
	"time"

	"unified-calendar/modules/calendar/entity"

	"github.com/google/uuid"
)

// ========== Account DTOs ==========

// ConnectAccountRequest registers tokens already obtained by the
// external OAuth flow as a calendar connection.
type ConnectAccountRequest struct {
	Provider       string    `json:"provider" validate:"required"`
	Email          string    `json:"email" validate:"required,email"`
	AccessToken    string    `json:"access_token" validate:"required"`
	RefreshToken   string    `json:"refresh_token" validate:"required"`
	TokenExpiresAt time.Time `json:"token_expires_at" validate:"required"`
}

// AccountResponse represents a connected calendar account
type AccountResponse struct {
	ID           string     `json:"id"`
	Provider     string     `json:"provider"`
	Email        string     `json:"email"`
	IsActive     bool       `json:"is_active"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	ConnectedAt  time.Time  `json:"connected_at"`
}

// AccountListResponse represents the user's connected accounts
type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

func ToAccountResponse(a *entity.Account) AccountResponse {
	return AccountResponse{
		ID:           a.ID.String(),
		Provider:     string(a.Provider),
		Email:        a.Email,
		IsActive:     a.IsActive,
		LastSyncedAt: a.LastSyncedAt,
		ConnectedAt:  a.CreatedAt,
	}
}

// ========== Event DTOs ==========

// EventResponse represents one event on the unified timeline. Mirror
// blockers carry only their time range and the fixed blocker title.
type EventResponse struct {
	ID           string      `json:"id"`
	AccountID    string      `json:"account_id"`
	Provider     string      `json:"provider"`
	Title        string      `json:"title"`
	Location     *string     `json:"location,omitempty"`
	StartTime    time.Time   `json:"start_time"`
	EndTime      time.Time   `json:"end_time"`
	AllDay       bool        `json:"all_day"`
	IsMirror     bool        `json:"is_mirror"`
	HasConflict  bool        `json:"has_conflict"`
	ConflictWith []uuid.UUID `json:"conflict_with,omitempty"`
}

// EventListResponse represents the merged timeline for a window
type EventListResponse struct {
	Events []EventResponse `json:"events"`
	From   time.Time       `json:"from"`
	To     time.Time       `json:"to"`
}

func ToEventResponse(e *entity.Event) EventResponse {
	return EventResponse{
		ID:           e.ID.String(),
		AccountID:    e.AccountID.String(),
		Provider:     e.Provider,
		Title:        e.Title,
		Location:     e.Location,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		AllDay:       e.AllDay,
		IsMirror:     e.IsMirror,
		HasConflict:  e.HasConflict,
		ConflictWith: e.GetConflictWith(),
	}
}

// ========== Sync DTOs ==========

// SyncResponse reports a manual sync run
type SyncResponse struct {
	Synced []uuid.UUID `json:"synced"`
	Failed []uuid.UUID `json:"failed"`
}
