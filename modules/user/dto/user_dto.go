package dto

import "unified-calendar/modules/user/entity"

type UserResponse struct {
	ID                         string  `json:"id"`
	Email                      string  `json:"email"`
	Name                       string  `json:"name"`
	PublicUsername             *string `json:"public_username,omitempty"`
	Timezone                   string  `json:"timezone"`
	DefaultSlotDurationMinutes int     `json:"default_slot_duration_minutes"`
}

func ToUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:                         u.ID.String(),
		Email:                      u.Email,
		Name:                       u.Name,
		PublicUsername:             u.PublicUsername,
		Timezone:                   u.Timezone,
		DefaultSlotDurationMinutes: u.DefaultSlotDurationMinutes,
	}
}

// UpdateSchedulingRequest adjusts the owner's booking defaults.
type UpdateSchedulingRequest struct {
	Timezone                   string `json:"timezone"`
	DefaultSlotDurationMinutes int    `json:"default_slot_duration_minutes"`
}
