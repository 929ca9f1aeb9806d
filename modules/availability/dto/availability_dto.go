package dto

import (
	"time"

	"unified-calendar/core/interval"
	"unified-calendar/modules/availability/entity"
)

// RuleRequest is one weekly window in a replace-all save.
type RuleRequest struct {
	DayOfWeek           int    `json:"day_of_week"`
	StartTime           string `json:"start_time"` // "HH:MM"
	EndTime             string `json:"end_time"`
	Timezone            string `json:"timezone,omitempty"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
}

// SetRulesRequest replaces the owner's entire weekly schedule.
type SetRulesRequest struct {
	Rules []RuleRequest `json:"rules"`
}

func (r *SetRulesRequest) ToEntities() []entity.AvailabilityRule {
	rules := make([]entity.AvailabilityRule, 0, len(r.Rules))
	for _, req := range r.Rules {
		rules = append(rules, entity.AvailabilityRule{
			DayOfWeek:           req.DayOfWeek,
			StartTime:           req.StartTime,
			EndTime:             req.EndTime,
			Timezone:            req.Timezone,
			SlotDurationMinutes: req.SlotDurationMinutes,
		})
	}
	return rules
}

type RuleResponse struct {
	ID                  string `json:"id"`
	DayOfWeek           int    `json:"day_of_week"`
	StartTime           string `json:"start_time"`
	EndTime             string `json:"end_time"`
	Timezone            string `json:"timezone"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
}

type RuleListResponse struct {
	Rules []RuleResponse `json:"rules"`
}

func ToRuleListResponse(rules []entity.AvailabilityRule) RuleListResponse {
	resp := RuleListResponse{Rules: make([]RuleResponse, 0, len(rules))}
	for i := range rules {
		resp.Rules = append(resp.Rules, RuleResponse{
			ID:                  rules[i].ID.String(),
			DayOfWeek:           rules[i].DayOfWeek,
			StartTime:           rules[i].StartTime,
			EndTime:             rules[i].EndTime,
			Timezone:            rules[i].Timezone,
			SlotDurationMinutes: rules[i].SlotDurationMinutes,
		})
	}
	return resp
}

type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type SlotListResponse struct {
	Slots           []SlotResponse `json:"slots"`
	DurationMinutes int            `json:"duration_minutes"`
}

func ToSlotListResponse(slots []interval.Interval, durationMinutes int) SlotListResponse {
	resp := SlotListResponse{
		Slots:           make([]SlotResponse, 0, len(slots)),
		DurationMinutes: durationMinutes,
	}
	for _, s := range slots {
		resp.Slots = append(resp.Slots, SlotResponse{Start: s.Start, End: s.End})
	}
	return resp
}
