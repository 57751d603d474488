package store

import (
	"time"

	"room-turnover-backend/internal/model"
)

// Durations groups the elapsed-seconds measures of a turnover. Nil means not computed yet.
type Durations struct {
	Total    *float64 `json:"total"`
	Teardown *float64 `json:"teardown"`
	Cleaning *float64 `json:"cleaning"`
	Setup    *float64 `json:"setup"`
}

// DurationsOf extracts the duration columns of t.
func DurationsOf(t model.Turnover) Durations {
	return Durations{
		Total:    t.TotalDuration,
		Teardown: t.TeardownDuration,
		Cleaning: t.CleaningDuration,
		Setup:    t.SetupDuration,
	}
}

// ActiveTurnover is the in-progress turnover attached to a room listing.
type ActiveTurnover struct {
	ID             int64       `json:"id"`
	OperatorID     int64       `json:"operator_id"`
	Stage          model.Stage `json:"stage"`
	StartedAt      time.Time   `json:"started_at"`
	StageStartedAt time.Time   `json:"stage_started_at"`
	Durations      Durations   `json:"durations"`
}

// RoomView is a room joined with its active turnover, if any.
type RoomView struct {
	model.Room
	Turnover *ActiveTurnover `json:"turnover"`
}

// AdvanceResult describes a successful stage transition.
type AdvanceResult struct {
	Turnover model.Turnover
	From     model.Stage
	To       model.Stage
	// Elapsed is the number of seconds spent in From.
	Elapsed float64
}

// Completed reports whether the transition finished the turnover.
func (r AdvanceResult) Completed() bool {
	return r.To.Terminal()
}
