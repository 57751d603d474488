package model

import "time"

// TurnoverStatus is the lifecycle state of a turnover record.
type TurnoverStatus string

const (
	TurnoverInProgress TurnoverStatus = "in_progress"
	TurnoverCompleted  TurnoverStatus = "completed"
)

// Turnover is one room-service cycle, from vacating to ready-for-next-use.
// Rows are never deleted; completed turnovers are the historical record.
type Turnover struct {
	ID         int64          `gorm:"primaryKey" json:"id"`
	RoomID     int64          `gorm:"not null;index" json:"room_id"`
	OperatorID int64          `gorm:"not null;index" json:"operator_id"`
	Stage      Stage          `gorm:"size:16;not null" json:"stage"`
	Status     TurnoverStatus `gorm:"size:16;not null;index" json:"status"`

	// ActiveRoomID mirrors RoomID while the turnover is in progress and is
	// NULL afterwards. The unique index caps active turnovers at one per room.
	ActiveRoomID *int64 `gorm:"uniqueIndex" json:"-"`

	StartedAt      time.Time  `gorm:"not null;index" json:"started_at"`
	StageStartedAt time.Time  `gorm:"not null" json:"stage_started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`

	// Durations in seconds; nil until computed.
	TotalDuration    *float64 `json:"total_duration"`
	TeardownDuration *float64 `json:"teardown_duration"`
	CleaningDuration *float64 `json:"cleaning_duration"`
	SetupDuration    *float64 `json:"setup_duration"`

	// Associations
	Room     Room     `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Operator Operator `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

// Active reports whether the turnover has not reached completion.
func (t Turnover) Active() bool {
	return t.Status == TurnoverInProgress
}

// TurnoverEvent is an append-only log entry written for every stage transition.
type TurnoverEvent struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	TurnoverID     int64     `gorm:"not null;index" json:"turnover_id"`
	FromStage      Stage     `gorm:"size:16;not null" json:"from_stage"`
	ToStage        Stage     `gorm:"size:16;not null" json:"to_stage"`
	OccurredAt     time.Time `gorm:"not null" json:"occurred_at"`
	ElapsedSeconds float64   `gorm:"not null" json:"elapsed_seconds"`
	OperatorID     int64     `gorm:"not null" json:"operator_id"`
}
