package model

import "time"

// RoomStatus is the coarse occupancy state of a room.
type RoomStatus string

const (
	RoomFree       RoomStatus = "free"
	RoomOccupied   RoomStatus = "occupied"
	RoomInTurnover RoomStatus = "in_turnover"
)

// Room represents a hospital room whose turnovers are tracked.
type Room struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	Label       string     `gorm:"uniqueIndex;size:64;not null" json:"label"`
	Status      RoomStatus `gorm:"size:16;not null;default:free;index" json:"status"`
	LastUpdated time.Time  `gorm:"not null" json:"last_updated"`
}
