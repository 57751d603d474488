package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"room-turnover-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	ListRooms(ctx context.Context) ([]RoomView, error)
	GetRoom(ctx context.Context, roomID int64) (model.Room, error)
	MarkOccupied(ctx context.Context, roomID int64) (model.Room, error)

	StartTurnover(ctx context.Context, roomID, operatorID int64) (model.Turnover, error)
	AdvanceStage(ctx context.Context, roomID, operatorID int64, expected model.Stage) (AdvanceResult, error)
	TurnoverEvents(ctx context.Context, turnoverID int64) ([]model.TurnoverEvent, error)

	FindOperatorByEmail(ctx context.Context, email string) (model.Operator, error)

	SaveSubscription(ctx context.Context, sub model.PushSubscription, roomIDs []int64) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionRoomIDs(ctx context.Context, endpoint string) ([]int64, error)
	SubscriptionsForRoom(ctx context.Context, roomID int64) ([]model.PushSubscription, error)

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// Option customizes a gormStore.
type Option func(*gormStore)

// WithClock replaces the time source used to stamp transitions.
func WithClock(now func() time.Time) Option {
	return func(s *gormStore) {
		s.now = now
	}
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts ...Option) Store {
	s := &gormStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying handle for read-only projections.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) clock() time.Time {
	return s.now().UTC()
}
