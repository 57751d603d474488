package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"room-turnover-backend/internal/model"
)

// SaveSubscription creates or replaces a push subscription and the rooms it follows.
func (s *gormStore) SaveSubscription(ctx context.Context, sub model.PushSubscription, roomIDs []int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		rooms := make([]*model.Room, 0, len(roomIDs))
		if len(roomIDs) > 0 {
			if err := tx.Find(&rooms, roomIDs).Error; err != nil {
				return fmt.Errorf("failed to retrieve subscribed rooms: %w", err)
			}
		}

		if err := tx.Model(&sub).Association("Rooms").Replace(rooms); err != nil {
			return fmt.Errorf("failed to replace subscribed rooms: %w", err)
		}
		return nil
	})
}

// DeleteSubscription removes a subscription and its room mappings.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := model.PushSubscription{Endpoint: endpoint}
		if err := tx.Model(&sub).Association("Rooms").Clear(); err != nil {
			return fmt.Errorf("failed to clear subscribed rooms: %w", err)
		}
		if err := tx.Delete(&sub).Error; err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		return nil
	})
}

// SubscriptionRoomIDs returns the rooms followed by a subscription.
func (s *gormStore) SubscriptionRoomIDs(ctx context.Context, endpoint string) ([]int64, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).Preload("Rooms").First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("subscription: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve subscription: %w", err)
	}

	roomIDs := make([]int64, len(sub.Rooms))
	for i, room := range sub.Rooms {
		roomIDs[i] = room.ID
	}
	return roomIDs, nil
}

// SubscriptionsForRoom returns every subscription following a room.
func (s *gormStore) SubscriptionsForRoom(ctx context.Context, roomID int64) ([]model.PushSubscription, error) {
	var subscriptions []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_room_mapping srm ON srm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("srm.room_id = ?", roomID).
		Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve subscriptions for room %d: %w", roomID, err)
	}
	return subscriptions, nil
}
