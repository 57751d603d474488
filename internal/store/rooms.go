package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"room-turnover-backend/internal/model"
	"room-turnover-backend/internal/parse"
)

// ListRooms returns every room in natural label order, each joined with its active turnover.
func (s *gormStore) ListRooms(ctx context.Context) ([]RoomView, error) {
	db := s.db.WithContext(ctx)

	var rooms []model.Room
	if err := db.Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve rooms: %w", err)
	}

	var active []model.Turnover
	if err := db.Where("status = ?", model.TurnoverInProgress).Find(&active).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve active turnovers: %w", err)
	}

	activeMap := make(map[int64]model.Turnover, len(active))
	for _, t := range active {
		activeMap[t.RoomID] = t
	}

	sort.SliceStable(rooms, func(i, j int) bool {
		return parse.LessRoomLabel(rooms[i].Label, rooms[j].Label)
	})

	views := make([]RoomView, 0, len(rooms))
	for _, r := range rooms {
		view := RoomView{Room: r}
		if t, ok := activeMap[r.ID]; ok {
			view.Turnover = &ActiveTurnover{
				ID:             t.ID,
				OperatorID:     t.OperatorID,
				Stage:          t.Stage,
				StartedAt:      t.StartedAt,
				StageStartedAt: t.StageStartedAt,
				Durations:      DurationsOf(t),
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// GetRoom returns a single room.
func (s *gormStore) GetRoom(ctx context.Context, roomID int64) (model.Room, error) {
	return findRoom(s.db.WithContext(ctx), roomID)
}

// MarkOccupied flags a room as occupied and refreshes its timestamp. A room
// with an active turnover cannot be marked occupied.
func (s *gormStore) MarkOccupied(ctx context.Context, roomID int64) (model.Room, error) {
	now := s.clock()

	var room model.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Room{}).
			Where("id = ? AND status <> ?", roomID, model.RoomInTurnover).
			Updates(map[string]any{"status": model.RoomOccupied, "last_updated": now})
		if res.Error != nil {
			return fmt.Errorf("failed to mark room %d occupied: %w", roomID, res.Error)
		}

		found, err := findRoom(tx, roomID)
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("room %d is in turnover: %w", roomID, ErrConflict)
		}
		room = found
		return nil
	})
	return room, err
}

func findRoom(tx *gorm.DB, roomID int64) (model.Room, error) {
	var room model.Room
	if err := tx.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Room{}, fmt.Errorf("room %d: %w", roomID, ErrNotFound)
		}
		return model.Room{}, fmt.Errorf("failed to retrieve room %d: %w", roomID, err)
	}
	return room, nil
}
