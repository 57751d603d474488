package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"room-turnover-backend/internal/model"
)

// StartTurnover opens a turnover on a room and moves the room to in_turnover.
// Both writes share one transaction.
func (s *gormStore) StartTurnover(ctx context.Context, roomID, operatorID int64) (model.Turnover, error) {
	now := s.clock()

	var created model.Turnover
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := findRoom(tx, roomID)
		if err != nil {
			return err
		}
		if room.Status == model.RoomInTurnover {
			return fmt.Errorf("room %d already has an active turnover: %w", roomID, ErrConflict)
		}

		var activeCount int64
		if err := tx.Model(&model.Turnover{}).
			Where("room_id = ? AND status = ?", roomID, model.TurnoverInProgress).
			Count(&activeCount).Error; err != nil {
			return fmt.Errorf("failed to check active turnovers for room %d: %w", roomID, err)
		}
		if activeCount > 0 {
			return fmt.Errorf("room %d already has an active turnover: %w", roomID, ErrConflict)
		}

		// Compare-and-set: a concurrent start that committed first leaves nothing to update.
		res := tx.Model(&model.Room{}).
			Where("id = ? AND status <> ?", roomID, model.RoomInTurnover).
			Updates(map[string]any{"status": model.RoomInTurnover, "last_updated": now})
		if res.Error != nil {
			return fmt.Errorf("failed to update room %d: %w", roomID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("room %d already has an active turnover: %w", roomID, ErrConflict)
		}

		active := roomID
		created = model.Turnover{
			RoomID:         roomID,
			OperatorID:     operatorID,
			Stage:          model.StageTeardown,
			Status:         model.TurnoverInProgress,
			ActiveRoomID:   &active,
			StartedAt:      now,
			StageStartedAt: now,
		}
		if err := tx.Omit(clause.Associations).Create(&created).Error; err != nil {
			return fmt.Errorf("failed to create turnover for room %d: %w", roomID, err)
		}
		return nil
	})
	if err != nil {
		return model.Turnover{}, err
	}
	return created, nil
}

// AdvanceStage moves the room's active turnover from expected to the next stage.
// Reaching completed also stamps the completion time, the total duration and
// frees the room, in the same transaction.
func (s *gormStore) AdvanceStage(ctx context.Context, roomID, operatorID int64, expected model.Stage) (AdvanceResult, error) {
	next, ok := expected.Next()
	if !ok {
		return AdvanceResult{}, fmt.Errorf("stage %q has no successor: %w", expected, ErrInvalidStage)
	}
	now := s.clock()

	var result AdvanceResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findRoom(tx, roomID); err != nil {
			return err
		}

		var current model.Turnover
		err := tx.Where("room_id = ? AND status = ?", roomID, model.TurnoverInProgress).First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("room %d has no active turnover: %w", roomID, ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to retrieve active turnover for room %d: %w", roomID, err)
		}
		if current.Stage != expected {
			return fmt.Errorf("turnover %d is at %q, not %q: %w", current.ID, current.Stage, expected, ErrStageMismatch)
		}

		elapsed := seconds(now.Sub(current.StageStartedAt))
		updates := map[string]any{
			"stage":            next,
			"stage_started_at": now,
		}
		if column, prev := phaseColumn(current, expected); column != "" {
			updates[column] = accumulate(prev, elapsed)
		}
		if next.Terminal() {
			updates["status"] = model.TurnoverCompleted
			updates["completed_at"] = now
			updates["total_duration"] = seconds(now.Sub(current.StartedAt))
			updates["active_room_id"] = nil
		}

		res := tx.Model(&model.Turnover{}).
			Where("id = ? AND stage = ? AND status = ?", current.ID, expected, model.TurnoverInProgress).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to advance turnover %d: %w", current.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("turnover %d moved past %q: %w", current.ID, expected, ErrStageMismatch)
		}

		if next.Terminal() {
			if err := tx.Model(&model.Room{}).
				Where("id = ?", roomID).
				Updates(map[string]any{"status": model.RoomFree, "last_updated": now}).Error; err != nil {
				return fmt.Errorf("failed to release room %d: %w", roomID, err)
			}
		}

		event := model.TurnoverEvent{
			TurnoverID:     current.ID,
			FromStage:      expected,
			ToStage:        next,
			OccurredAt:     now,
			ElapsedSeconds: elapsed,
			OperatorID:     operatorID,
		}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("failed to record transition for turnover %d: %w", current.ID, err)
		}

		var updated model.Turnover
		if err := tx.First(&updated, current.ID).Error; err != nil {
			return fmt.Errorf("failed to reload turnover %d: %w", current.ID, err)
		}

		result = AdvanceResult{Turnover: updated, From: expected, To: next, Elapsed: elapsed}
		return nil
	})
	if err != nil {
		return AdvanceResult{}, err
	}
	return result, nil
}

// TurnoverEvents returns the transition log of a turnover in order.
func (s *gormStore) TurnoverEvents(ctx context.Context, turnoverID int64) ([]model.TurnoverEvent, error) {
	var events []model.TurnoverEvent
	if err := s.db.WithContext(ctx).
		Where("turnover_id = ?", turnoverID).
		Order("occurred_at, id").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve events for turnover %d: %w", turnoverID, err)
	}
	return events, nil
}

// phaseColumn returns the duration column that accumulates time spent in stage.
func phaseColumn(t model.Turnover, stage model.Stage) (string, *float64) {
	switch stage {
	case model.StageTeardown:
		return "teardown_duration", t.TeardownDuration
	case model.StageCleaning:
		return "cleaning_duration", t.CleaningDuration
	case model.StageSetup:
		return "setup_duration", t.SetupDuration
	default:
		return "", nil
	}
}

func accumulate(prev *float64, elapsed float64) float64 {
	if prev == nil {
		return elapsed
	}
	return *prev + elapsed
}

// seconds converts d to seconds, clamping clock skew to zero.
func seconds(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return d.Seconds()
}
