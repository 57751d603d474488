// Package turnover drives room turnovers through their stages. The store
// applies each transition atomically; the service adds the side effects that
// must only happen after a commit: metrics, cache invalidation and
// room-released notifications.
package turnover

import (
	"context"
	"errors"
	"log"

	"room-turnover-backend/internal/model"
	"room-turnover-backend/internal/store"
)

// Notifier is told about rooms that have just been released.
type Notifier interface {
	Dispatch(roomID int64)
}

// Recorder receives turnover metrics.
type Recorder interface {
	TurnoverStarted()
	StageAdvanced(from, to string, elapsed float64)
	TurnoverCompleted(total float64)
	Rejected(operation, reason string)
}

// Service applies turnover operations.
type Service struct {
	store    store.Store
	recorder Recorder
	notifier Notifier
	onChange []func()
}

// NewService creates a Service. recorder and notifier may be nil.
func NewService(s store.Store, recorder Recorder, notifier Notifier) *Service {
	return &Service{store: s, recorder: recorder, notifier: notifier}
}

// OnChange registers a hook run after every successful mutation.
func (svc *Service) OnChange(fn func()) {
	svc.onChange = append(svc.onChange, fn)
}

// Rooms lists rooms with their active turnovers.
func (svc *Service) Rooms(ctx context.Context) ([]store.RoomView, error) {
	return svc.store.ListRooms(ctx)
}

// MarkOccupied flags a room as occupied.
func (svc *Service) MarkOccupied(ctx context.Context, roomID int64) (model.Room, error) {
	room, err := svc.store.MarkOccupied(ctx, roomID)
	if err != nil {
		svc.reject("mark_occupied", err)
		return model.Room{}, err
	}
	svc.changed()
	return room, nil
}

// Start opens a turnover on a room on behalf of an operator.
func (svc *Service) Start(ctx context.Context, roomID, operatorID int64) (model.Turnover, error) {
	t, err := svc.store.StartTurnover(ctx, roomID, operatorID)
	if err != nil {
		svc.reject("start_turnover", err)
		return model.Turnover{}, err
	}

	log.Printf("Turnover %d started on room %d by operator %d", t.ID, roomID, operatorID)
	if svc.recorder != nil {
		svc.recorder.TurnoverStarted()
	}
	svc.changed()
	return t, nil
}

// Advance moves the room's active turnover past expected.
func (svc *Service) Advance(ctx context.Context, roomID, operatorID int64, expected model.Stage) (store.AdvanceResult, error) {
	res, err := svc.store.AdvanceStage(ctx, roomID, operatorID, expected)
	if err != nil {
		svc.reject("advance_stage", err)
		return store.AdvanceResult{}, err
	}

	if svc.recorder != nil {
		svc.recorder.StageAdvanced(string(res.From), string(res.To), res.Elapsed)
	}
	if res.Completed() {
		var total float64
		if res.Turnover.TotalDuration != nil {
			total = *res.Turnover.TotalDuration
		}
		log.Printf("Turnover %d completed on room %d after %.0fs", res.Turnover.ID, roomID, total)
		if svc.recorder != nil {
			svc.recorder.TurnoverCompleted(total)
		}
		if svc.notifier != nil {
			svc.notifier.Dispatch(roomID)
		}
	}
	svc.changed()
	return res, nil
}

func (svc *Service) changed() {
	for _, fn := range svc.onChange {
		fn()
	}
}

func (svc *Service) reject(operation string, err error) {
	if svc.recorder == nil {
		return
	}
	if reason := Reason(err); reason != "" {
		svc.recorder.Rejected(operation, reason)
	}
}

// Reason classifies a state-machine rejection. Storage failures yield "".
func Reason(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, store.ErrConflict):
		return "conflict"
	case errors.Is(err, store.ErrStageMismatch):
		return "stage_mismatch"
	case errors.Is(err, store.ErrInvalidStage):
		return "invalid_stage"
	default:
		return ""
	}
}
