package report

import (
	"context"
	"fmt"
	"iter"
	"time"

	"gorm.io/gorm"

	"room-turnover-backend/internal/model"
	"room-turnover-backend/internal/store"
)

const (
	// DefaultRecentLimit is used when callers pass a non-positive limit.
	DefaultRecentLimit = 100
	// MaxRecentLimit caps the size of a recent listing.
	MaxRecentLimit = 500
)

// Stats are aggregate counts over all turnovers.
type Stats struct {
	Total      int64 `json:"total_turnovers"`
	Completed  int64 `json:"completed_turnovers"`
	InProgress int64 `json:"in_progress"`
	// AverageDuration is the mean total duration in seconds over completed
	// turnovers with a positive duration, or 0 when there are none.
	AverageDuration float64 `json:"average_duration"`
}

// RecentTurnover is a turnover joined with its room and operator labels.
type RecentTurnover struct {
	ID          int64                `json:"id"`
	Room        string               `json:"room"`
	Operator    string               `json:"operator"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt *time.Time           `json:"completed_at"`
	Status      model.TurnoverStatus `json:"status"`
	Stage       model.Stage          `json:"stage"`
	Durations   store.Durations      `json:"durations"`
}

type summaryRow struct {
	Total      int64
	Completed  int64
	InProgress int64
	Average    *float64
}

// turnoverRecord is the flat row produced by the joined report query.
type turnoverRecord struct {
	ID               int64
	RoomLabel        *string
	OperatorName     *string
	StartedAt        time.Time
	CompletedAt      *time.Time
	Status           model.TurnoverStatus
	Stage            model.Stage
	TotalDuration    *float64
	TeardownDuration *float64
	CleaningDuration *float64
	SetupDuration    *float64
}

// Reporter builds read-only projections over rooms and turnovers.
type Reporter struct {
	db  *gorm.DB
	loc *time.Location
}

// NewReporter creates a Reporter rendering export timestamps in loc.
func NewReporter(db *gorm.DB, loc *time.Location) *Reporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Reporter{db: db, loc: loc}
}

// Summary returns aggregate counts and the mean completed duration.
func (r *Reporter) Summary(ctx context.Context) (Stats, error) {
	var row summaryRow
	err := r.db.WithContext(ctx).
		Model(&model.Turnover{}).
		Select(
			"COUNT(*) AS total, "+
				"COUNT(CASE WHEN status = ? THEN 1 END) AS completed, "+
				"COUNT(CASE WHEN status = ? THEN 1 END) AS in_progress, "+
				"AVG(CASE WHEN total_duration > 0 THEN total_duration END) AS average",
			model.TurnoverCompleted, model.TurnoverInProgress,
		).
		Scan(&row).Error
	if err != nil {
		return Stats{}, fmt.Errorf("failed to aggregate turnovers: %w", err)
	}

	stats := Stats{Total: row.Total, Completed: row.Completed, InProgress: row.InProgress}
	if row.Average != nil {
		stats.AverageDuration = *row.Average
	}
	return stats, nil
}

// Recent returns the newest turnovers by start time.
func (r *Reporter) Recent(ctx context.Context, limit int) ([]RecentTurnover, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	var records []turnoverRecord
	if err := r.joined(ctx).Limit(limit).Scan(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve recent turnovers: %w", err)
	}

	recent := make([]RecentTurnover, 0, len(records))
	for _, rec := range records {
		recent = append(recent, RecentTurnover{
			ID:          rec.ID,
			Room:        deref(rec.RoomLabel),
			Operator:    deref(rec.OperatorName),
			StartedAt:   rec.StartedAt,
			CompletedAt: rec.CompletedAt,
			Status:      rec.Status,
			Stage:       rec.Stage,
			Durations: store.Durations{
				Total:    rec.TotalDuration,
				Teardown: rec.TeardownDuration,
				Cleaning: rec.CleaningDuration,
				Setup:    rec.SetupDuration,
			},
		})
	}
	return recent, nil
}

// ExportRows yields one row per completed turnover, newest first. Every range
// over the returned sequence runs a fresh query.
func (r *Reporter) ExportRows(ctx context.Context) iter.Seq2[ExportRow, error] {
	return func(yield func(ExportRow, error) bool) {
		query := r.joined(ctx).Where("turnovers.status = ?", model.TurnoverCompleted)
		rows, err := query.Rows()
		if err != nil {
			yield(ExportRow{}, fmt.Errorf("failed to query completed turnovers: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var rec turnoverRecord
			if err := query.ScanRows(rows, &rec); err != nil {
				yield(ExportRow{}, fmt.Errorf("failed to scan turnover row: %w", err))
				return
			}
			if !yield(newExportRow(rec, r.loc), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(ExportRow{}, fmt.Errorf("failed to iterate turnover rows: %w", err))
		}
	}
}

func (r *Reporter) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("turnovers").
		Select("turnovers.id, turnovers.started_at, turnovers.completed_at, turnovers.status, turnovers.stage, " +
			"turnovers.total_duration, turnovers.teardown_duration, turnovers.cleaning_duration, turnovers.setup_duration, " +
			"rooms.label AS room_label, operators.name AS operator_name").
		Joins("LEFT JOIN rooms ON rooms.id = turnovers.room_id").
		Joins("LEFT JOIN operators ON operators.id = turnovers.operator_id").
		Order("turnovers.started_at DESC, turnovers.id DESC")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
