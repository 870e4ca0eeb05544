package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"covergen/internal/domain"
	"covergen/internal/infra"
	"covergen/internal/sqlinline"
)

const defaultProgressLimit = 20

// ProgressRepositoryPG implements domain.ProgressRepository.
type ProgressRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewProgressRepository(sql infra.SQLExecutor) *ProgressRepositoryPG {
	return &ProgressRepositoryPG{sql: sql}
}

// Append inserts event, filling its id, type and timestamp when unset.
func (r *ProgressRepositoryPG) Append(ctx context.Context, event *domain.ProgressEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.EventType == "" {
		event.EventType = domain.ProgressEventType
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertProgressEvent,
		event.ID,
		event.EventType,
		event.CourseID,
		string(event.Status),
		nullableBytes(event.Details),
		event.Timestamp,
	)
	return err
}

// ListForCourse returns the newest events of a course first.
func (r *ProgressRepositoryPG) ListForCourse(ctx context.Context, filter domain.ProgressFilter) ([]domain.ProgressEvent, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultProgressLimit
	}
	query, args, err := sqlinline.BuildListProgressEvents(sqlinline.ProgressEventsQuery{
		CourseID:  filter.CourseID,
		EventType: filter.EventType,
		Status:    string(filter.Status),
		Limit:     uint64(limit),
	})
	if err != nil {
		return nil, err
	}
	rows, err := r.sql.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.ProgressEvent, 0, limit)
	for rows.Next() {
		var (
			ev      domain.ProgressEvent
			status  string
			details []byte
		)
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.CourseID, &status, &details, &ev.Timestamp); err != nil {
			return nil, err
		}
		ev.Status = domain.ProgressPhase(status)
		ev.Details = details
		events = append(events, ev)
	}
	return events, rows.Err()
}
