package sqlinline

import (
	sq "github.com/Masterminds/squirrel"
)

const QInsertProgressEvent = `--sql 43ee55b6-859a-4a71-9e0e-baa611167317
insert into progress_events (id, event_type, course_id, status, details, "timestamp")
values ($1::uuid, $2::text, $3::text, $4::text, coalesce($5::jsonb, '{}'::jsonb), $6::timestamptz);
`

// MarkerListProgressEvents tags the dynamically built progress listing.
const MarkerListProgressEvents = "--sql a9b132e5-aa5c-47d9-a8ae-e872ab9d2ec3"

// ProgressEventsQuery holds the optional filters of the progress listing.
type ProgressEventsQuery struct {
	CourseID  string
	EventType string
	Status    string
	Limit     uint64
}

// BuildListProgressEvents renders the listing query with its marker line.
func BuildListProgressEvents(q ProgressEventsQuery) (string, []any, error) {
	b := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("id::text", "event_type", "course_id", "status", "details", `"timestamp"`).
		From("progress_events").
		Where(sq.Eq{"course_id": q.CourseID})
	if q.EventType != "" {
		b = b.Where(sq.Eq{"event_type": q.EventType})
	}
	if q.Status != "" {
		b = b.Where(sq.Eq{"status": q.Status})
	}
	b = b.OrderBy(`"timestamp" desc`)
	if q.Limit > 0 {
		b = b.Limit(q.Limit)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return "", nil, err
	}
	return MarkerListProgressEvents + "\n" + query, args, nil
}
