package repo

import (
	"context"
	"time"

	"covergen/internal/domain"
	"covergen/internal/infra"
	"covergen/internal/sqlinline"
)

// PredictionRepositoryPG implements domain.PredictionRepository.
type PredictionRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewPredictionRepository(sql infra.SQLExecutor) *PredictionRepositoryPG {
	return &PredictionRepositoryPG{sql: sql}
}

// Create inserts a prediction row. A row that already exists yields domain.ErrDuplicate.
func (r *PredictionRepositoryPG) Create(ctx context.Context, job *domain.PredictionJob) error {
	created := job.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertPrediction,
		job.PredictionID,
		job.CourseID,
		string(job.Status),
		job.ModelName,
		nullableBytes(job.InputData),
		created,
	)
	if infra.IsUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	return err
}

// UpdateStatus records a webhook-reported status.
func (r *PredictionRepositoryPG) UpdateStatus(ctx context.Context, predictionID string, status domain.PredictionStatus) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdatePredictionStatus, predictionID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID fetches a prediction by its provider id.
func (r *PredictionRepositoryPG) GetByID(ctx context.Context, predictionID string) (*domain.PredictionJob, error) {
	return scanPrediction(r.sql.QueryRow(ctx, sqlinline.QSelectPrediction, predictionID))
}

// LatestForCourse returns the most recent prediction of a course.
func (r *PredictionRepositoryPG) LatestForCourse(ctx context.Context, courseID string) (*domain.PredictionJob, error) {
	return scanPrediction(r.sql.QueryRow(ctx, sqlinline.QSelectLatestPrediction, courseID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrediction(row rowScanner) (*domain.PredictionJob, error) {
	var (
		job    domain.PredictionJob
		status string
		input  []byte
	)
	if err := row.Scan(&job.PredictionID, &job.CourseID, &status, &job.ModelName, &input, &job.CreatedAt, &job.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.Status = domain.PredictionStatus(status)
	job.InputData = input
	return &job, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
