package domain

import "context"

// CourseRepository reads and updates catalog courses.
type CourseRepository interface {
	GetByID(ctx context.Context, id string) (*Course, error)
	SetCoverImageURL(ctx context.Context, id, url string) error
}

// ProfileRepository resolves platform roles.
type ProfileRepository interface {
	RoleForUser(ctx context.Context, userID string) (UserRole, error)
}

// PredictionRepository persists external generation jobs.
type PredictionRepository interface {
	Create(ctx context.Context, job *PredictionJob) error
	UpdateStatus(ctx context.Context, predictionID string, status PredictionStatus) error
	GetByID(ctx context.Context, predictionID string) (*PredictionJob, error)
	LatestForCourse(ctx context.Context, courseID string) (*PredictionJob, error)
}

// ProgressRepository appends and lists progress events.
type ProgressRepository interface {
	Append(ctx context.Context, event *ProgressEvent) error
	ListForCourse(ctx context.Context, filter ProgressFilter) ([]ProgressEvent, error)
}

// ProgressFilter narrows ListForCourse.
type ProgressFilter struct {
	CourseID  string
	EventType string
	Status    ProgressPhase
	Limit     int
}
