package coverjob

import (
	"context"
	"errors"
	"strings"

	"covergen/internal/domain"
)

const maxStatusEvents = 100

// StatusRequest asks for the cover state of a course.
type StatusRequest struct {
	CourseID  string
	Token     string
	EventType string
	Status    string
	Limit     int
}

// CoverStatus summarizes a course's cover and its generation history.
type CoverStatus struct {
	CourseID      string
	CoverImageURL string
	Latest        *domain.PredictionJob
	Events        []domain.ProgressEvent
}

// Status returns the cover, latest prediction and recent progress events of
// a course. It requires the same roles as Generate.
func (s *Service) Status(ctx context.Context, req StatusRequest) (res *CoverStatus, err error) {
	defer s.recoverPanic(&err)

	courseID := strings.TrimSpace(req.CourseID)
	if courseID == "" {
		return nil, &Error{Kind: KindValidation, Message: "courseId is required"}
	}
	if req.Limit < 0 || req.Limit > maxStatusEvents {
		return nil, &Error{Kind: KindValidation, Message: "limit must be between 0 and 100"}
	}
	if _, aerr := s.authorize(ctx, req.Token); aerr != nil {
		return nil, aerr
	}
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &Error{Kind: KindNotFound, Message: "Course not found", Err: err}
		}
		return nil, newError(KindUnknown, "Failed to load course", err)
	}
	out := &CoverStatus{CourseID: course.ID, CoverImageURL: course.CoverImageURL}

	latest, err := s.predictions.LatestForCourse(ctx, course.ID)
	switch {
	case err == nil:
		out.Latest = latest
	case !errors.Is(err, domain.ErrNotFound):
		return nil, newError(KindPersistence, "Failed to load predictions", err)
	}

	events, err := s.progress.ListForCourse(ctx, domain.ProgressFilter{
		CourseID:  course.ID,
		EventType: strings.TrimSpace(req.EventType),
		Status:    domain.ProgressPhase(strings.TrimSpace(req.Status)),
		Limit:     req.Limit,
	})
	if err != nil {
		return nil, newError(KindPersistence, "Failed to load progress events", err)
	}
	out.Events = events
	return out, nil
}
