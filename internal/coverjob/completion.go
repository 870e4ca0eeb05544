package coverjob

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"covergen/internal/domain"
	"covergen/internal/providers/replicate"
	"covergen/internal/storage"
)

// Downloader fetches a prediction output file.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, string, error)
}

// ObjectStore stores cover images and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// Completion is the applied effect of one webhook delivery.
type Completion struct {
	CourseID      string
	PredictionID  string
	Status        domain.PredictionStatus
	CoverImageURL string
	// Final is set once the provider will send no further updates.
	Final bool
}

// CompleterOptions wires a Completer.
type CompleterOptions struct {
	Courses     domain.CourseRepository
	Predictions domain.PredictionRepository
	Notifier    *Notifier
	Downloader  Downloader
	Store       ObjectStore
}

// Completer applies provider webhooks: it tracks prediction status and, on
// success, stores the image and attaches it to the course.
type Completer struct {
	courses     domain.CourseRepository
	predictions domain.PredictionRepository
	notifier    *Notifier
	downloader  Downloader
	store       ObjectStore
}

func NewCompleter(opts CompleterOptions) *Completer {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NewNotifier(NotifierOptions{Predictions: opts.Predictions})
	}
	return &Completer{
		courses:     opts.Courses,
		predictions: opts.Predictions,
		notifier:    notifier,
		downloader:  opts.Downloader,
		store:       opts.Store,
	}
}

// CoverKey is the object key of a course cover produced by a prediction.
func CoverKey(courseID, predictionID, ext string) string {
	return fmt.Sprintf("course-covers/%s/%s.%s", courseID, predictionID, ext)
}

// Apply processes a webhook payload. courseHint is the course id carried on
// the callback URL; a recorded prediction row takes precedence over it.
func (c *Completer) Apply(ctx context.Context, courseHint string, pred *replicate.Prediction) (*Completion, error) {
	if pred == nil || strings.TrimSpace(pred.ID) == "" {
		return nil, &Error{Kind: KindValidation, Message: "prediction id is required"}
	}
	status := domain.PredictionStatus(pred.Status)
	out := &Completion{
		PredictionID: pred.ID,
		Status:       status,
		CourseID:     strings.TrimSpace(courseHint),
		Final:        status.Terminal(),
	}

	job, err := c.predictions.GetByID(ctx, pred.ID)
	switch {
	case err == nil:
		out.CourseID = job.CourseID
		if err := c.predictions.UpdateStatus(ctx, pred.ID, status); err != nil {
			return nil, newError(KindPersistence, "Failed to update prediction", err)
		}
	case errors.Is(err, domain.ErrNotFound):
		if out.CourseID == "" {
			return nil, &Error{Kind: KindNotFound, Message: "Prediction not found", Err: err}
		}
		// The row was lost when the request swallowed a persistence failure.
		_ = c.notifier.PersistJob(ctx, domain.PredictionJob{
			PredictionID: pred.ID,
			CourseID:     out.CourseID,
			Status:       status,
			ModelName:    pred.Model,
			InputData:    pred.Input,
		})
	default:
		return nil, newError(KindPersistence, "Failed to load prediction", err)
	}

	switch status {
	case domain.PredictionSucceeded:
		url, err := c.storeOutput(ctx, out.CourseID, pred)
		if err != nil {
			c.notifier.Notify(ctx, out.CourseID, domain.PhaseFailed, map[string]any{
				"predictionId": pred.ID,
				"error":        err.Error(),
			})
			return nil, err
		}
		out.CoverImageURL = url
		c.notifier.Notify(ctx, out.CourseID, domain.PhaseCompleted, map[string]any{
			"predictionId":  pred.ID,
			"coverImageUrl": url,
		})
	case domain.PredictionFailed, domain.PredictionCanceled:
		c.notifier.Notify(ctx, out.CourseID, domain.PhaseFailed, map[string]any{
			"predictionId": pred.ID,
			"status":       status,
			"error":        pred.ErrorMessage(),
		})
	}
	return out, nil
}

func (c *Completer) storeOutput(ctx context.Context, courseID string, pred *replicate.Prediction) (string, error) {
	urls := pred.OutputURLs()
	if len(urls) == 0 {
		return "", &Error{Kind: KindExternalAPI, Message: "Prediction succeeded without output"}
	}
	data, contentType, err := c.downloader.Download(ctx, urls[0])
	if err != nil {
		return "", newError(KindExternalAPI, "Failed to download cover", err)
	}
	key := CoverKey(courseID, pred.ID, storage.ExtensionFor(contentType, urls[0]))
	url, err := c.store.Put(ctx, key, data)
	if err != nil {
		return "", newError(KindPersistence, "Failed to store cover", err)
	}
	if err := c.courses.SetCoverImageURL(ctx, courseID, url); err != nil {
		return "", newError(KindPersistence, "Failed to update course cover", err)
	}
	return url, nil
}
