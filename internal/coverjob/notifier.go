package coverjob

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"covergen/internal/domain"
	"covergen/internal/infra"
	"covergen/internal/retry"
)

// persistRetries is the number of extra attempts for a prediction insert.
const persistRetries = 2

// Publisher fans progress events out to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, event domain.ProgressEvent) error
}

// NotifierOptions configures a Notifier.
type NotifierOptions struct {
	Predictions domain.PredictionRepository
	Progress    domain.ProgressRepository
	Publisher   Publisher
	Logger      *infra.Logger
	Sleep       func(ctx context.Context, d time.Duration) error
	Now         func() time.Time
}

// Notifier records prediction rows and progress milestones. Neither
// operation lets a storage failure escape to the request.
type Notifier struct {
	predictions domain.PredictionRepository
	progress    domain.ProgressRepository
	publisher   Publisher
	logger      *infra.Logger
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time
}

func NewNotifier(opts NotifierOptions) *Notifier {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Notifier{
		predictions: opts.Predictions,
		progress:    opts.Progress,
		publisher:   opts.Publisher,
		logger:      logger,
		sleep:       opts.Sleep,
		now:         now,
	}
}

// PersistJob inserts the prediction row. An already recorded prediction
// counts as success. Other failures are retried, then logged; the returned
// error is informational and callers continue regardless.
func (n *Notifier) PersistJob(ctx context.Context, job domain.PredictionJob) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = n.now()
	}
	policy := retry.Policy{
		MaxRetries: persistRetries,
		Sleep:      n.sleep,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			n.logger.Warn().
				Err(err).
				Str("prediction_id", job.PredictionID).
				Int("attempt", attempt).
				Dur("sleep", delay).
				Msg("persist prediction retrying")
		},
	}
	_, err := retry.Do(ctx, policy, func(error) bool { return true }, func(ctx context.Context) (struct{}, error) {
		err := n.predictions.Create(ctx, &job)
		if errors.Is(err, domain.ErrDuplicate) {
			n.logger.Info().Str("prediction_id", job.PredictionID).Msg("prediction already recorded")
			return struct{}{}, nil
		}
		return struct{}{}, err
	})
	if err != nil {
		n.logger.Error().
			Err(err).
			Str("prediction_id", job.PredictionID).
			Str("course_id", job.CourseID).
			Msg("persist prediction failed")
	}
	return err
}

// Notify appends a progress event and publishes it. Failures are logged only.
func (n *Notifier) Notify(ctx context.Context, courseID string, phase domain.ProgressPhase, details any) {
	event := domain.ProgressEvent{
		EventType: domain.ProgressEventType,
		CourseID:  courseID,
		Status:    phase,
		Timestamp: n.now(),
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			n.logger.Warn().Err(err).Str("course_id", courseID).Msg("encode progress details")
		} else {
			event.Details = raw
		}
	}
	if n.progress != nil {
		if err := n.progress.Append(ctx, &event); err != nil {
			n.logger.Warn().
				Err(err).
				Str("course_id", courseID).
				Str("phase", string(phase)).
				Msg("record progress event failed")
		}
	}
	if n.publisher != nil {
		if err := n.publisher.Publish(ctx, event); err != nil {
			n.logger.Warn().
				Err(err).
				Str("course_id", courseID).
				Str("phase", string(phase)).
				Msg("publish progress event failed")
		}
	}
}
