// Package coverjob orchestrates course cover generation: it authorizes the
// caller, derives the prompt, starts the external prediction and records
// progress, and later applies the provider's completion webhook.
package coverjob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"covergen/internal/cover"
	"covergen/internal/domain"
	"covergen/internal/infra"
	"covergen/internal/providers/replicate"
)

const (
	msgExistingCover = "Course already has a cover image"
	msgStarted       = "Cover generation started"
)

// Authenticator resolves a bearer token to the calling identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Identity, error)
}

// Generator starts external predictions.
type Generator interface {
	CreatePrediction(ctx context.Context, req replicate.PredictionRequest) (*replicate.Prediction, error)
}

// TokenSource supplies the generation API token.
type TokenSource interface {
	ReplicateToken(ctx context.Context) (string, error)
}

// Request is the body of a generation call plus the caller's bearer token.
type Request struct {
	CourseID   string `json:"courseId" validate:"required,max=128"`
	Engine     string `json:"engine" validate:"omitempty,oneof=flux recraft"`
	Regenerate bool   `json:"regenerate"`
	Token      string `json:"-"`
}

// Result is the outcome of a successful Generate call. Existing is set when
// the course already had a cover and no prediction was started.
type Result struct {
	Existing         bool
	ExistingCoverURL string
	PredictionID     string
	CourseID         string
	Engine           domain.Engine
	Status           string
	Plan             cover.Plan
}

// Options wires the Service collaborators.
type Options struct {
	Courses     domain.CourseRepository
	Predictions domain.PredictionRepository
	Progress    domain.ProgressRepository
	Auth        Authenticator
	Generator   Generator
	Tokens      TokenSource
	Notifier    *Notifier
	// WebhookURL builds the completion callback for a course.
	WebhookURL func(courseID string) string
	// MissingConfig lists required settings found unset at startup.
	MissingConfig []string
	Logger        *infra.Logger
}

// Service runs cover generation requests.
type Service struct {
	courses     domain.CourseRepository
	predictions domain.PredictionRepository
	progress    domain.ProgressRepository
	auth        Authenticator
	generator   Generator
	tokens      TokenSource
	notifier    *Notifier
	webhookURL  func(string) string
	missing     []string
	validate    *validator.Validate
	logger      *infra.Logger
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NewNotifier(NotifierOptions{Predictions: opts.Predictions, Progress: opts.Progress, Logger: logger})
	}
	webhookURL := opts.WebhookURL
	if webhookURL == nil {
		webhookURL = func(string) string { return "" }
	}
	return &Service{
		courses:     opts.Courses,
		predictions: opts.Predictions,
		progress:    opts.Progress,
		auth:        opts.Auth,
		generator:   opts.Generator,
		tokens:      opts.Tokens,
		notifier:    notifier,
		webhookURL:  webhookURL,
		missing:     append([]string(nil), opts.MissingConfig...),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger,
	}
}

// Generate validates and authorizes req, then either returns the course's
// existing cover or starts a new prediction for it.
func (s *Service) Generate(ctx context.Context, req Request) (res *Result, err error) {
	defer s.recoverPanic(&err)

	if len(s.missing) > 0 {
		return nil, &Error{Kind: KindConfiguration, Message: "Missing required environment variables", Missing: s.missing}
	}
	engine, verr := s.validateRequest(&req)
	if verr != nil {
		return nil, verr
	}
	if _, aerr := s.authorize(ctx, req.Token); aerr != nil {
		return nil, aerr
	}

	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &Error{Kind: KindNotFound, Message: "Course not found", Err: err}
		}
		return nil, newError(KindUnknown, "Failed to load course", err)
	}
	log := s.logger.With().Str("course_id", course.ID).Str("engine", string(engine)).Logger()

	if course.HasCover() && !req.Regenerate {
		log.Info().Msg("course already has a cover")
		return &Result{Existing: true, ExistingCoverURL: course.CoverImageURL, CourseID: course.ID, Engine: engine}, nil
	}

	s.notifier.Notify(ctx, course.ID, domain.PhaseStarting, map[string]any{
		"engine":     engine,
		"regenerate": req.Regenerate,
	})

	plan := cover.NewPlan(*course, engine)
	log.Debug().
		Str("fingerprint", plan.Fingerprint).
		Str("category", string(plan.Category)).
		Strs("keywords", plan.Keywords).
		Msg("cover prompt composed")

	token, err := s.replicateToken(ctx)
	if err != nil {
		s.notifier.Notify(ctx, course.ID, domain.PhaseFailed, map[string]any{"error": err.Error()})
		return nil, err
	}

	model, _ := replicate.ModelInput(engine, "")
	s.notifier.Notify(ctx, course.ID, domain.PhaseCallingAPI, map[string]any{
		"engine":      engine,
		"model":       model,
		"category":    plan.Category,
		"fingerprint": plan.Fingerprint,
	})

	pred, err := s.generator.CreatePrediction(ctx, replicate.PredictionRequest{
		Engine:     engine,
		Prompt:     plan.Prompt,
		WebhookURL: s.webhookURL(course.ID),
		Token:      token,
	})
	if err != nil {
		details := map[string]any{"error": err.Error(), "engine": engine}
		var apiErr *replicate.APIError
		if errors.As(err, &apiErr) {
			details["statusCode"] = apiErr.StatusCode
		}
		s.notifier.Notify(ctx, course.ID, domain.PhaseFailed, details)
		log.Error().Err(err).Msg("start prediction failed")
		return nil, newError(KindExternalAPI, "Failed to start cover generation", err)
	}

	status := pred.Status
	if status == "" {
		status = string(domain.PredictionStarting)
	}
	s.notifier.Notify(ctx, course.ID, domain.PhasePredictionCreated, map[string]any{
		"predictionId": pred.ID,
		"status":       status,
		"model":        pred.Model,
	})

	// The provider already owns the job; a lost row does not fail the request.
	_ = s.notifier.PersistJob(ctx, domain.PredictionJob{
		PredictionID: pred.ID,
		CourseID:     course.ID,
		Status:       domain.PredictionStatus(status),
		ModelName:    pred.Model,
		InputData:    inputData(engine, plan, pred.Input),
	})

	log.Info().Str("prediction_id", pred.ID).Msg("cover generation started")
	return &Result{
		PredictionID: pred.ID,
		CourseID:     course.ID,
		Engine:       engine,
		Status:       status,
		Plan:         plan,
	}, nil
}

func (s *Service) validateRequest(req *Request) (domain.Engine, *Error) {
	req.CourseID = strings.TrimSpace(req.CourseID)
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "Engine":
				return "", &Error{Kind: KindValidation, Message: "Invalid engine. Must be 'flux' or 'recraft'", Err: err}
			case "CourseID":
				if verrs[0].Tag() == "required" {
					return "", &Error{Kind: KindValidation, Message: "courseId is required", Err: err}
				}
				return "", &Error{Kind: KindValidation, Message: "courseId is invalid", Err: err}
			}
		}
		return "", &Error{Kind: KindValidation, Message: "Invalid request", Err: err}
	}
	engine, ok := domain.ParseEngine(req.Engine)
	if !ok {
		return "", &Error{Kind: KindValidation, Message: "Invalid engine. Must be 'flux' or 'recraft'"}
	}
	return engine, nil
}

func (s *Service) authorize(ctx context.Context, token string) (domain.Identity, *Error) {
	if strings.TrimSpace(token) == "" {
		return domain.Identity{}, &Error{Kind: KindAuthentication, Message: "Missing authorization header"}
	}
	id, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return domain.Identity{}, &Error{Kind: KindAuthentication, Message: "Invalid or expired token", Err: err}
		}
		return domain.Identity{}, newError(KindUnknown, "Failed to resolve caller", err)
	}
	if !id.Service && !id.Role.CanManageCovers() {
		return id, &Error{
			Kind:    KindAuthorization,
			Message: "Insufficient permissions. Only admins and instructors can generate course covers.",
			Role:    id.Role,
		}
	}
	return id, nil
}

func (s *Service) replicateToken(ctx context.Context) (string, error) {
	if s.tokens == nil {
		return "", nil
	}
	token, err := s.tokens.ReplicateToken(ctx)
	if err != nil {
		return "", newError(KindUnknown, "Failed to load generation credentials", err)
	}
	if token == "" {
		return "", &Error{Kind: KindConfiguration, Message: "Missing required environment variables", Missing: []string{"REPLICATE_API_TOKEN"}}
	}
	return token, nil
}

func (s *Service) recoverPanic(err *error) {
	r := recover()
	if r == nil {
		return
	}
	s.logger.Error().
		Str("panic", fmt.Sprint(r)).
		Bytes("stack", debug.Stack()).
		Msg("cover generation panicked")
	*err = &Error{Kind: KindUnknown, Message: "Internal server error", Details: fmt.Sprint(r)}
}

func inputData(engine domain.Engine, plan cover.Plan, providerInput json.RawMessage) json.RawMessage {
	raw, err := json.Marshal(map[string]any{
		"engine":      engine,
		"prompt":      plan.Prompt,
		"category":    plan.Category,
		"fingerprint": plan.Fingerprint,
		"keywords":    plan.Keywords,
		"input":       providerInput,
		"requestedAt": time.Now().UTC(),
	})
	if err != nil {
		return nil
	}
	return raw
}
