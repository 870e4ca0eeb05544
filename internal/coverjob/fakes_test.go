package coverjob

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"covergen/internal/domain"
	"covergen/internal/providers/replicate"
)

type memCourses struct {
	mu      sync.Mutex
	courses map[string]domain.Course
}

func newMemCourses(courses ...domain.Course) *memCourses {
	m := &memCourses{courses: map[string]domain.Course{}}
	for _, c := range courses {
		m.courses[c.ID] = c
	}
	return m
}

func (m *memCourses) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (m *memCourses) SetCoverImageURL(ctx context.Context, id, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.CoverImageURL = url
	m.courses[id] = c
	return nil
}

type memPredictions struct {
	mu        sync.Mutex
	jobs      map[string]domain.PredictionJob
	order     []string
	createErr error
	creates   int
}

func newMemPredictions() *memPredictions {
	return &memPredictions{jobs: map[string]domain.PredictionJob{}}
}

func (m *memPredictions) Create(ctx context.Context, job *domain.PredictionJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.jobs[job.PredictionID]; ok {
		return domain.ErrDuplicate
	}
	m.jobs[job.PredictionID] = *job
	m.order = append(m.order, job.PredictionID)
	return nil
}

func (m *memPredictions) UpdateStatus(ctx context.Context, id string, status domain.PredictionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = status
	m.jobs[id] = job
	return nil
}

func (m *memPredictions) GetByID(ctx context.Context, id string) (*domain.PredictionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &job, nil
}

func (m *memPredictions) LatestForCourse(ctx context.Context, courseID string) (*domain.PredictionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		if job := m.jobs[m.order[i]]; job.CourseID == courseID {
			return &job, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memProgress struct {
	mu        sync.Mutex
	events    []domain.ProgressEvent
	appendErr error
}

func (m *memProgress) Append(ctx context.Context, ev *domain.ProgressEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.events = append(m.events, *ev)
	return nil
}

func (m *memProgress) ListForCourse(ctx context.Context, f domain.ProgressFilter) ([]domain.ProgressEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ProgressEvent
	for i := len(m.events) - 1; i >= 0; i-- {
		ev := m.events[i]
		if ev.CourseID != f.CourseID || (f.Status != "" && ev.Status != f.Status) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (m *memProgress) phases() []domain.ProgressPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ProgressPhase, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev.Status)
	}
	return out
}

type stubAuth map[string]domain.Identity

func (s stubAuth) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	id, ok := s[token]
	if !ok {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return id, nil
}

type stubGenerator struct {
	mu       sync.Mutex
	calls    []replicate.PredictionRequest
	err      error
	panicMsg string
}

func (g *stubGenerator) CreatePrediction(ctx context.Context, req replicate.PredictionRequest) (*replicate.Prediction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.panicMsg != "" {
		panic(g.panicMsg)
	}
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	model, _ := replicate.ModelInput(req.Engine, req.Prompt)
	return &replicate.Prediction{ID: fmt.Sprintf("pred-%d", len(g.calls)), Status: "starting", Model: model}, nil
}

func (g *stubGenerator) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type staticTokens string

func (s staticTokens) ReplicateToken(ctx context.Context) (string, error) { return string(s), nil }

type recordingPublisher struct {
	events []domain.ProgressEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev domain.ProgressEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

var errDBDown = errors.New("db down")

type fixture struct {
	courses     *memCourses
	predictions *memPredictions
	progress    *memProgress
	generator   *stubGenerator
	sleeper     *sleepRecorder
	publisher   *recordingPublisher
	service     *Service
}

func newFixture(courses ...domain.Course) *fixture {
	f := &fixture{
		courses:     newMemCourses(courses...),
		predictions: newMemPredictions(),
		progress:    &memProgress{},
		generator:   &stubGenerator{},
		sleeper:     &sleepRecorder{},
		publisher:   &recordingPublisher{},
	}
	notifier := NewNotifier(NotifierOptions{
		Predictions: f.predictions,
		Progress:    f.progress,
		Publisher:   f.publisher,
		Sleep:       f.sleeper.sleep,
	})
	f.service = NewService(Options{
		Courses:     f.courses,
		Predictions: f.predictions,
		Progress:    f.progress,
		Auth: stubAuth{
			"admin-token":      {UserID: "u-admin", Role: domain.UserRoleAdmin},
			"instructor-token": {UserID: "u-inst", Role: domain.UserRoleInstructor},
			"student-token":    {UserID: "u-stud", Role: domain.UserRoleStudent},
			"service-key":      {Service: true, Role: domain.UserRoleAdmin},
		},
		Generator:  f.generator,
		Tokens:     staticTokens("r8_test"),
		Notifier:   notifier,
		WebhookURL: func(id string) string { return "https://api.example.com/v1/webhooks/replicate?courseId=" + id },
	})
	return f
}
