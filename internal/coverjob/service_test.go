package coverjob

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"covergen/internal/cover"
	"covergen/internal/domain"
	"covergen/internal/providers/replicate"
)

var pythonCourse = domain.Course{ID: "c1", Title: "Intro to Python", Description: "Learn python basics"}

func asError(t *testing.T, err error) *Error {
	t.Helper()
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	return e
}

func TestGenerateEndToEnd(t *testing.T) {
	f := newFixture(pythonCourse)
	res, err := f.service.Generate(context.Background(), Request{CourseID: "c1", Engine: "flux", Token: "admin-token"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Existing || res.PredictionID == "" || res.Engine != domain.EngineFlux || res.Status != "starting" {
		t.Fatalf("result = %#v", res)
	}
	if res.Plan.Category != cover.CategoryProgramming {
		t.Fatalf("category = %s", res.Plan.Category)
	}
	if f.generator.count() != 1 {
		t.Fatalf("generator calls = %d", f.generator.count())
	}
	call := f.generator.calls[0]
	if !strings.Contains(call.Prompt, "c1") || call.Token != "r8_test" || !strings.HasSuffix(call.WebhookURL, "courseId=c1") {
		t.Fatalf("generator request = %#v", call)
	}
	job, err := f.predictions.GetByID(context.Background(), res.PredictionID)
	if err != nil {
		t.Fatalf("persisted job: %v", err)
	}
	if job.CourseID != "c1" || job.ModelName != replicate.ModelFlux || len(job.InputData) == 0 {
		t.Fatalf("job = %#v", job)
	}
	want := []domain.ProgressPhase{domain.PhaseStarting, domain.PhaseCallingAPI, domain.PhasePredictionCreated}
	if got := f.progress.phases(); !reflect.DeepEqual(got, want) {
		t.Fatalf("phases = %v, want %v", got, want)
	}
	if len(f.publisher.events) != 3 {
		t.Fatalf("published = %d", len(f.publisher.events))
	}
	for _, ev := range f.progress.events {
		if ev.EventType != domain.ProgressEventType || ev.CourseID != "c1" {
			t.Fatalf("event = %#v", ev)
		}
	}
}

func TestGenerateDefaultsToFlux(t *testing.T) {
	f := newFixture(pythonCourse)
	res, err := f.service.Generate(context.Background(), Request{CourseID: "c1", Token: "instructor-token"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Engine != domain.EngineFlux {
		t.Fatalf("engine = %s", res.Engine)
	}
}

func TestGenerateStudentForbidden(t *testing.T) {
	f := newFixture(pythonCourse)
	_, err := f.service.Generate(context.Background(), Request{CourseID: "c1", Engine: "recraft", Token: "student-token"})
	e := asError(t, err)
	if e.Kind != KindAuthorization || e.Role != domain.UserRoleStudent {
		t.Fatalf("err = %#v", e)
	}
	if f.generator.count() != 0 || len(f.predictions.jobs) != 0 || len(f.progress.events) != 0 {
		t.Fatalf("side effects after forbidden request")
	}
}

func TestGenerateServiceKeyBypassesRole(t *testing.T) {
	f := newFixture(pythonCourse)
	if _, err := f.service.Generate(context.Background(), Request{CourseID: "c1", Token: "service-key"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
}

func TestGenerateExistingCoverShortCircuits(t *testing.T) {
	withCover := pythonCourse
	withCover.CoverImageURL = "https://cdn.example.com/c1.webp"
	f := newFixture(withCover)
	for i := 0; i < 2; i++ {
		res, err := f.service.Generate(context.Background(), Request{CourseID: "c1", Token: "admin-token"})
		if err != nil {
			t.Fatalf("Generate #%d: %v", i, err)
		}
		if !res.Existing || res.ExistingCoverURL != withCover.CoverImageURL {
			t.Fatalf("result #%d = %#v", i, res)
		}
	}
	if f.generator.count() != 0 || len(f.progress.events) != 0 {
		t.Fatalf("short circuit made calls: generator=%d events=%d", f.generator.count(), len(f.progress.events))
	}
}

func TestGenerateRegenerateIgnoresExistingCover(t *testing.T) {
	withCover := pythonCourse
	withCover.CoverImageURL = "https://cdn.example.com/c1.webp"
	f := newFixture(withCover)
	res, err := f.service.Generate(context.Background(), Request{CourseID: "c1", Regenerate: true, Token: "admin-token"})
	if err != nil || res.Existing {
		t.Fatalf("res=%#v err=%v", res, err)
	}
	if f.generator.count() != 1 {
		t.Fatalf("generator calls = %d", f.generator.count())
	}
}

func TestGenerateValidation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		msg  string
	}{
		{"missing course", Request{Token: "admin-token"}, "courseId is required"},
		{"blank course", Request{CourseID: "   ", Token: "admin-token"}, "courseId is required"},
		{"bad engine", Request{CourseID: "c1", Engine: "dalle", Token: "admin-token"}, "Invalid engine. Must be 'flux' or 'recraft'"},
		{"overlong course", Request{CourseID: strings.Repeat("x", 200), Token: "admin-token"}, "courseId is invalid"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(pythonCourse)
			_, err := f.service.Generate(context.Background(), tc.req)
			e := asError(t, err)
			if e.Kind != KindValidation || e.Message != tc.msg {
				t.Fatalf("err = %#v", e)
			}
			if f.generator.count() != 0 {
				t.Fatalf("generator called")
			}
		})
	}
}

func TestGenerateEngineMustMatchExactly(t *testing.T) {
	for _, engine := range []string{"FLUX", " Recraft ", "flux "} {
		f := newFixture(pythonCourse)
		_, err := f.service.Generate(context.Background(), Request{CourseID: "c1", Engine: engine, Token: "admin-token"})
		if e := asError(t, err); e.Kind != KindValidation {
			t.Fatalf("engine %q: err = %#v", engine, e)
		}
		if f.generator.count() != 0 {
			t.Fatalf("engine %q: generator called", engine)
		}
	}
}

func TestGenerateRecraftEngine(t *testing.T) {
	f := newFixture(pythonCourse)
	res, err := f.service.Generate(context.Background(), Request{CourseID: "c1", Engine: "recraft", Token: "admin-token"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Engine != domain.EngineRecraft || f.generator.calls[0].Engine != domain.EngineRecraft {
		t.Fatalf("engine = %s", res.Engine)
	}
}

func TestGenerateAuthentication(t *testing.T) {
	f := newFixture(pythonCourse)
	for _, token := range []string{"", "forged"} {
		_, err := f.service.Generate(context.Background(), Request{CourseID: "c1", Token: token})
		if e := asError(t, err); e.Kind != KindAuthentication {
			t.Fatalf("token %q: err = %#v", token, e)
		}
	}
}

func TestGenerateCourseNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.service.Generate(context.Background(), Request{CourseID: "missing", Token: "admin-token"})
	if e := asError(t, err); e.Kind != KindNotFound || !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %#v", e)
	}
}

func TestGenerateMissingConfiguration(t *testing.T) {
	svc := NewService(Options{MissingConfig: []string{"DATABASE_URL", "REPLICATE_API_TOKEN"}})
	_, err := svc.Generate(context.Background(), Request{CourseID: "c1", Token: "admin-token"})
	e := asError(t, err)
	if e.Kind != KindConfiguration || !reflect.DeepEqual(e.Missing, []string{"DATABASE_URL", "REPLICATE_API_TOKEN"}) {
		t.Fatalf("err = %#v", e)
	}
}

func TestGenerateMissingStoredToken(t *testing.T) {
	f := newFixture(pythonCourse)
	f.service.tokens = staticTokens("")
	_, err := f.service.Generate(context.Background(), Request{CourseID: "c1", Token: "admin-token"})
	e := asError(t, err)
	if e.Kind != KindConfiguration || len(e.Missing) != 1 || e.Missing[0] != "REPLICATE_API_TOKEN" {
		t.Fatalf("err = %#v", e)
	}
	if f.generator.count() != 0 {
		t.Fatalf("generator called without token")
	}
}

func TestGenerateExternalFailureRecordsFailedEvent(t *testing.T) {
	f := newFixture(pythonCourse)
	f.generator.err = &replicate.APIError{StatusCode: 422, Detail: "invalid input"}
	_, err := f.service.Generate(context.Background(), Request{CourseID: "c1", Token: "admin-token"})
	e := asError(t, err)
	if e.Kind != KindExternalAPI || !strings.Contains(e.Details, "invalid input") {
		t.Fatalf("err = %#v", e)
	}
	want := []domain.ProgressPhase{domain.PhaseStarting, domain.PhaseCallingAPI, domain.PhaseFailed}
	if got := f.progress.phases(); !reflect.DeepEqual(got, want) {
		t.Fatalf("phases = %v", got)
	}
	if len(f.predictions.jobs) != 0 {
		t.Fatalf("job persisted after failure")
	}
}

func TestGeneratePersistenceFailureIsSwallowed(t *testing.T) {
	f := newFixture(pythonCourse)
	f.predictions.createErr = errDBDown
	res, err := f.service.Generate(context.Background(), Request{CourseID: "c1", Token: "admin-token"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.PredictionID == "" {
		t.Fatalf("missing prediction id")
	}
	if f.predictions.creates != 1+persistRetries {
		t.Fatalf("creates = %d", f.predictions.creates)
	}
	if want := []time.Duration{time.Second, 2 * time.Second}; !reflect.DeepEqual(f.sleeper.delays, want) {
		t.Fatalf("delays = %v, want %v", f.sleeper.delays, want)
	}
}

func TestGenerateProgressFailuresAreSwallowed(t *testing.T) {
	f := newFixture(pythonCourse)
	f.progress.appendErr = errDBDown
	f.publisher.err = errors.New("redis down")
	if _, err := f.service.Generate(context.Background(), Request{CourseID: "c1", Token: "admin-token"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
}

func TestGenerateRecoversPanics(t *testing.T) {
	f := newFixture(pythonCourse)
	f.generator.panicMsg = "nil map write"
	_, err := f.service.Generate(context.Background(), Request{CourseID: "c1", Token: "admin-token"})
	e := asError(t, err)
	if e.Kind != KindUnknown || e.Details != "nil map write" {
		t.Fatalf("err = %#v", e)
	}
}

func TestPersistJobDuplicateIsSuccess(t *testing.T) {
	preds := newMemPredictions()
	rec := &sleepRecorder{}
	n := NewNotifier(NotifierOptions{Predictions: preds, Sleep: rec.sleep})
	job := domain.PredictionJob{PredictionID: "p1", CourseID: "c1"}
	if err := n.PersistJob(context.Background(), job); err != nil {
		t.Fatalf("first PersistJob: %v", err)
	}
	if err := n.PersistJob(context.Background(), job); err != nil {
		t.Fatalf("duplicate PersistJob: %v", err)
	}
	if preds.creates != 2 || len(rec.delays) != 0 {
		t.Fatalf("creates=%d delays=%v", preds.creates, rec.delays)
	}
}

func TestStatus(t *testing.T) {
	f := newFixture(pythonCourse)
	res, err := f.service.Generate(context.Background(), Request{CourseID: "c1", Token: "admin-token"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	st, err := f.service.Status(context.Background(), StatusRequest{CourseID: "c1", Token: "instructor-token"})
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Latest == nil || st.Latest.PredictionID != res.PredictionID {
		t.Fatalf("latest = %#v", st.Latest)
	}
	if len(st.Events) != 3 || st.Events[0].Status != domain.PhasePredictionCreated {
		t.Fatalf("events = %#v", st.Events)
	}
	if _, err := f.service.Status(context.Background(), StatusRequest{CourseID: "c1", Token: "student-token"}); asError(t, err).Kind != KindAuthorization {
		t.Fatalf("student status err = %v", err)
	}
	if _, err := f.service.Status(context.Background(), StatusRequest{CourseID: "c1", Token: "admin-token", Limit: 500}); asError(t, err).Kind != KindValidation {
		t.Fatalf("limit err = %v", err)
	}
}
