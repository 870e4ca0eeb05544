package domain

import (
	"encoding/json"
	"time"
)

// Engine selects the external image model used for a cover.
type Engine string

const (
	EngineFlux    Engine = "flux"
	EngineRecraft Engine = "recraft"
)

// DefaultEngine is used when a request does not name one.
const DefaultEngine = EngineFlux

// ParseEngine maps an empty value to the default engine; ok is false for
// anything other than an exact supported name.
func ParseEngine(raw string) (Engine, bool) {
	switch Engine(raw) {
	case "":
		return DefaultEngine, true
	case EngineFlux:
		return EngineFlux, true
	case EngineRecraft:
		return EngineRecraft, true
	default:
		return "", false
	}
}

// PredictionStatus mirrors the provider's prediction lifecycle.
type PredictionStatus string

const (
	PredictionStarting   PredictionStatus = "starting"
	PredictionProcessing PredictionStatus = "processing"
	PredictionSucceeded  PredictionStatus = "succeeded"
	PredictionFailed     PredictionStatus = "failed"
	PredictionCanceled   PredictionStatus = "canceled"
)

// Terminal reports whether no further webhook updates are expected.
func (s PredictionStatus) Terminal() bool {
	switch s {
	case PredictionSucceeded, PredictionFailed, PredictionCanceled:
		return true
	default:
		return false
	}
}

// PredictionJob is one external generation attempt for a course cover.
type PredictionJob struct {
	PredictionID string
	CourseID     string
	Status       PredictionStatus
	ModelName    string
	InputData    json.RawMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProgressPhase names an orchestration milestone.
type ProgressPhase string

const (
	PhaseStarting          ProgressPhase = "starting"
	PhaseCallingAPI        ProgressPhase = "calling_api"
	PhasePredictionCreated ProgressPhase = "prediction_created"
	PhaseFailed            ProgressPhase = "failed"
	PhaseCompleted         ProgressPhase = "completed"
)

// ProgressEventType is the event_type written for every cover milestone.
const ProgressEventType = "cover_generation"

// ProgressEvent is an append-only milestone record.
type ProgressEvent struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	CourseID  string          `json:"course_id"`
	Status    ProgressPhase   `json:"status"`
	Details   json.RawMessage `json:"details,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
