package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"covergen/internal/coverjob"
	"covergen/internal/infra"
	"covergen/internal/providers/replicate"
)

// CoverService is the cover orchestration the handlers drive.
type CoverService interface {
	Generate(ctx context.Context, req coverjob.Request) (*coverjob.Result, error)
	Status(ctx context.Context, req coverjob.StatusRequest) (*coverjob.CoverStatus, error)
}

// WebhookApplier applies provider completion webhooks.
type WebhookApplier interface {
	Apply(ctx context.Context, courseHint string, pred *replicate.Prediction) (*coverjob.Completion, error)
}

// App carries the dependencies shared by every handler.
type App struct {
	Covers        CoverService
	Webhooks      WebhookApplier
	WebhookSecret string
	// Ping reports datastore health; nil skips the check.
	Ping   func(ctx context.Context) error
	Logger *infra.Logger
}

func NewApp(covers CoverService, webhooks WebhookApplier, webhookSecret string, logger *infra.Logger) *App {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &App{Covers: covers, Webhooks: webhooks, WebhookSecret: webhookSecret, Logger: logger}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg, details string) {
	a.json(w, code, errorResponse{Error: msg, Details: details})
}
