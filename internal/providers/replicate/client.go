// Package replicate starts image predictions on the Replicate HTTP API and
// verifies the webhooks it sends back when they finish.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"covergen/internal/domain"
	"covergen/internal/infra"
	"covergen/internal/retry"
)

const (
	DefaultBaseURL    = "https://api.replicate.com/v1"
	DefaultMaxRetries = 3

	// MaxDownloadBytes caps a single prediction output file.
	MaxDownloadBytes = 25 << 20

	maxErrorBody = 4 << 10
)

// DefaultDownloadHosts are the hosts Replicate serves prediction outputs from.
var DefaultDownloadHosts = []string{"replicate.delivery"}

// ErrDownloadHost rejects output URLs outside the allowed hosts.
var ErrDownloadHost = errors.New("replicate: output host not allowed")

// ErrMissingToken indicates that neither the client nor the request carried an API token.
var ErrMissingToken = errors.New("replicate: api token is required")

// Options configures the Replicate client.
type Options struct {
	APIToken       string
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Logger         *infra.Logger
	// MaxRetries is the number of retries after the first attempt. Zero
	// disables retries; a negative value selects DefaultMaxRetries.
	MaxRetries int
	// DownloadHosts limits output downloads to these hosts and their
	// subdomains. Empty selects DefaultDownloadHosts.
	DownloadHosts []string
	// Sleep replaces the backoff wait; tests use it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Client performs HTTP calls to the Replicate predictions API.
type Client struct {
	token      string
	baseURL    string
	maxRetries    int
	downloadHosts []string
	httpClient    *http.Client
	logger     *infra.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// PredictionRequest captures the inputs for one cover generation.
type PredictionRequest struct {
	Engine     domain.Engine
	Prompt     string
	WebhookURL string
	// Token overrides the client token when set.
	Token string
}

// Prediction is the subset of Replicate's prediction object this service reads.
type Prediction struct {
	ID        string          `json:"id"`
	Model     string          `json:"model"`
	Version   string          `json:"version,omitempty"`
	Status    string          `json:"status"`
	Input     json.RawMessage `json:"input,omitempty"`
	Output    json.RawMessage `json:"output,omitempty"`
	Error     json.RawMessage `json:"error,omitempty"`
	Logs      string          `json:"logs,omitempty"`
	CreatedAt string          `json:"created_at,omitempty"`
	URLs      struct {
		Get    string `json:"get"`
		Cancel string `json:"cancel"`
	} `json:"urls"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("replicate: http %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("replicate: http %d", e.StatusCode)
}

// HTTPStatusCode exposes the upstream status for retry classification.
func (e *APIError) HTTPStatusCode() int { return e.StatusCode }

// Terminal reports whether the error is a client error that retrying cannot fix.
func (e *APIError) Terminal() bool { return !retry.IsRetryableHTTPStatus(e.StatusCode) }

// NewClient constructs a Replicate client.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	hosts := opts.DownloadHosts
	if len(hosts) == 0 {
		hosts = DefaultDownloadHosts
	}
	return &Client{
		token:         strings.TrimSpace(opts.APIToken),
		baseURL:       base,
		maxRetries:    maxRetries,
		downloadHosts: hosts,
		httpClient:    httpClient,
		logger:        logger,
		sleep:         opts.Sleep,
	}
}

// CreatePrediction starts an asynchronous prediction for the engine's model.
// 429, 5xx and transport failures are retried with capped exponential
// backoff; other 4xx responses fail immediately.
func (c *Client) CreatePrediction(ctx context.Context, req PredictionRequest) (*Prediction, error) {
	if c == nil {
		return nil, errors.New("replicate client not configured")
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		token = c.token
	}
	if token == "" {
		return nil, ErrMissingToken
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("replicate: prompt is required")
	}
	model, input := ModelInput(req.Engine, req.Prompt)
	payload := map[string]any{"input": input}
	if req.WebhookURL != "" {
		payload["webhook"] = req.WebhookURL
		payload["webhook_events_filter"] = []string{"start", "completed"}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/models/%s/predictions", c.baseURL, model)

	policy := retry.Policy{
		MaxRetries: c.maxRetries,
		Sleep:      c.sleep,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			c.logger.Warn().
				Err(err).
				Str("model", model).
				Int("attempt", attempt).
				Int("max_retries", c.maxRetries).
				Dur("sleep", delay).
				Msg("replicate request retrying")
		},
	}
	pred, err := retry.Do(ctx, policy, retry.IsRetryableError, func(ctx context.Context) (*Prediction, error) {
		return c.postPrediction(ctx, endpoint, token, body)
	})
	if err != nil {
		return nil, err
	}
	if pred.Model == "" {
		pred.Model = model
	}
	if len(pred.Input) == 0 {
		pred.Input, _ = json.Marshal(input)
	}
	return pred, nil
}

func (c *Client) postPrediction(ctx context.Context, endpoint, token string, body []byte) (*Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(raw)}
	}
	var out Prediction
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("replicate: decode prediction: %w", err)
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("replicate: prediction id missing in response")
	}
	return &out, nil
}

func errorDetail(raw []byte) string {
	var body struct {
		Detail string `json:"detail"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Detail != "" {
			return body.Detail
		}
		if body.Title != "" {
			return body.Title
		}
	}
	return strings.TrimSpace(string(raw))
}

// Download fetches a prediction output file of at most MaxDownloadBytes from
// an allowed host.
func (c *Client) Download(ctx context.Context, fileURL string) ([]byte, string, error) {
	if !c.downloadAllowed(fileURL) {
		return nil, "", fmt.Errorf("%w: %s", ErrDownloadHost, fileURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", &APIError{StatusCode: resp.StatusCode, Detail: "download output"}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > MaxDownloadBytes {
		return nil, "", fmt.Errorf("replicate: output exceeds %d bytes", MaxDownloadBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) downloadAllowed(fileURL string) bool {
	u, err := url.Parse(fileURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, allowed := range c.downloadHosts {
		allowed = strings.ToLower(allowed)
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
