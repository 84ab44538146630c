package audit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tduong/medbill/internal/domain"
)

const defaultTimeout = 60 * time.Second

// Analysis text substituted when the endpoint returns a structurally valid
// but empty generation.
const emptyAnalysisFallback = "The audit system could not generate an analysis at this time. " +
	"Please try again later or contact system administration."

// ClaimSource loads the claim bundle for an audit. The storage layer
// implements it; tests substitute stubs.
type ClaimSource interface {
	ClaimBundle(ctx context.Context, claimID int64) (*domain.ClaimBundle, error)
}

// Endpoint identifies the inference backend an audit is dispatched to.
type Endpoint struct {
	// URL is the absolute http/https URL the request body is POSTed to.
	URL string

	// APIKey, when set, is sent as a bearer token.
	APIKey string
}

// Request is the per-call input to the dispatcher.
type Request struct {
	ClaimID  int64
	ModelID  string // optional; empty means use the registry default
	Endpoint Endpoint
}

// Result is the envelope returned to the caller on a successful audit.
type Result struct {
	ClaimID        int64  `json:"claim_id"`
	Analysis       string `json:"analysis"`
	FraudScore     int    `json:"fraud_score"`
	ModelUsed      string `json:"model_used"`
	ModelName      string `json:"model_name"`
	ModelProvider  string `json:"model_provider"`
	PromptLength   int    `json:"prompt_length"`
	ResponseLength int    `json:"response_length"`
	PromptTokens   int    `json:"prompt_tokens,omitempty"`
	Timestamp      string `json:"timestamp"`
	Success        bool   `json:"success"`
}

// DispatcherOption configures the dispatcher.
type DispatcherOption func(*Dispatcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DispatcherOption {
	return func(d *Dispatcher) { d.httpClient = c }
}

// WithTimeout bounds the outbound inference call. LLM generation latency is
// high and variable, so the default is generous.
func WithTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.timeout = t }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// WithClock overrides the timestamp source for tests.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// Dispatcher orchestrates a single claim audit: validate, load bundle,
// format prompt, resolve model, build body, issue exactly one network
// call, classify failures, parse, score, and assemble the result envelope.
// It holds no per-request state and is safe for concurrent use; the only
// shared state it touches is the immutable registry.
type Dispatcher struct {
	source     ClaimSource
	registry   *Registry
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewDispatcher creates a dispatcher over a claim source and model
// registry.
func NewDispatcher(source ClaimSource, registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		source:     source,
		registry:   registry,
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes one audit. It performs no retries; retry policy belongs to
// the caller. On any error no Result is returned and nothing has been
// persisted.
func (d *Dispatcher) Run(ctx context.Context, req Request) (*Result, error) {
	tracer := otel.Tracer("medbill/audit")
	ctx, span := tracer.Start(ctx, "audit.run")
	defer span.End()

	if err := validateRequest(req); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	bundle, err := d.source.ClaimBundle(ctx, req.ClaimID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	prompt := FormatPrompt(*bundle)
	desc, substituted := d.registry.Resolve(strings.TrimSpace(req.ModelID))
	if substituted {
		d.logger.Warn("requested model not in registry, substituting fallback",
			slog.String("requested_model", req.ModelID),
			slog.String("fallback_model", desc.ID),
		)
	}

	span.SetAttributes(
		attribute.Int64("audit.claim_id", req.ClaimID),
		attribute.String("audit.model", desc.ID),
		attribute.String("audit.family", string(desc.Family)),
	)

	promptTokens := 0
	if n, err := EstimateTokens(prompt); err == nil {
		promptTokens = n
		if n > desc.MaxTokens {
			d.logger.Warn("prompt token estimate exceeds model budget",
				slog.Int("prompt_tokens", n),
				slog.Int("max_tokens", desc.MaxTokens),
				slog.String("model", desc.ID),
			)
		}
	}

	body, err := BuildRequestBody(desc, prompt)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	raw, err := d.invoke(ctx, req.Endpoint, desc, body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	analysis, err := ParseResponseBody(desc, raw)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if strings.TrimSpace(analysis) == "" {
		d.logger.Error("empty analysis returned by inference endpoint",
			slog.String("model", desc.ID))
		analysis = emptyAnalysisFallback
	}

	score := Score(analysis)
	d.logger.Info("audit completed",
		slog.Int64("claim_id", req.ClaimID),
		slog.String("model", desc.ID),
		slog.Int("fraud_score", score),
		slog.Any("risk_categories", RiskCategories(analysis)),
	)

	return &Result{
		ClaimID:        req.ClaimID,
		Analysis:       analysis,
		FraudScore:     score,
		ModelUsed:      desc.ID,
		ModelName:      desc.DisplayName,
		ModelProvider:  string(desc.Family),
		PromptLength:   len(prompt),
		ResponseLength: len(analysis),
		PromptTokens:   promptTokens,
		Timestamp:      d.now().UTC().Format(time.RFC3339),
		Success:        true,
	}, nil
}

// Generate sends a raw prompt to the inference endpoint using the resolved
// model, bypassing claim lookup and scoring. Backs the direct generation
// endpoint; failures are classified exactly as in Run.
func (d *Dispatcher) Generate(ctx context.Context, prompt, modelID string, ep Endpoint) (string, ModelDescriptor, error) {
	tracer := otel.Tracer("medbill/audit")
	ctx, span := tracer.Start(ctx, "audit.generate")
	defer span.End()

	if strings.TrimSpace(prompt) == "" {
		return "", ModelDescriptor{}, domain.ErrValidation("prompt must not be empty")
	}
	if err := validateEndpoint(ep); err != nil {
		return "", ModelDescriptor{}, err
	}

	desc, substituted := d.registry.Resolve(strings.TrimSpace(modelID))
	if substituted {
		d.logger.Warn("requested model not in registry, substituting fallback",
			slog.String("requested_model", modelID),
			slog.String("fallback_model", desc.ID),
		)
	}
	span.SetAttributes(attribute.String("audit.model", desc.ID))

	body, err := BuildRequestBody(desc, prompt)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", desc, err
	}

	raw, err := d.invoke(ctx, ep, desc, body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", desc, err
	}

	text, err := ParseResponseBody(desc, raw)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", desc, err
	}
	return text, desc, nil
}

// invoke issues the single outbound POST and classifies transport and
// status failures.
func (d *Dispatcher) invoke(ctx context.Context, ep Endpoint, desc ModelDescriptor, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return nil, domain.ErrValidation("invalid endpoint URL %q", ep.URL).WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if ep.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+ep.APIKey)
	}

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		// Caller cancellation is not a backend failure.
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, domain.ErrServiceUnavailable(ep.URL, "inference endpoint unreachable").WithCause(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.ErrServiceUnavailable(ep.URL, "reading inference response").WithCause(err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// The endpoint itself is up but does not serve this model.
		return nil, domain.ErrModelUnavailable(desc.ID, ep.URL)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, domain.ErrServiceUnavailable(ep.URL,
			"inference endpoint returned status %d", resp.StatusCode)
	}

	return raw, nil
}

func validateRequest(req Request) error {
	if req.ClaimID <= 0 {
		return domain.ErrValidation("claim id must be positive, got %d", req.ClaimID)
	}
	if req.ModelID != "" && strings.TrimSpace(req.ModelID) == "" {
		return domain.ErrValidation("model id must not be blank")
	}
	return validateEndpoint(req.Endpoint)
}

func validateEndpoint(ep Endpoint) error {
	u, err := url.Parse(ep.URL)
	if err != nil {
		return domain.ErrValidation("endpoint URL %q is not a valid URL", ep.URL).WithCause(err)
	}
	if !u.IsAbs() || u.Host == "" {
		return domain.ErrValidation("endpoint URL %q must be absolute", ep.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return domain.ErrValidation("endpoint URL scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}
