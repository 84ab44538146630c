package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tduong/medbill/internal/domain"
)

type stubSource struct {
	bundle *domain.ClaimBundle
	err    error
}

func (s *stubSource) ClaimBundle(ctx context.Context, claimID int64) (*domain.ClaimBundle, error) {
	if s.err != nil {
		return nil, s.err
	}
	b := *s.bundle
	b.Claim.ID = claimID
	return &b, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(t *testing.T, handler http.HandlerFunc) (*Dispatcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b := sampleBundle()
	d := NewDispatcher(&stubSource{bundle: &b}, testRegistry(t),
		WithLogger(quietLogger()),
		WithTimeout(5*time.Second),
		WithClock(func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }),
	)
	return d, srv
}

func anthropicOK(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": text}},
		})
	}
}

func TestRunDefaultModel(t *testing.T) {
	analysis := "Possible duplicate billing and upcoding detected."
	var gotBody map[string]any

	d, srv := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		anthropicOK(analysis)(w, r)
	})

	res, err := d.Run(context.Background(), Request{
		ClaimID:  42,
		Endpoint: Endpoint{URL: srv.URL},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.ModelUsed != "big-model" {
		t.Errorf("ModelUsed = %q, want default big-model", res.ModelUsed)
	}
	if res.ModelProvider != "anthropic" {
		t.Errorf("ModelProvider = %q", res.ModelProvider)
	}
	if res.FraudScore < 0 || res.FraudScore > 100 {
		t.Errorf("FraudScore = %d outside [0,100]", res.FraudScore)
	}
	if res.FraudScore == 0 {
		t.Errorf("analysis with indicators should score above zero")
	}
	if res.Analysis != analysis {
		t.Errorf("Analysis = %q", res.Analysis)
	}
	if res.PromptLength == 0 || res.ResponseLength != len(analysis) {
		t.Errorf("lengths = prompt %d response %d", res.PromptLength, res.ResponseLength)
	}
	if res.Timestamp != "2024-03-01T12:00:00Z" {
		t.Errorf("Timestamp = %q", res.Timestamp)
	}
	if !res.Success {
		t.Errorf("Success should be true")
	}
	if gotBody["anthropic_version"] != "bedrock-2023-05-31" {
		t.Errorf("outbound body = %v, want anthropic-shaped request", gotBody)
	}
}

func TestRunUnknownModelUsesFallback(t *testing.T) {
	// The fallback fixture is mistral-family, so answer in mistral shape.
	d, srv := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"outputs": []map[string]string{{"text": "No issues found.", "stop_reason": "stop"}},
		})
	})

	res, err := d.Run(context.Background(), Request{
		ClaimID:  42,
		ModelID:  "unknown-model-xyz",
		Endpoint: Endpoint{URL: srv.URL},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.ModelUsed != "small-model" {
		t.Errorf("ModelUsed = %q, want fallback small-model", res.ModelUsed)
	}
	if res.ModelUsed == "unknown-model-xyz" {
		t.Errorf("requested unknown id must not be reported as used")
	}
	if res.FraudScore != 0 {
		t.Errorf("clean analysis should score 0, got %d", res.FraudScore)
	}
}

func TestRunConnectionRefused(t *testing.T) {
	b := sampleBundle()
	d := NewDispatcher(&stubSource{bundle: &b}, testRegistry(t),
		WithLogger(quietLogger()), WithTimeout(2*time.Second))

	// Closed port: nothing listens here.
	res, err := d.Run(context.Background(), Request{
		ClaimID:  42,
		Endpoint: Endpoint{URL: "http://127.0.0.1:1/invoke"},
	})
	if res != nil {
		t.Fatalf("no Result must be produced on transport failure")
	}
	if !domain.IsKind(err, domain.ErrorKindServiceUnavailable) {
		t.Fatalf("err = %v, want service_unavailable", err)
	}
}

func TestRunEndpointModelNotFound(t *testing.T) {
	d, srv := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	})

	_, err := d.Run(context.Background(), Request{
		ClaimID:  42,
		ModelID:  "llama-model",
		Endpoint: Endpoint{URL: srv.URL},
	})
	if !domain.IsKind(err, domain.ErrorKindModelUnavailable) {
		t.Fatalf("err = %v, want model_unavailable", err)
	}

	var de *domain.Error
	if !errors.As(err, &de) {
		t.Fatalf("expected *domain.Error")
	}
	if de.Model != "llama-model" {
		t.Errorf("error must name the model, got %q", de.Model)
	}
	if de.Endpoint != srv.URL {
		t.Errorf("error must name the endpoint, got %q", de.Endpoint)
	}
}

func TestRunServerErrorIsServiceUnavailable(t *testing.T) {
	d, srv := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := d.Run(context.Background(), Request{
		ClaimID:  42,
		Endpoint: Endpoint{URL: srv.URL},
	})
	if !domain.IsKind(err, domain.ErrorKindServiceUnavailable) {
		t.Fatalf("err = %v, want service_unavailable", err)
	}
}

func TestRunMalformedResponse(t *testing.T) {
	d, srv := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"completely":"different"}`))
	})

	_, err := d.Run(context.Background(), Request{
		ClaimID:  42,
		Endpoint: Endpoint{URL: srv.URL},
	})
	if !domain.IsKind(err, domain.ErrorKindResponseFormat) {
		t.Fatalf("err = %v, want response_format", err)
	}
}

func TestRunValidation(t *testing.T) {
	called := false
	d, srv := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	tests := []struct {
		name string
		req  Request
	}{
		{"zero claim id", Request{ClaimID: 0, Endpoint: Endpoint{URL: srv.URL}}},
		{"relative url", Request{ClaimID: 1, Endpoint: Endpoint{URL: "/invoke"}}},
		{"bad scheme", Request{ClaimID: 1, Endpoint: Endpoint{URL: "ftp://host/invoke"}}},
		{"blank model id", Request{ClaimID: 1, ModelID: "   ", Endpoint: Endpoint{URL: srv.URL}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Run(context.Background(), tt.req)
			if !domain.IsKind(err, domain.ErrorKindValidation) {
				t.Errorf("err = %v, want validation", err)
			}
		})
	}

	if called {
		t.Errorf("no network call may happen on invalid input")
	}
}

func TestRunMissingClaimShortCircuits(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	d := NewDispatcher(
		&stubSource{err: domain.ErrNotFound("claim", "claim 99 not found")},
		testRegistry(t),
		WithLogger(quietLogger()),
	)

	_, err := d.Run(context.Background(), Request{ClaimID: 99, Endpoint: Endpoint{URL: srv.URL}})
	if !domain.IsKind(err, domain.ErrorKindNotFound) {
		t.Fatalf("err = %v, want not_found", err)
	}
	if called {
		t.Errorf("missing claim must short-circuit before the LLM call")
	}
}

func TestRunCallerCancellation(t *testing.T) {
	started := make(chan struct{})
	d, srv := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background read;
		// otherwise it never observes the client disconnect and
		// r.Context() is never cancelled.
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := d.Run(ctx, Request{ClaimID: 42, Endpoint: Endpoint{URL: srv.URL}})
	if err == nil {
		t.Fatalf("cancelled audit must fail")
	}
	if domain.IsKind(err, domain.ErrorKindServiceUnavailable) {
		t.Errorf("caller cancellation must not be classified as backend unavailability: %v", err)
	}
}

func TestRunEmptyAnalysisSubstitutesPlaceholder(t *testing.T) {
	d, srv := newTestDispatcher(t, anthropicOK("   "))

	res, err := d.Run(context.Background(), Request{ClaimID: 42, Endpoint: Endpoint{URL: srv.URL}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Analysis != emptyAnalysisFallback {
		t.Errorf("Analysis = %q, want placeholder", res.Analysis)
	}
	if res.FraudScore != 0 {
		t.Errorf("placeholder analysis should score 0, got %d", res.FraudScore)
	}
}
