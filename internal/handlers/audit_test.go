package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/tduong/medbill/internal/audit"
	"github.com/tduong/medbill/internal/domain"
)

func TestRunClaimAuditPersistsFraudScore(t *testing.T) {
	var gotReq audit.Request
	auditor := &stubAuditor{
		runFn: func(ctx context.Context, req audit.Request) (*audit.Result, error) {
			gotReq = req
			return &audit.Result{
				ClaimID:    req.ClaimID,
				Analysis:   "Possible upcoding detected.",
				FraudScore: 14,
				ModelUsed:  "claude-3-sonnet",
				Success:    true,
			}, nil
		},
	}
	router, store := newTestRouter(t, auditor)

	rec := doJSON(t, router, "POST", "/api/audit/claims/9", map[string]string{"model": "claude-3-sonnet"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if gotReq.ClaimID != 9 || gotReq.ModelID != "claude-3-sonnet" {
		t.Errorf("dispatcher request = %+v", gotReq)
	}
	if gotReq.Endpoint.URL != "http://inference.local/invoke" {
		t.Errorf("endpoint = %q", gotReq.Endpoint.URL)
	}

	var result audit.Result
	decodeInto(t, rec, &result)
	if result.FraudScore != 14 {
		t.Errorf("FraudScore = %d, want 14", result.FraudScore)
	}

	claim, err := store.GetClaim(context.Background(), 9)
	if err != nil {
		t.Fatalf("GetClaim() error = %v", err)
	}
	if claim.FraudScore == nil || *claim.FraudScore != 14 {
		t.Errorf("persisted FraudScore = %v, want 14", claim.FraudScore)
	}
}

func TestRunClaimAuditWithoutBody(t *testing.T) {
	auditor := &stubAuditor{
		runFn: func(ctx context.Context, req audit.Request) (*audit.Result, error) {
			if req.ModelID != "" {
				t.Errorf("ModelID = %q, want empty for default selection", req.ModelID)
			}
			return &audit.Result{ClaimID: req.ClaimID, Analysis: "Clean.", Success: true}, nil
		},
	}
	router, _ := newTestRouter(t, auditor)

	rec := doJSON(t, router, "POST", "/api/audit/claims/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRunClaimAuditErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{
			name:       "model unavailable",
			err:        domain.ErrModelUnavailable("llama3-8b", "http://inference.local/invoke"),
			wantStatus: http.StatusNotFound,
			wantKind:   "model_unavailable",
		},
		{
			name:       "service unavailable",
			err:        domain.ErrServiceUnavailable("http://inference.local/invoke", "endpoint unreachable"),
			wantStatus: http.StatusServiceUnavailable,
			wantKind:   "service_unavailable",
		},
		{
			name:       "response format",
			err:        domain.ErrResponseFormat("missing content"),
			wantStatus: http.StatusBadGateway,
			wantKind:   "response_format",
		},
		{
			name:       "configuration",
			err:        domain.ErrConfiguration("unknown provider family"),
			wantStatus: http.StatusInternalServerError,
			wantKind:   "configuration",
		},
		{
			name:       "missing claim",
			err:        domain.ErrNotFound("claim", "claim 42 not found"),
			wantStatus: http.StatusNotFound,
			wantKind:   "not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auditor := &stubAuditor{
				runFn: func(ctx context.Context, req audit.Request) (*audit.Result, error) {
					return nil, tt.err
				},
			}
			router, store := newTestRouter(t, auditor)

			rec := doJSON(t, router, "POST", "/api/audit/claims/9", nil)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]errorBody
			decodeInto(t, rec, &body)
			if body["error"].Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", body["error"].Kind, tt.wantKind)
			}

			// A failed audit never touches the claim.
			claim, err := store.GetClaim(context.Background(), 9)
			if err != nil {
				t.Fatalf("GetClaim() error = %v", err)
			}
			if claim.FraudScore != nil {
				t.Errorf("FraudScore = %v, want nil after failed audit", claim.FraudScore)
			}
		})
	}
}

func TestRunClaimAuditBadClaimID(t *testing.T) {
	called := false
	auditor := &stubAuditor{
		runFn: func(ctx context.Context, req audit.Request) (*audit.Result, error) {
			called = true
			return nil, nil
		},
	}
	router, _ := newTestRouter(t, auditor)

	rec := doJSON(t, router, "POST", "/api/audit/claims/-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if called {
		t.Error("dispatcher should not run for an invalid claim id")
	}
}

func TestListModels(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := doJSON(t, router, "GET", "/api/audit/models", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body modelsResponse
	decodeInto(t, rec, &body)
	if body.Count != len(body.Models) || body.Count == 0 {
		t.Errorf("count = %d with %d models", body.Count, len(body.Models))
	}
	if body.DefaultModel != "anthropic.claude-3-sonnet-20240229-v1:0" {
		t.Errorf("default model = %q", body.DefaultModel)
	}
	defaults := 0
	for _, m := range body.Models {
		if m.Default {
			defaults++
		}
	}
	if defaults != 1 {
		t.Errorf("catalog marks %d defaults, want 1", defaults)
	}
}

func TestGenerate(t *testing.T) {
	auditor := &stubAuditor{
		genFn: func(ctx context.Context, prompt, modelID string, ep audit.Endpoint) (string, audit.ModelDescriptor, error) {
			if prompt != "Summarize CPT 99213" {
				t.Errorf("prompt = %q", prompt)
			}
			return "An office visit code.", audit.DefaultCatalog().Default(), nil
		},
	}
	router, _ := newTestRouter(t, auditor)

	rec := doJSON(t, router, "POST", "/api/generate", map[string]string{"prompt": "Summarize CPT 99213"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body generateResponse
	decodeInto(t, rec, &body)
	if body.Response != "An office visit code." || body.ModelUsed != "anthropic.claude-3-sonnet-20240229-v1:0" {
		t.Errorf("response = %+v", body)
	}
}

func TestGenerateValidation(t *testing.T) {
	auditor := &stubAuditor{
		genFn: func(ctx context.Context, prompt, modelID string, ep audit.Endpoint) (string, audit.ModelDescriptor, error) {
			return "", audit.ModelDescriptor{}, domain.ErrValidation("prompt must not be empty")
		},
	}
	router, _ := newTestRouter(t, auditor)

	rec := doJSON(t, router, "POST", "/api/generate", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
