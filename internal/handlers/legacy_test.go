package handlers

import (
	"net/http"
	"strings"
	"testing"
)

func TestLegacyProcessClaim(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := doJSON(t, router, "POST", "/legacy/process-claim", map[string]any{
		"patientId":   1,
		"providerId":  2,
		"payerId":     "AETNA",
		"serviceDate": "2024-06-01",
		"services": []map[string]any{
			{"quantity": 2, "unitPrice": 125.0},
			{"quantity": 1, "unitPrice": 50.0},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success bool `json:"success"`
		Claim   struct {
			ClaimID        string  `json:"claimId"`
			TotalAmount    float64 `json:"totalAmount"`
			Status         string  `json:"status"`
			Priority       string  `json:"priority"`
			DiagnosisCodes []any   `json:"diagnosisCodes"`
		} `json:"claim"`
	}
	decodeInto(t, rec, &body)
	if !body.Success {
		t.Error("success = false")
	}
	if body.Claim.TotalAmount != 300 {
		t.Errorf("totalAmount = %v, want 300", body.Claim.TotalAmount)
	}
	if body.Claim.Status != "PENDING" || body.Claim.Priority != "NORMAL" {
		t.Errorf("status/priority = %q/%q", body.Claim.Status, body.Claim.Priority)
	}
	if !strings.HasPrefix(body.Claim.ClaimID, "CLM-") {
		t.Errorf("claimId = %q", body.Claim.ClaimID)
	}
	if body.Claim.DiagnosisCodes == nil {
		t.Error("diagnosisCodes omitted, want empty array")
	}
}

func TestLegacyProcessClaimMissingFields(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := doJSON(t, router, "POST", "/legacy/process-claim", map[string]any{
		"patientId": 1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "serviceDate") {
		t.Errorf("error body %q does not name the missing fields", rec.Body.String())
	}
}

func TestLegacyProcessClaimBadServiceLine(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := doJSON(t, router, "POST", "/legacy/process-claim", map[string]any{
		"patientId":   1,
		"providerId":  2,
		"payerId":     "AETNA",
		"serviceDate": "2024-06-01",
		"services":    []map[string]any{{"quantity": "two"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLegacyCheckEligibility(t *testing.T) {
	tests := []struct {
		serviceType string
		coverage    float64
		copay       float64
		preAuth     bool
	}{
		{"PREVENTIVE", 100, 0, false},
		{"SPECIALIST", 70, 50, false},
		{"SURGERY", 80, 0, true},
		{"ACUPUNCTURE", 60, 75, true},
	}
	for _, tt := range tests {
		t.Run(tt.serviceType, func(t *testing.T) {
			router, _ := newTestRouter(t, nil)

			rec := doJSON(t, router, "POST", "/legacy/check-eligibility", map[string]any{
				"patientId":   1,
				"payerId":     "AETNA",
				"serviceType": tt.serviceType,
			})
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}

			var body struct {
				Success     bool `json:"success"`
				Eligibility struct {
					EligibilityID      string  `json:"eligibilityId"`
					Eligible           bool    `json:"eligible"`
					CoveragePercentage float64 `json:"coveragePercentage"`
					Copay              float64 `json:"copay"`
					PreAuth            bool    `json:"requiresPreAuthorization"`
				} `json:"eligibility"`
			}
			decodeInto(t, rec, &body)
			if !body.Success || !body.Eligibility.Eligible {
				t.Error("expected an eligible response")
			}
			if body.Eligibility.CoveragePercentage != tt.coverage || body.Eligibility.Copay != tt.copay {
				t.Errorf("coverage/copay = %v/%v, want %v/%v",
					body.Eligibility.CoveragePercentage, body.Eligibility.Copay, tt.coverage, tt.copay)
			}
			if body.Eligibility.PreAuth != tt.preAuth {
				t.Errorf("requiresPreAuthorization = %v, want %v", body.Eligibility.PreAuth, tt.preAuth)
			}
			if !strings.HasPrefix(body.Eligibility.EligibilityID, "ELIG-") {
				t.Errorf("eligibilityId = %q", body.Eligibility.EligibilityID)
			}
		})
	}
}

func TestLegacyCheckEligibilityMissingFields(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := doJSON(t, router, "POST", "/legacy/check-eligibility", map[string]any{
		"patientId": 1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
