package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tduong/medbill/internal/domain"
)

// Legacy serves the pre-database claim intake endpoints kept for older
// integrations. They validate and echo the submitted payload without
// touching storage.
type Legacy struct{}

func NewLegacy() *Legacy {
	return &Legacy{}
}

// legacyID builds identifiers like CLM-20240131-7F3A9B2C.
func legacyID(prefix string, now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), suffix)
}

func missingKeys(body map[string]any, keys ...string) []string {
	var missing []string
	for _, k := range keys {
		if _, ok := body[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// HandleProcessClaim accepts a claim submission, totals its service lines
// and returns the claim stamped with a generated id and PENDING status.
func (h *Legacy) HandleProcessClaim(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	if missing := missingKeys(body, "patientId", "serviceDate", "services", "providerId", "payerId"); len(missing) > 0 {
		writeError(w, r, domain.ErrValidation("missing required fields: %s", strings.Join(missing, ", ")))
		return
	}

	services, ok := body["services"].([]any)
	if !ok {
		writeError(w, r, domain.ErrValidation("services must be an array"))
		return
	}
	total := 0.0
	for i, s := range services {
		line, ok := s.(map[string]any)
		if !ok {
			writeError(w, r, domain.ErrValidation("service %d must be an object", i))
			return
		}
		qty, qok := line["quantity"].(float64)
		price, pok := line["unitPrice"].(float64)
		if !qok || !pok {
			writeError(w, r, domain.ErrValidation("service %d needs numeric quantity and unitPrice", i))
			return
		}
		total += qty * price
	}

	now := time.Now()
	diagnosisCodes, _ := body["diagnosisCodes"].([]any)
	if diagnosisCodes == nil {
		diagnosisCodes = []any{}
	}
	procedureCodes, _ := body["procedureCodes"].([]any)
	if procedureCodes == nil {
		procedureCodes = []any{}
	}
	priority, _ := body["priority"].(string)
	if priority == "" {
		priority = "NORMAL"
	}

	claim := map[string]any{
		"claimId":        legacyID("CLM", now),
		"patientId":      body["patientId"],
		"providerId":     body["providerId"],
		"payerId":        body["payerId"],
		"serviceDate":    body["serviceDate"],
		"submissionDate": now.Format(time.RFC3339),
		"services":       services,
		"diagnosisCodes": diagnosisCodes,
		"procedureCodes": procedureCodes,
		"totalAmount":    total,
		"status":         "PENDING",
		"priority":       priority,
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "claim": claim})
}

// coverageRule is the simulated benefit schedule for one service type.
type coverageRule struct {
	Coverage int
	Copay    int
	PreAuth  bool
}

var coverageRules = map[string]coverageRule{
	"PREVENTIVE": {Coverage: 100, Copay: 0, PreAuth: false},
	"PRIMARY":    {Coverage: 80, Copay: 25, PreAuth: false},
	"SPECIALIST": {Coverage: 70, Copay: 50, PreAuth: false},
	"EMERGENCY":  {Coverage: 80, Copay: 150, PreAuth: false},
	"SURGERY":    {Coverage: 80, Copay: 0, PreAuth: true},
	"DIAGNOSTIC": {Coverage: 70, Copay: 35, PreAuth: false},
}

// Service types outside the schedule get the most restrictive terms.
var defaultCoverageRule = coverageRule{Coverage: 60, Copay: 75, PreAuth: true}

// HandleCheckEligibility answers a simulated insurance eligibility inquiry
// based on the requested service type.
func (h *Legacy) HandleCheckEligibility(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	if missing := missingKeys(body, "patientId", "payerId", "serviceType"); len(missing) > 0 {
		writeError(w, r, domain.ErrValidation("missing required fields: %s", strings.Join(missing, ", ")))
		return
	}

	serviceType, _ := body["serviceType"].(string)
	rules, ok := coverageRules[serviceType]
	if !ok {
		rules = defaultCoverageRule
	}

	now := time.Now()
	serviceDate, _ := body["serviceDate"].(string)
	if serviceDate == "" {
		serviceDate = now.Format(time.RFC3339)
	}

	eligibility := map[string]any{
		"eligibilityId":            legacyID("ELIG", now),
		"patientId":                body["patientId"],
		"payerId":                  body["payerId"],
		"serviceType":              serviceType,
		"serviceDate":              serviceDate,
		"eligible":                 true,
		"coveragePercentage":       rules.Coverage,
		"copay":                    rules.Copay,
		"deductible":               500,
		"deductibleMet":            350,
		"deductibleRemaining":      150,
		"outOfPocketMax":           5000,
		"outOfPocketMet":           1200,
		"outOfPocketRemaining":     3800,
		"requiresPreAuthorization": rules.PreAuth,
		"planName":                 "Premium Health Plan",
		"groupNumber":              "GRP-123456",
		"effectiveDate":            "2024-01-01",
		"terminationDate":          "2024-12-31",
		"verificationDate":         now.Format(time.RFC3339),
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "eligibility": eligibility})
}
