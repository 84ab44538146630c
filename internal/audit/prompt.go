package audit

import (
	"fmt"
	"strings"

	"github.com/tduong/medbill/internal/domain"
)

const promptPreamble = `You are a medical billing auditor. Analyze the following medical claim data and identify potential anomalies, errors, inconsistencies, or areas needing review (like potential upcoding/downcoding, mismatches between services and provider specialty, unusual charges, duplicate services, etc.). Explain your reasoning clearly for each identified point. If no issues are found, state that clearly.`

const promptCategories = `Please provide your findings in the following categories:
1. Coding accuracy
2. Documentation completeness
3. Medical necessity
4. Regulatory compliance
5. Fraud risk indicators
6. Recommendations`

// FormatPrompt renders a claim bundle as the natural-language document sent
// to the inference endpoint. The output is deterministic: sections appear in
// a fixed order, currency values are formatted to two decimal places, and
// missing optional fields render as "N/A" so the document structure stays
// stable for the model.
func FormatPrompt(b domain.ClaimBundle) string {
	var sb strings.Builder

	sb.WriteString(promptPreamble)
	sb.WriteString("\n\nCLAIM DATA:\n")

	fmt.Fprintf(&sb, "Claim ID: %d\n", b.Claim.ID)
	fmt.Fprintf(&sb, "Claim Date: %s\n", orNA(b.Claim.Date))
	fmt.Fprintf(&sb, "Claim Status: %s\n", orNA(b.Claim.Status))
	fmt.Fprintf(&sb, "Total Charge: $%.2f\n", b.Claim.TotalCharge)
	fmt.Fprintf(&sb, "Insurance Paid: $%.2f\n", b.Claim.InsurancePaid)
	fmt.Fprintf(&sb, "Patient Paid: $%.2f\n\n", b.Claim.PatientPaid)

	fmt.Fprintf(&sb, "Patient: %s (ID: %d)\n", orNA(b.Patient.Name()), b.Patient.ID)
	fmt.Fprintf(&sb, "Date of Birth: %s\n", orNA(b.Patient.DateOfBirth))
	fmt.Fprintf(&sb, "Insurance: %s (Policy: %s)\n\n",
		orNA(b.Patient.InsuranceProvider), orNA(b.Patient.InsurancePolicyNumber))

	fmt.Fprintf(&sb, "Provider: %s (ID: %d)\n", orNA(b.Provider.Name), b.Provider.ID)
	fmt.Fprintf(&sb, "NPI: %s\n", orNA(b.Provider.NPI))
	fmt.Fprintf(&sb, "Specialty: %s\n\n", orNA(b.Provider.Specialty))

	sb.WriteString("Services Billed:\n")
	for _, item := range b.Items {
		fmt.Fprintf(&sb, "- CPT Code: %s, Description: %s, Charge: $%.2f\n",
			orNA(item.CPTCode), orNA(item.Description), item.ChargeAmount)
	}

	sb.WriteString("\n")
	sb.WriteString(promptCategories)
	sb.WriteString("\n\nYOUR ANALYSIS:\n")

	return sb.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
