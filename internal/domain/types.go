// Package domain defines the billing entities shared across storage,
// handlers, and the audit core, plus the canonical error taxonomy.
package domain

// Patient is a person receiving care. Optional contact and insurance
// fields are empty strings when unset.
type Patient struct {
	ID                    int64  `json:"patient_id" db:"patient_id"`
	FirstName             string `json:"first_name" db:"first_name"`
	LastName              string `json:"last_name" db:"last_name"`
	DateOfBirth           string `json:"date_of_birth" db:"date_of_birth"`
	Address               string `json:"address" db:"address"`
	PhoneNumber           string `json:"phone_number" db:"phone_number"`
	InsuranceProvider     string `json:"insurance_provider" db:"insurance_provider"`
	InsurancePolicyNumber string `json:"insurance_policy_number" db:"insurance_policy_number"`
}

// Name returns the patient's display name.
func (p Patient) Name() string {
	return p.FirstName + " " + p.LastName
}

// Provider is a billing provider (physician or facility) identified by NPI.
type Provider struct {
	ID          int64  `json:"provider_id" db:"provider_id"`
	Name        string `json:"provider_name" db:"provider_name"`
	NPI         string `json:"npi_number" db:"npi_number"`
	Specialty   string `json:"specialty" db:"specialty"`
	Address     string `json:"address" db:"address"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`
}

// Service is a billable procedure identified by CPT code.
type Service struct {
	ID             int64   `json:"service_id" db:"service_id"`
	CPTCode        string  `json:"cpt_code" db:"cpt_code"`
	Description    string  `json:"description" db:"description"`
	StandardCharge float64 `json:"standard_charge" db:"standard_charge"`
}

// Appointment links a patient and provider on a date.
type Appointment struct {
	ID             int64  `json:"appointment_id" db:"appointment_id"`
	PatientID      int64  `json:"patient_id" db:"patient_id"`
	ProviderID     int64  `json:"provider_id" db:"provider_id"`
	Date           string `json:"appointment_date" db:"appointment_date"`
	ReasonForVisit string `json:"reason_for_visit" db:"reason_for_visit"`
}

// ClaimStatuses are the values accepted by the claims table CHECK constraint.
var ClaimStatuses = []string{"Submitted", "Paid", "Denied", "Pending", "Partial"}

// Claim is a billing record with charge and payment totals. FraudScore is
// nil until an audit has been run against the claim.
type Claim struct {
	ID            int64    `json:"claim_id" db:"claim_id"`
	PatientID     int64    `json:"patient_id" db:"patient_id"`
	ProviderID    int64    `json:"provider_id" db:"provider_id"`
	Date          string   `json:"claim_date" db:"claim_date"`
	TotalCharge   float64  `json:"total_charge" db:"total_charge"`
	InsurancePaid float64  `json:"insurance_paid" db:"insurance_paid"`
	PatientPaid   float64  `json:"patient_paid" db:"patient_paid"`
	Status        string   `json:"status" db:"status"`
	FraudScore    *float64 `json:"fraud_score,omitempty" db:"fraud_score"`

	// Denormalized display names populated by list queries.
	PatientName  string `json:"patient_name,omitempty" db:"patient_name"`
	ProviderName string `json:"provider_name,omitempty" db:"provider_name"`
}

// ClaimItem is a billed line on a claim referencing a service.
type ClaimItem struct {
	ID           int64   `json:"claim_item_id" db:"claim_item_id"`
	ClaimID      int64   `json:"claim_id" db:"claim_id"`
	ServiceID    int64   `json:"service_id" db:"service_id"`
	ChargeAmount float64 `json:"charge_amount" db:"charge_amount"`
}

// PaymentSources are the values accepted by the payments table CHECK constraint.
var PaymentSources = []string{"Insurance", "Patient"}

// Payment records money received against a claim.
type Payment struct {
	ID              int64   `json:"payment_id" db:"payment_id"`
	ClaimID         int64   `json:"claim_id" db:"claim_id"`
	Date            string  `json:"payment_date" db:"payment_date"`
	Amount          float64 `json:"amount" db:"amount"`
	Source          string  `json:"payment_source" db:"payment_source"`
	ReferenceNumber string  `json:"reference_number" db:"reference_number"`
}

// LineItem is a billed service as it appears in a claim bundle: the claim
// item's charge joined with the service's CPT code and description.
type LineItem struct {
	CPTCode      string  `json:"cpt_code" db:"cpt_code"`
	Description  string  `json:"description" db:"description"`
	ChargeAmount float64 `json:"charge_amount" db:"charge_amount"`
}

// ClaimBundle is the read-only value object handed to the audit core: a
// claim joined with its line items and the associated patient and provider
// records. Assembled by the storage layer, never mutated downstream.
type ClaimBundle struct {
	Claim    Claim      `json:"claim"`
	Items    []LineItem `json:"items"`
	Patient  Patient    `json:"patient"`
	Provider Provider   `json:"provider"`
}
