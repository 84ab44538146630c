package sqlite

import (
	"context"
	"fmt"
)

// Seed loads the demo dataset: five patients, three providers, eight CPT
// services, and a spread of appointments, claims, line items, and payments
// covering every claim status. Intended for dev servers and in-memory
// stores; it is not idempotent against an already-seeded database.
func (s *Store) Seed(ctx context.Context) error {
	seedStatements := []struct {
		query string
		rows  [][]any
	}{
		{
			`INSERT INTO patients (patient_id, first_name, last_name, date_of_birth, address, phone_number, insurance_provider, insurance_policy_number)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			[][]any{
				{1, "John", "Doe", "1985-03-15", "123 Main St, Anytown, USA", "555-1234", "BlueCross", "BCBS123456789"},
				{2, "Jane", "Smith", "1992-07-22", "456 Oak Ave, Anytown, USA", "555-5678", "Aetna", "AETNA987654321"},
				{3, "Robert", "Johnson", "1978-11-01", "789 Pine Ln, Anytown, USA", "555-9101", "Cigna", "CIGNA112233445"},
				{4, "Maria", "Garcia", "2001-01-30", "101 Maple Dr, Anytown, USA", "555-1121", "UnitedHealthcare", "UHC556677889"},
				{5, "David", "Miller", "1965-09-10", "202 Birch Rd, Anytown, USA", "555-3141", "BlueCross", "BCBS998877665"},
			},
		},
		{
			`INSERT INTO providers (provider_id, provider_name, npi_number, specialty, address, phone_number)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			[][]any{
				{1, "Dr. Alice Brown", "1234567890", "Cardiology", "1 Medical Plaza, Anytown, USA", "555-1000"},
				{2, "Dr. Bob White", "0987654321", "Pediatrics", "2 Health Way, Anytown, USA", "555-2000"},
				{3, "Anytown Clinic", "1122334455", "General Practice", "3 Wellness Blvd, Anytown, USA", "555-3000"},
			},
		},
		{
			`INSERT INTO services (service_id, cpt_code, description, standard_charge) VALUES (?, ?, ?, ?)`,
			[][]any{
				{1, "99213", "Office visit, established patient, low complexity", 125.00},
				{2, "99214", "Office visit, established patient, moderate complexity", 175.00},
				{3, "99203", "Office visit, new patient, low complexity", 150.00},
				{4, "99395", "Periodic preventive medicine Px; 18-39 years", 200.00},
				{5, "90686", "Flu vaccine, quadrivalent, intramuscular", 45.00},
				{6, "80053", "Comprehensive metabolic panel", 85.00},
				{7, "85025", "Complete blood count (CBC), automated", 60.00},
				{8, "93000", "Electrocardiogram (ECG), routine", 75.00},
			},
		},
		{
			`INSERT INTO appointments (appointment_id, patient_id, provider_id, appointment_date, reason_for_visit)
			 VALUES (?, ?, ?, ?, ?)`,
			[][]any{
				{1, 1, 1, "2025-03-05 10:00:00", "Follow-up visit for hypertension"},
				{2, 2, 3, "2025-03-08 14:30:00", "Annual physical"},
				{3, 3, 1, "2025-03-12 09:15:00", "Chest pain evaluation"},
				{4, 4, 2, "2025-03-15 11:00:00", "Well-child check-up"},
				{5, 1, 3, "2025-03-20 16:00:00", "Flu shot"},
				{6, 5, 1, "2025-03-25 08:45:00", "Consultation for arrhythmia"},
				{7, 2, 3, "2025-04-02 13:00:00", "Lab work follow-up"},
				{8, 4, 2, "2025-04-10 15:15:00", "Sick visit - fever"},
				{9, 3, 3, "2025-04-18 10:30:00", "General check-up"},
			},
		},
		{
			`INSERT INTO claims (claim_id, patient_id, provider_id, claim_date, total_charge, insurance_paid, patient_paid, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			[][]any{
				{1, 1, 1, "2025-03-05", 125.00, 100.00, 25.00, "Paid"},
				{2, 2, 3, "2025-03-08", 200.00, 180.00, 0, "Partial"},
				{3, 3, 1, "2025-03-12", 250.00, 0, 0, "Pending"},
				{4, 4, 2, "2025-03-15", 150.00, 0, 0, "Submitted"},
				{5, 1, 3, "2025-03-20", 45.00, 45.00, 0, "Paid"},
				{6, 5, 1, "2025-03-25", 175.00, 0, 0, "Submitted"},
				{7, 2, 3, "2025-04-02", 145.00, 110.00, 0, "Partial"},
				{8, 4, 2, "2025-04-10", 125.00, 0, 0, "Denied"},
				// Deliberately implausible total for audit demos.
				{9, 3, 3, "2025-04-18", 1250000.00, 0, 0, "Submitted"},
				{10, 3, 2, "2025-04-18", 125.00, 0, 0, "Submitted"},
			},
		},
		{
			`INSERT INTO claim_items (claim_item_id, claim_id, service_id, charge_amount) VALUES (?, ?, ?, ?)`,
			[][]any{
				{1, 1, 1, 125.00},
				{2, 2, 4, 200.00},
				{3, 3, 2, 175.00},
				{4, 3, 8, 75.00},
				{5, 4, 3, 150.00},
				{6, 5, 5, 45.00},
				{7, 6, 2, 175.00},
				{8, 7, 6, 85.00},
				{9, 7, 7, 60.00},
				{10, 8, 1, 125.00},
				{11, 9, 1, 125.00},
				{12, 10, 1, 125.00},
			},
		},
		{
			`INSERT INTO payments (payment_id, claim_id, payment_date, amount, payment_source, reference_number)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			[][]any{
				{1, 1, "2025-03-20", 100.00, "Insurance", "BCBS_PAY_123"},
				{2, 1, "2025-04-01", 25.00, "Patient", "CHECK_456"},
				{3, 2, "2025-03-25", 180.00, "Insurance", "AETNA_PAY_789"},
				{4, 5, "2025-03-28", 45.00, "Insurance", "BCBS_PAY_101"},
				{5, 7, "2025-04-15", 110.00, "Insurance", "UHC_PAY_112"},
			},
		},
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range seedStatements {
		for _, row := range stmt.rows {
			if _, err := tx.ExecContext(ctx, stmt.query, row...); err != nil {
				return fmt.Errorf("seeding: %w", err)
			}
		}
	}

	return tx.Commit()
}
