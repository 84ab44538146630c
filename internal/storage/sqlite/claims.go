package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tduong/medbill/internal/domain"
	"github.com/tduong/medbill/internal/storage"
)

const claimListQuery = `
SELECT c.*, p.first_name || ' ' || p.last_name AS patient_name,
       pr.provider_name
FROM claims c
JOIN patients p ON c.patient_id = p.patient_id
JOIN providers pr ON c.provider_id = pr.provider_id`

func (s *Store) ListClaims(ctx context.Context, f storage.ClaimFilter) ([]domain.Claim, error) {
	query := claimListQuery
	var conditions []string
	var args []any
	if f.PatientID != 0 {
		conditions = append(conditions, "c.patient_id = ?")
		args = append(args, f.PatientID)
	}
	if f.ProviderID != 0 {
		conditions = append(conditions, "c.provider_id = ?")
		args = append(args, f.ProviderID)
	}
	if f.Status != "" {
		conditions = append(conditions, "c.status = ?")
		args = append(args, f.Status)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY c.claim_date DESC"

	claims := []domain.Claim{}
	err := s.db.SelectContext(ctx, &claims, query, args...)
	return claims, err
}

func (s *Store) GetClaim(ctx context.Context, id int64) (*domain.Claim, error) {
	var c domain.Claim
	err := s.db.GetContext(ctx, &c, claimListQuery+` WHERE c.claim_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("claim", "claim %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListClaimItems(ctx context.Context, claimID int64) ([]domain.ClaimItem, error) {
	items := []domain.ClaimItem{}
	err := s.db.SelectContext(ctx, &items,
		`SELECT * FROM claim_items WHERE claim_id = ? ORDER BY claim_item_id`, claimID)
	return items, err
}

// CreateClaim inserts a claim and its line items in one transaction. Every
// line item must reference an existing service.
func (s *Store) CreateClaim(ctx context.Context, c *domain.Claim, items []domain.ClaimItem) error {
	if _, err := s.GetPatient(ctx, c.PatientID); err != nil {
		return err
	}
	if _, err := s.GetProvider(ctx, c.ProviderID); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := s.GetService(ctx, item.ServiceID); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO claims (patient_id, provider_id, claim_date, total_charge, insurance_paid, patient_paid, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.PatientID, c.ProviderID, c.Date, c.TotalCharge, c.InsurancePaid, c.PatientPaid, c.Status)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}

	for _, item := range items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO claim_items (claim_id, service_id, charge_amount) VALUES (?, ?, ?)`,
			c.ID, item.ServiceID, item.ChargeAmount); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// UpdateClaim applies a partial update and returns the refreshed claim.
func (s *Store) UpdateClaim(ctx context.Context, id int64, u storage.ClaimUpdate) (*domain.Claim, error) {
	var sets []string
	var args []any
	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *u.Status)
	}
	if u.InsurancePaid != nil {
		sets = append(sets, "insurance_paid = ?")
		args = append(args, *u.InsurancePaid)
	}
	if u.PatientPaid != nil {
		sets = append(sets, "patient_paid = ?")
		args = append(args, *u.PatientPaid)
	}
	if len(sets) == 0 {
		return s.GetClaim(ctx, id)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE claims SET %s WHERE claim_id = ?`, strings.Join(sets, ", ")),
		args...)
	if err != nil {
		return nil, err
	}
	if err := requireRow(res, "claim", id); err != nil {
		return nil, err
	}
	return s.GetClaim(ctx, id)
}

func (s *Store) DeleteClaim(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM claims WHERE claim_id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "claim", id)
}

// SetClaimFraudScore persists an audit's fraud score onto the claim.
func (s *Store) SetClaimFraudScore(ctx context.Context, id int64, score float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE claims SET fraud_score = ? WHERE claim_id = ?`, score, id)
	if err != nil {
		return err
	}
	return requireRow(res, "claim", id)
}

// ClaimBundle assembles the claim, its line items joined with service
// descriptions, and the patient and provider records for the audit core.
func (s *Store) ClaimBundle(ctx context.Context, claimID int64) (*domain.ClaimBundle, error) {
	claim, err := s.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	patient, err := s.GetPatient(ctx, claim.PatientID)
	if err != nil {
		return nil, err
	}
	provider, err := s.GetProvider(ctx, claim.ProviderID)
	if err != nil {
		return nil, err
	}

	items := []domain.LineItem{}
	err = s.db.SelectContext(ctx, &items,
		`SELECT s.cpt_code AS "cpt_code", s.description AS "description", ci.charge_amount AS "charge_amount"
		 FROM claim_items ci
		 JOIN services s ON ci.service_id = s.service_id
		 WHERE ci.claim_id = ?
		 ORDER BY ci.claim_item_id`, claimID)
	if err != nil {
		return nil, err
	}

	return &domain.ClaimBundle{
		Claim:    *claim,
		Items:    items,
		Patient:  *patient,
		Provider: *provider,
	}, nil
}
