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

func (s *Store) ListPayments(ctx context.Context, claimID int64) ([]domain.Payment, error) {
	query := `SELECT * FROM payments`
	var args []any
	if claimID != 0 {
		query += ` WHERE claim_id = ?`
		args = append(args, claimID)
	}
	query += ` ORDER BY payment_date DESC`

	payments := []domain.Payment{}
	err := s.db.SelectContext(ctx, &payments, query, args...)
	return payments, err
}

func (s *Store) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	var p domain.Payment
	err := s.db.GetContext(ctx, &p, `SELECT * FROM payments WHERE payment_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("payment", "payment %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePayment records a payment and adds its amount to the owning
// claim's insurance_paid or patient_paid total.
func (s *Store) CreatePayment(ctx context.Context, p *domain.Payment) error {
	claim, err := s.GetClaim(ctx, p.ClaimID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO payments (claim_id, payment_date, amount, payment_source, reference_number)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ClaimID, p.Date, p.Amount, p.Source, p.ReferenceNumber)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}

	column, err := paidColumn(p.Source)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE claims SET %s = %s + ? WHERE claim_id = ?`, column, column),
		p.Amount, claim.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdatePayment applies a partial update. Amount and source changes are
// mirrored onto the owning claim's paid totals.
func (s *Store) UpdatePayment(ctx context.Context, id int64, u storage.PaymentUpdate) (*domain.Payment, error) {
	current, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	var sets []string
	var args []any
	if u.Date != nil {
		sets = append(sets, "payment_date = ?")
		args = append(args, *u.Date)
	}
	if u.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, *u.Amount)
	}
	if u.Source != nil {
		sets = append(sets, "payment_source = ?")
		args = append(args, *u.Source)
	}
	if u.ReferenceNumber != nil {
		sets = append(sets, "reference_number = ?")
		args = append(args, *u.ReferenceNumber)
	}
	if len(sets) == 0 {
		return current, nil
	}
	args = append(args, id)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE payments SET %s WHERE payment_id = ?`, strings.Join(sets, ", ")),
		args...); err != nil {
		return nil, err
	}

	newAmount := current.Amount
	if u.Amount != nil {
		newAmount = *u.Amount
	}
	newSource := current.Source
	if u.Source != nil {
		newSource = *u.Source
	}
	if newAmount != current.Amount || newSource != current.Source {
		oldColumn, err := paidColumn(current.Source)
		if err != nil {
			return nil, err
		}
		newColumn, err := paidColumn(newSource)
		if err != nil {
			return nil, err
		}
		if oldColumn == newColumn {
			diff := newAmount - current.Amount
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`UPDATE claims SET %s = MAX(0, %s + ?) WHERE claim_id = ?`, oldColumn, oldColumn),
				diff, current.ClaimID); err != nil {
				return nil, err
			}
		} else {
			// The payment moved between sources: back it out of the old
			// column and add it to the new one.
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`UPDATE claims SET %s = MAX(0, %s - ?) WHERE claim_id = ?`, oldColumn, oldColumn),
				current.Amount, current.ClaimID); err != nil {
				return nil, err
			}
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`UPDATE claims SET %s = %s + ? WHERE claim_id = ?`, newColumn, newColumn),
				newAmount, current.ClaimID); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetPayment(ctx, id)
}

// DeletePayment removes a payment and subtracts its amount from the owning
// claim's paid total, flooring at zero.
func (s *Store) DeletePayment(ctx context.Context, id int64) error {
	current, err := s.GetPayment(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE payment_id = ?`, id); err != nil {
		return err
	}

	column, err := paidColumn(current.Source)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE claims SET %s = MAX(0, %s - ?) WHERE claim_id = ?`, column, column),
		current.Amount, current.ClaimID); err != nil {
		return err
	}

	return tx.Commit()
}

func paidColumn(source string) (string, error) {
	switch source {
	case "Insurance":
		return "insurance_paid", nil
	case "Patient":
		return "patient_paid", nil
	default:
		return "", domain.ErrValidation("payment source must be Insurance or Patient, got %q", source)
	}
}
