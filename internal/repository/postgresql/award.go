package postgresql

import (
	"context"
	"fmt"

	"github.com/corepay/payroll-engine-go/internal/domain/award"
	"github.com/corepay/payroll-engine-go/internal/pkg/database"
)

type awardRepository struct {
	db *database.DB
}

func NewAwardRepository(db *database.DB) award.Repository {
	return &awardRepository{db: db}
}

func (r *awardRepository) CreateBonusIfAbsent(ctx context.Context, b award.SigningBonus) (bool, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		INSERT INTO signing_bonuses (employee_id, plan_id, amount, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (employee_id, plan_id) DO NOTHING`,
		b.EmployeeID, b.PlanID, b.Amount, b.Status)
	if err != nil {
		return false, fmt.Errorf("failed to create signing bonus: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *awardRepository) CreateBenefitIfAbsent(ctx context.Context, b award.TerminationBenefit) (bool, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		INSERT INTO termination_benefits (employee_id, plan_id, termination_date, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (employee_id, plan_id, termination_date) DO NOTHING`,
		b.EmployeeID, b.PlanID, b.TerminationDate, b.Amount, b.Status)
	if err != nil {
		return false, fmt.Errorf("failed to create termination benefit: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *awardRepository) ListPending(ctx context.Context) ([]award.PendingItem, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT 'signing_bonus' AS kind, id, employee_id FROM signing_bonuses WHERE status = 'PENDING'
		UNION ALL
		SELECT 'termination_benefit' AS kind, id, employee_id FROM termination_benefits WHERE status = 'PENDING'
		ORDER BY kind, id
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending awards: %w", err)
	}
	defer rows.Close()

	var items []award.PendingItem
	for rows.Next() {
		var item award.PendingItem
		if err := rows.Scan(&item.Kind, &item.ID, &item.EmployeeID); err != nil {
			return nil, fmt.Errorf("failed to scan pending award: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *awardRepository) ApprovedBonusesFor(ctx context.Context, employeeID string) ([]award.SigningBonus, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, employee_id, plan_id, amount, status, decided_by, decided_at, created_at
		FROM signing_bonuses
		WHERE employee_id = $1 AND status = 'APPROVED'`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list signing bonuses: %w", err)
	}
	defer rows.Close()

	var bonuses []award.SigningBonus
	for rows.Next() {
		var b award.SigningBonus
		if err := rows.Scan(&b.ID, &b.EmployeeID, &b.PlanID, &b.Amount, &b.Status,
			&b.DecidedBy, &b.DecidedAt, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan signing bonus: %w", err)
		}
		bonuses = append(bonuses, b)
	}
	return bonuses, rows.Err()
}

func (r *awardRepository) ApprovedBenefitsFor(ctx context.Context, employeeID string) ([]award.TerminationBenefit, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, employee_id, plan_id, termination_date, amount, status, decided_by, decided_at, created_at
		FROM termination_benefits
		WHERE employee_id = $1 AND status = 'APPROVED'`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list termination benefits: %w", err)
	}
	defer rows.Close()

	var benefits []award.TerminationBenefit
	for rows.Next() {
		var b award.TerminationBenefit
		if err := rows.Scan(&b.ID, &b.EmployeeID, &b.PlanID, &b.TerminationDate, &b.Amount, &b.Status,
			&b.DecidedBy, &b.DecidedAt, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan termination benefit: %w", err)
		}
		benefits = append(benefits, b)
	}
	return benefits, rows.Err()
}

func (r *awardRepository) Decide(ctx context.Context, kind award.Kind, id string, status award.Status, decidedBy string) error {
	q := GetQuerier(ctx, r.db)

	table := "signing_bonuses"
	if kind == award.KindTerminationBenefit {
		table = "termination_benefits"
	}

	tag, err := q.Exec(ctx, fmt.Sprintf(`
		UPDATE %s SET status = $1, decided_by = $2, decided_at = NOW()
		WHERE id = $3 AND status = 'PENDING'`, table),
		status, decidedBy, id)
	if err != nil {
		return fmt.Errorf("failed to decide award: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// missing vs already decided
		var exists bool
		if err := q.QueryRow(ctx, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table), id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check award existence: %w", err)
		}
		if exists {
			return award.ErrAwardAlreadyDecided
		}
		return award.ErrAwardNotFound
	}
	return nil
}
