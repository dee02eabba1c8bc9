package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/corepay/payroll-engine-go/internal/domain/configset"
	"github.com/corepay/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type configsetRepository struct {
	db *database.DB
}

func NewConfigsetRepository(db *database.DB) configset.Provider {
	return &configsetRepository{db: db}
}

func (r *configsetRepository) PayGrade(ctx context.Context, id string) (configset.PayGrade, error) {
	q := GetQuerier(ctx, r.db)

	var g configset.PayGrade
	err := q.QueryRow(ctx, `
		SELECT id, grade, base_salary, currency, status
		FROM pay_grades WHERE id = $1`, id,
	).Scan(&g.ID, &g.Grade, &g.BaseSalary, &g.Currency, &g.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return configset.PayGrade{}, configset.ErrPayGradeNotFound
		}
		return configset.PayGrade{}, fmt.Errorf("failed to get pay grade: %w", err)
	}
	return g, nil
}

func (r *configsetRepository) Allowances(ctx context.Context, status configset.ApprovalStatus) ([]configset.Allowance, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, name, amount, currency, status
		FROM allowances WHERE status = $1 ORDER BY name`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list allowances: %w", err)
	}
	defer rows.Close()

	var out []configset.Allowance
	for rows.Next() {
		var a configset.Allowance
		if err := rows.Scan(&a.ID, &a.Name, &a.Amount, &a.Currency, &a.Status); err != nil {
			return nil, fmt.Errorf("failed to scan allowance: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *configsetRepository) TaxRules(ctx context.Context, status configset.ApprovalStatus) ([]configset.TaxRule, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, name, rate, status
		FROM tax_rules WHERE status = $1 ORDER BY name`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax rules: %w", err)
	}
	defer rows.Close()

	var out []configset.TaxRule
	for rows.Next() {
		var t configset.TaxRule
		if err := rows.Scan(&t.ID, &t.Name, &t.Rate, &t.Status); err != nil {
			return nil, fmt.Errorf("failed to scan tax rule: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *configsetRepository) InsuranceBrackets(ctx context.Context, status configset.ApprovalStatus) ([]configset.InsuranceBracket, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, name, min_salary, max_salary, employee_rate, status
		FROM insurance_brackets WHERE status = $1 ORDER BY min_salary`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list insurance brackets: %w", err)
	}
	defer rows.Close()

	var out []configset.InsuranceBracket
	for rows.Next() {
		var b configset.InsuranceBracket
		if err := rows.Scan(&b.ID, &b.Name, &b.MinSalary, &b.MaxSalary, &b.EmployeeRate, &b.Status); err != nil {
			return nil, fmt.Errorf("failed to scan insurance bracket: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *configsetRepository) SigningBonusPlans(ctx context.Context, status configset.ApprovalStatus) ([]configset.SigningBonusPlan, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, name, amount, eligibility_days, status
		FROM signing_bonus_plans WHERE status = $1 ORDER BY name`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list signing bonus plans: %w", err)
	}
	defer rows.Close()

	var out []configset.SigningBonusPlan
	for rows.Next() {
		var p configset.SigningBonusPlan
		if err := rows.Scan(&p.ID, &p.Name, &p.Amount, &p.EligibilityDays, &p.Status); err != nil {
			return nil, fmt.Errorf("failed to scan signing bonus plan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *configsetRepository) TerminationBenefitPlans(ctx context.Context, status configset.ApprovalStatus) ([]configset.TerminationBenefitPlan, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, name, amount, status
		FROM termination_benefit_plans WHERE status = $1 ORDER BY name`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list termination benefit plans: %w", err)
	}
	defer rows.Close()

	var out []configset.TerminationBenefitPlan
	for rows.Next() {
		var p configset.TerminationBenefitPlan
		if err := rows.Scan(&p.ID, &p.Name, &p.Amount, &p.Status); err != nil {
			return nil, fmt.Errorf("failed to scan termination benefit plan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
