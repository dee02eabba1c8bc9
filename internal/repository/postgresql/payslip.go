package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/corepay/payroll-engine-go/internal/domain/payslip"
	"github.com/corepay/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payslipRepository struct {
	db *database.DB
}

func NewPayslipRepository(db *database.DB) payslip.Repository {
	return &payslipRepository{db: db}
}

func (r *payslipRepository) Create(ctx context.Context, p payslip.Payslip) (payslip.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	earnings, err := json.Marshal(p.Earnings)
	if err != nil {
		return payslip.Payslip{}, fmt.Errorf("failed to encode earnings: %w", err)
	}
	deductions, err := json.Marshal(p.Deductions)
	if err != nil {
		return payslip.Payslip{}, fmt.Errorf("failed to encode deductions: %w", err)
	}

	query := `
		INSERT INTO payslips (run_id, employee_id, earnings, deductions,
			total_gross, total_deductions, net_pay, currency, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err = q.QueryRow(ctx, query,
		p.RunID, p.EmployeeID, earnings, deductions,
		p.TotalGross, p.TotalDeductions, p.NetPay, p.Currency, p.GeneratedAt,
	).Scan(&p.ID)
	if err != nil {
		return payslip.Payslip{}, fmt.Errorf("failed to create payslip: %w", err)
	}
	return p, nil
}

const payslipColumns = `id, run_id, employee_id, earnings, deductions,
	total_gross, total_deductions, net_pay, currency, generated_at`

func scanPayslip(row pgx.Row) (payslip.Payslip, error) {
	var p payslip.Payslip
	var earnings, deductions []byte
	err := row.Scan(
		&p.ID, &p.RunID, &p.EmployeeID, &earnings, &deductions,
		&p.TotalGross, &p.TotalDeductions, &p.NetPay, &p.Currency, &p.GeneratedAt,
	)
	if err != nil {
		return payslip.Payslip{}, err
	}
	if err := json.Unmarshal(earnings, &p.Earnings); err != nil {
		return payslip.Payslip{}, fmt.Errorf("failed to decode earnings: %w", err)
	}
	if err := json.Unmarshal(deductions, &p.Deductions); err != nil {
		return payslip.Payslip{}, fmt.Errorf("failed to decode deductions: %w", err)
	}
	return p, nil
}

func (r *payslipRepository) GetByRunAndEmployee(ctx context.Context, runID, employeeID string) (payslip.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanPayslip(q.QueryRow(ctx,
		`SELECT `+payslipColumns+` FROM payslips WHERE run_id = $1 AND employee_id = $2`,
		runID, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payslip.Payslip{}, payslip.ErrPayslipNotFound
		}
		return payslip.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}
	return p, nil
}

func (r *payslipRepository) ListByRun(ctx context.Context, runID string) ([]payslip.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx,
		`SELECT `+payslipColumns+` FROM payslips WHERE run_id = $1 ORDER BY employee_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	defer rows.Close()

	var slips []payslip.Payslip
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		slips = append(slips, p)
	}
	return slips, rows.Err()
}
