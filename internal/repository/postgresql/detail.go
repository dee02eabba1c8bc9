package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/corepay/payroll-engine-go/internal/domain/detail"
	"github.com/corepay/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type detailRepository struct {
	db *database.DB
}

func NewDetailRepository(db *database.DB) detail.Repository {
	return &detailRepository{db: db}
}

const detailColumns = `id, run_id, employee_id, base_salary, salary_source,
	allowances, deductions, penalties, refunds, refund_ids, bonus, benefit,
	net_salary, net_pay, bank_status, currency, breakdown, created_at, updated_at`

func scanDetail(row pgx.Row) (detail.Detail, error) {
	var d detail.Detail
	var breakdown, refundIDs []byte
	err := row.Scan(
		&d.ID, &d.RunID, &d.EmployeeID, &d.BaseSalary, &d.SalarySource,
		&d.Allowances, &d.Deductions, &d.Penalties, &d.Refunds, &refundIDs, &d.Bonus, &d.Benefit,
		&d.NetSalary, &d.NetPay, &d.BankStatus, &d.Currency, &breakdown, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return detail.Detail{}, err
	}
	if len(refundIDs) > 0 {
		if err := json.Unmarshal(refundIDs, &d.RefundIDs); err != nil {
			return detail.Detail{}, fmt.Errorf("failed to decode refund ids: %w", err)
		}
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &d.Breakdown); err != nil {
			return detail.Detail{}, fmt.Errorf("failed to decode deductions breakdown: %w", err)
		}
	}
	return d, nil
}

func (r *detailRepository) CreateSkeleton(ctx context.Context, runID, employeeID, currency string) (detail.Detail, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_details (run_id, employee_id, currency, bank_status, salary_source)
		VALUES ($1, $2, $3, 'valid', 'none')
		RETURNING ` + detailColumns

	d, err := scanDetail(q.QueryRow(ctx, query, runID, employeeID, currency))
	if err != nil {
		if strings.Contains(err.Error(), "uk_payroll_detail_run_employee") {
			return detail.Detail{}, detail.ErrDetailExists
		}
		return detail.Detail{}, fmt.Errorf("failed to create payroll detail: %w", err)
	}
	return d, nil
}

func (r *detailRepository) SaveFigures(ctx context.Context, d detail.Detail) (detail.Detail, error) {
	q := GetQuerier(ctx, r.db)

	breakdown, err := json.Marshal(d.Breakdown)
	if err != nil {
		return detail.Detail{}, fmt.Errorf("failed to encode deductions breakdown: %w", err)
	}
	refundIDs, err := json.Marshal(d.RefundIDs)
	if err != nil {
		return detail.Detail{}, fmt.Errorf("failed to encode refund ids: %w", err)
	}

	query := `
		UPDATE payroll_details SET
			base_salary = $1, salary_source = $2,
			allowances = $3, deductions = $4, penalties = $5, refunds = $6,
			refund_ids = $7, bonus = $8, benefit = $9, net_salary = $10,
			net_pay = $11, bank_status = $12, breakdown = $13, updated_at = NOW()
		WHERE run_id = $14 AND employee_id = $15
		RETURNING ` + detailColumns

	saved, err := scanDetail(q.QueryRow(ctx, query,
		d.BaseSalary, d.SalarySource,
		d.Allowances, d.Deductions, d.Penalties, d.Refunds,
		refundIDs, d.Bonus, d.Benefit, d.NetSalary,
		d.NetPay, d.BankStatus, breakdown, d.RunID, d.EmployeeID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return detail.Detail{}, detail.ErrDetailNotFound
		}
		return detail.Detail{}, fmt.Errorf("failed to save payroll detail figures: %w", err)
	}
	return saved, nil
}

func (r *detailRepository) GetByRunAndEmployee(ctx context.Context, runID, employeeID string) (detail.Detail, error) {
	q := GetQuerier(ctx, r.db)

	d, err := scanDetail(q.QueryRow(ctx,
		`SELECT `+detailColumns+` FROM payroll_details WHERE run_id = $1 AND employee_id = $2`,
		runID, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return detail.Detail{}, detail.ErrDetailNotFound
		}
		return detail.Detail{}, fmt.Errorf("failed to get payroll detail: %w", err)
	}

	if err := r.loadExceptions(ctx, &d); err != nil {
		return detail.Detail{}, err
	}
	return d, nil
}

func (r *detailRepository) ListByRun(ctx context.Context, runID string) ([]detail.Detail, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx,
		`SELECT `+detailColumns+` FROM payroll_details WHERE run_id = $1 ORDER BY employee_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll details: %w", err)
	}
	defer rows.Close()

	var details []detail.Detail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll detail: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range details {
		if err := r.loadExceptions(ctx, &details[i]); err != nil {
			return nil, err
		}
	}
	return details, nil
}

func (r *detailRepository) DeleteByRun(ctx context.Context, runID string) error {
	// Child exception tables cascade on delete.
	q := GetQuerier(ctx, r.db)
	if _, err := q.Exec(ctx, `DELETE FROM payroll_details WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("failed to delete payroll details: %w", err)
	}
	return nil
}

func (r *detailRepository) AppendException(ctx context.Context, detailID string, msg detail.ExceptionMessage, evt detail.ExceptionEvent) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		_, err := q.Exec(ctx, `
			INSERT INTO payroll_detail_exceptions (id, detail_id, code, message, status, flagged_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			msg.ID, detailID, msg.Code, msg.Message, msg.Status, msg.FlaggedAt)
		if err != nil {
			return fmt.Errorf("failed to insert exception message: %w", err)
		}

		_, err = q.Exec(ctx, `
			INSERT INTO payroll_detail_exception_events (id, detail_id, action, code, message, actor, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			evt.ID, detailID, evt.Action, evt.Code, evt.Message, evt.Actor, evt.At)
		if err != nil {
			return fmt.Errorf("failed to insert exception event: %w", err)
		}
		return nil
	})
}

func (r *detailRepository) ResolveMessage(ctx context.Context, detailID string, msg detail.ExceptionMessage, evt detail.ExceptionEvent) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		tag, err := q.Exec(ctx, `
			UPDATE payroll_detail_exceptions
			SET status = $1, resolved_by = $2, resolved_at = $3, resolution = $4
			WHERE id = $5 AND detail_id = $6 AND status = 'active'`,
			msg.Status, msg.ResolvedBy, msg.ResolvedAt, msg.Resolution, msg.ID, detailID)
		if err != nil {
			return fmt.Errorf("failed to resolve exception message: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return detail.ErrExceptionNotFound
		}

		_, err = q.Exec(ctx, `
			INSERT INTO payroll_detail_exception_events (id, detail_id, action, code, message, actor, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			evt.ID, detailID, evt.Action, evt.Code, evt.Message, evt.Actor, evt.At)
		if err != nil {
			return fmt.Errorf("failed to insert exception event: %w", err)
		}
		return nil
	})
}

func (r *detailRepository) loadExceptions(ctx context.Context, d *detail.Detail) error {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, code, message, status, flagged_at, resolved_by, resolved_at, resolution
		FROM payroll_detail_exceptions
		WHERE detail_id = $1
		ORDER BY flagged_at`, d.ID)
	if err != nil {
		return fmt.Errorf("failed to load exception messages: %w", err)
	}
	defer rows.Close()

	d.Messages = nil
	for rows.Next() {
		var m detail.ExceptionMessage
		if err := rows.Scan(&m.ID, &m.Code, &m.Message, &m.Status, &m.FlaggedAt,
			&m.ResolvedBy, &m.ResolvedAt, &m.Resolution); err != nil {
			return fmt.Errorf("failed to scan exception message: %w", err)
		}
		d.Messages = append(d.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	evtRows, err := q.Query(ctx, `
		SELECT id, action, code, message, actor, occurred_at
		FROM payroll_detail_exception_events
		WHERE detail_id = $1
		ORDER BY occurred_at`, d.ID)
	if err != nil {
		return fmt.Errorf("failed to load exception events: %w", err)
	}
	defer evtRows.Close()

	d.History = nil
	for evtRows.Next() {
		var e detail.ExceptionEvent
		if err := evtRows.Scan(&e.ID, &e.Action, &e.Code, &e.Message, &e.Actor, &e.At); err != nil {
			return fmt.Errorf("failed to scan exception event: %w", err)
		}
		d.History = append(d.History, e)
	}
	return evtRows.Err()
}
