package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/corepay/payroll-engine-go/internal/domain/run"
	"github.com/corepay/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type runRepository struct {
	db *database.DB
}

func NewRunRepository(db *database.DB) run.Repository {
	return &runRepository{db: db}
}

const runColumns = `id, run_id, period, entity_name, currency,
	specialist_id, manager_id, finance_staff_id,
	status, payment_status, employee_count, exception_count, total_net_pay,
	rejection_reason, unlock_reason,
	reviewed_at, manager_approved_at, finance_approved_at, locked_at,
	created_by, updated_by, version, created_at, updated_at`

func scanRun(row pgx.Row) (run.PayrollRun, error) {
	var r run.PayrollRun
	err := row.Scan(
		&r.ID, &r.RunID, &r.Period, &r.EntityName, &r.Currency,
		&r.SpecialistID, &r.ManagerID, &r.FinanceStaffID,
		&r.Status, &r.PaymentStatus, &r.EmployeeCount, &r.ExceptionCount, &r.TotalNetPay,
		&r.RejectionReason, &r.UnlockReason,
		&r.ReviewedAt, &r.ManagerApprovedAt, &r.FinanceApprovedAt, &r.LockedAt,
		&r.CreatedBy, &r.UpdatedBy, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func (repo *runRepository) Create(ctx context.Context, r run.PayrollRun) (run.PayrollRun, error) {
	q := GetQuerier(ctx, repo.db)

	query := `
		INSERT INTO payroll_runs (
			run_id, period, entity_name, currency,
			specialist_id, manager_id, finance_staff_id,
			status, payment_status, total_net_pay, created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + runColumns

	created, err := scanRun(q.QueryRow(ctx, query,
		r.RunID, r.Period, r.EntityName, r.Currency,
		r.SpecialistID, r.ManagerID, r.FinanceStaffID,
		r.Status, r.PaymentStatus, r.TotalNetPay, r.CreatedBy, r.UpdatedBy,
	))
	if err != nil {
		if strings.Contains(err.Error(), "uk_payroll_run_active_period") {
			return run.PayrollRun{}, run.ErrDuplicatePeriod
		}
		return run.PayrollRun{}, fmt.Errorf("failed to create payroll run: %w", err)
	}
	return created, nil
}

func (repo *runRepository) GetByID(ctx context.Context, id string) (run.PayrollRun, error) {
	q := GetQuerier(ctx, repo.db)

	r, err := scanRun(q.QueryRow(ctx, `SELECT `+runColumns+` FROM payroll_runs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return run.PayrollRun{}, run.ErrRunNotFound
		}
		return run.PayrollRun{}, fmt.Errorf("failed to get payroll run: %w", err)
	}
	return r, nil
}

func (repo *runRepository) GetByRunID(ctx context.Context, runID string) (run.PayrollRun, error) {
	q := GetQuerier(ctx, repo.db)

	r, err := scanRun(q.QueryRow(ctx, `SELECT `+runColumns+` FROM payroll_runs WHERE run_id = $1`, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return run.PayrollRun{}, run.ErrRunNotFound
		}
		return run.PayrollRun{}, fmt.Errorf("failed to get payroll run: %w", err)
	}
	return r, nil
}

func (repo *runRepository) List(ctx context.Context, filter run.RunFilter) ([]run.PayrollRun, int64, error) {
	q := GetQuerier(ctx, repo.db)

	conditions := []string{"1=1"}
	args := []any{}
	argPos := 1

	if filter.Year != nil {
		conditions = append(conditions, fmt.Sprintf("EXTRACT(YEAR FROM period) = $%d", argPos))
		args = append(args, *filter.Year)
		argPos++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filter.Status)
		argPos++
	}
	if filter.Entity != nil {
		conditions = append(conditions, fmt.Sprintf("entity_name = $%d", argPos))
		args = append(args, *filter.Entity)
		argPos++
	}
	where := strings.Join(conditions, " AND ")

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM payroll_runs WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll runs: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM payroll_runs WHERE %s ORDER BY period DESC, run_id DESC LIMIT $%d OFFSET $%d`,
		runColumns, where, argPos, argPos+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll runs: %w", err)
	}
	defer rows.Close()

	var runs []run.PayrollRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, total, rows.Err()
}

func (repo *runRepository) FindActiveByPeriod(ctx context.Context, entityName string, period time.Time) (run.PayrollRun, error) {
	q := GetQuerier(ctx, repo.db)

	query := `SELECT ` + runColumns + `
		FROM payroll_runs
		WHERE entity_name = $1 AND period = $2 AND status != 'REJECTED'`

	r, err := scanRun(q.QueryRow(ctx, query, entityName, run.TruncateToMonth(period)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return run.PayrollRun{}, run.ErrRunNotFound
		}
		return run.PayrollRun{}, fmt.Errorf("failed to find active run for period: %w", err)
	}
	return r, nil
}

// NextSequence allocates a yearly-resetting sequence through an upsert on the
// counter row, atomic across concurrent callers.
func (repo *runRepository) NextSequence(ctx context.Context, year int) (int, error) {
	q := GetQuerier(ctx, repo.db)

	query := `
		INSERT INTO payroll_run_sequences (year, last_seq)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_seq = payroll_run_sequences.last_seq + 1
		RETURNING last_seq
	`

	var seq int
	if err := q.QueryRow(ctx, query, year).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to allocate run sequence: %w", err)
	}
	return seq, nil
}

func (repo *runRepository) Update(ctx context.Context, r run.PayrollRun) (run.PayrollRun, error) {
	q := GetQuerier(ctx, repo.db)

	query := `
		UPDATE payroll_runs SET
			period = $1, entity_name = $2, currency = $3,
			specialist_id = $4, manager_id = $5, finance_staff_id = $6,
			updated_by = $7, version = version + 1, updated_at = NOW()
		WHERE id = $8 AND version = $9
		RETURNING ` + runColumns

	updated, err := scanRun(q.QueryRow(ctx, query,
		r.Period, r.EntityName, r.Currency,
		r.SpecialistID, r.ManagerID, r.FinanceStaffID,
		r.UpdatedBy, r.ID, r.Version,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return run.PayrollRun{}, repo.conflictOrMissing(ctx, r.ID)
		}
		return run.PayrollRun{}, fmt.Errorf("failed to update payroll run: %w", err)
	}
	return updated, nil
}

func (repo *runRepository) UpdateStatus(ctx context.Context, r run.PayrollRun) (run.PayrollRun, error) {
	q := GetQuerier(ctx, repo.db)

	query := `
		UPDATE payroll_runs SET
			status = $1, payment_status = $2,
			rejection_reason = $3, unlock_reason = $4,
			reviewed_at = $5, manager_approved_at = $6, finance_approved_at = $7, locked_at = $8,
			updated_by = $9, version = version + 1, updated_at = NOW()
		WHERE id = $10 AND version = $11
		RETURNING ` + runColumns

	updated, err := scanRun(q.QueryRow(ctx, query,
		r.Status, r.PaymentStatus,
		r.RejectionReason, r.UnlockReason,
		r.ReviewedAt, r.ManagerApprovedAt, r.FinanceApprovedAt, r.LockedAt,
		r.UpdatedBy, r.ID, r.Version,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return run.PayrollRun{}, repo.conflictOrMissing(ctx, r.ID)
		}
		return run.PayrollRun{}, fmt.Errorf("failed to update payroll run status: %w", err)
	}
	return updated, nil
}

// conflictOrMissing disambiguates a version-checked update that matched no
// rows: either the run is gone or someone else bumped the version.
func (repo *runRepository) conflictOrMissing(ctx context.Context, id string) error {
	if _, err := repo.GetByID(ctx, id); errors.Is(err, run.ErrRunNotFound) {
		return run.ErrRunNotFound
	}
	return run.ErrRunConflict
}

func (repo *runRepository) AdjustExceptionCount(ctx context.Context, id string, delta int) error {
	q := GetQuerier(ctx, repo.db)

	tag, err := q.Exec(ctx, `
		UPDATE payroll_runs
		SET exception_count = GREATEST(exception_count + $1, 0), updated_at = NOW()
		WHERE id = $2`, delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust exception count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return run.ErrRunNotFound
	}
	return nil
}

func (repo *runRepository) SetTotals(ctx context.Context, id string, employees, exceptions int, totalNetPay decimal.Decimal) error {
	q := GetQuerier(ctx, repo.db)

	tag, err := q.Exec(ctx, `
		UPDATE payroll_runs
		SET employee_count = $1, exception_count = $2, total_net_pay = $3, updated_at = NOW()
		WHERE id = $4`, employees, exceptions, totalNetPay, id)
	if err != nil {
		return fmt.Errorf("failed to set run totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return run.ErrRunNotFound
	}
	return nil
}
