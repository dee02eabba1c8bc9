package postgresql

import (
	"context"
	"fmt"

	"github.com/corepay/payroll-engine-go/internal/domain/refund"
	"github.com/corepay/payroll-engine-go/internal/pkg/database"
)

type refundRepository struct {
	db *database.DB
}

func NewRefundRepository(db *database.DB) refund.Tracker {
	return &refundRepository{db: db}
}

func (r *refundRepository) PendingByEmployee(ctx context.Context, employeeID string) ([]refund.Refund, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, employee_id, amount, status, paid_in_run_id
		FROM refunds
		WHERE employee_id = $1 AND status = 'PENDING' AND paid_in_run_id IS NULL
		ORDER BY id`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending refunds: %w", err)
	}
	defer rows.Close()

	var out []refund.Refund
	for rows.Next() {
		var ref refund.Refund
		if err := rows.Scan(&ref.ID, &ref.EmployeeID, &ref.Amount, &ref.Status, &ref.PaidInRunID); err != nil {
			return nil, fmt.Errorf("failed to scan refund: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (r *refundRepository) MarkProcessed(ctx context.Context, refundID, runID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE refunds SET status = 'PROCESSED', paid_in_run_id = $1
		WHERE id = $2 AND status = 'PENDING'`, runID, refundID)
	if err != nil {
		return fmt.Errorf("failed to mark refund processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return refund.ErrRefundNotFound
	}
	return nil
}
