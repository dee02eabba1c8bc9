package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/corepay/payroll-engine-go/internal/domain/workforce"
	"github.com/corepay/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type workforceRepository struct {
	db *database.DB
}

func NewWorkforceRepository(db *database.DB) workforce.Provider {
	return &workforceRepository{db: db}
}

const employeeColumns = `e.id, e.full_name, e.email, e.status,
	e.date_of_hire, e.contract_start_date, e.contract_end_date,
	e.pay_grade_id, e.bank_account_number,
	COALESCE(p.title, ''), COALESCE(d.name, ''),
	e.contract_type, e.work_type,
	e.termination_date, e.termination_approved`

const employeeJoins = `
	FROM employees e
	LEFT JOIN positions p ON p.id = e.primary_position_id
	LEFT JOIN departments d ON d.id = e.primary_department_id`

func scanEmployee(row pgx.Row) (workforce.Employee, error) {
	var e workforce.Employee
	err := row.Scan(
		&e.ID, &e.FullName, &e.Email, &e.Status,
		&e.DateOfHire, &e.ContractStartDate, &e.ContractEndDate,
		&e.PayGradeID, &e.BankAccountNumber,
		&e.PositionTitle, &e.DepartmentName,
		&e.ContractType, &e.WorkType,
		&e.TerminationDate, &e.TerminationApproved,
	)
	return e, err
}

func (r *workforceRepository) FindOne(ctx context.Context, employeeID string) (workforce.Employee, error) {
	q := GetQuerier(ctx, r.db)

	e, err := scanEmployee(q.QueryRow(ctx,
		`SELECT `+employeeColumns+employeeJoins+` WHERE e.id = $1`, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return workforce.Employee{}, workforce.ErrEmployeeNotFound
		}
		return workforce.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

func (r *workforceRepository) FindAllActive(ctx context.Context) ([]workforce.Employee, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx,
		`SELECT `+employeeColumns+employeeJoins+` WHERE e.status = $1 ORDER BY e.full_name`,
		workforce.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var out []workforce.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
