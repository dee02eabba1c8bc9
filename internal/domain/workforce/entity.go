package workforce

import "time"

type EmploymentStatus string

const (
	StatusActive     EmploymentStatus = "ACTIVE"
	StatusTerminated EmploymentStatus = "TERMINATED"
	StatusResigned   EmploymentStatus = "RESIGNED"
)

// Employee is the read-only projection of the employee master record the
// engine needs: dates, pay grade assignment, bank status and the attributes
// the allowance eligibility policy matches against.
type Employee struct {
	ID                  string
	FullName            string
	Email               string
	Status              EmploymentStatus
	DateOfHire          time.Time
	ContractStartDate   time.Time
	ContractEndDate     *time.Time
	PayGradeID          *string
	BankAccountNumber   *string
	PositionTitle       string
	DepartmentName      string
	ContractType        string
	WorkType            string
	TerminationDate     *time.Time
	TerminationApproved bool
}

// HasBankAccount reports whether the employee has a usable account number.
func (e *Employee) HasBankAccount() bool {
	return e.BankAccountNumber != nil && *e.BankAccountNumber != ""
}
