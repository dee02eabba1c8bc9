package award

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status enum. Awards are decided independently of the run state machine.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

type Kind string

const (
	KindSigningBonus       Kind = "signing_bonus"
	KindTerminationBenefit Kind = "termination_benefit"
)

// SigningBonus - one per (employee, plan).
type SigningBonus struct {
	ID         string
	EmployeeID string
	PlanID     string
	Amount     decimal.Decimal
	Status     Status
	DecidedBy  *string
	DecidedAt  *time.Time
	CreatedAt  time.Time
}

// TerminationBenefit - one per (employee, plan, termination date).
type TerminationBenefit struct {
	ID              string
	EmployeeID      string
	PlanID          string
	TerminationDate time.Time
	Amount          decimal.Decimal
	Status          Status
	DecidedBy       *string
	DecidedAt       *time.Time
	CreatedAt       time.Time
}

// PendingItem identifies one undecided award blocking run initiation.
type PendingItem struct {
	Kind       Kind   `json:"kind"`
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
}
