package award

import "context"

// Repository defines data access for signing bonuses and termination
// benefits. CreateBonusIfAbsent and CreateBenefitIfAbsent are idempotent per
// natural key so repeated sweeps never duplicate records.
type Repository interface {
	CreateBonusIfAbsent(ctx context.Context, b SigningBonus) (created bool, err error)
	CreateBenefitIfAbsent(ctx context.Context, b TerminationBenefit) (created bool, err error)

	// ListPending returns every undecided award system-wide.
	ListPending(ctx context.Context) ([]PendingItem, error)

	ApprovedBonusesFor(ctx context.Context, employeeID string) ([]SigningBonus, error)
	ApprovedBenefitsFor(ctx context.Context, employeeID string) ([]TerminationBenefit, error)

	// Decide moves a PENDING award to APPROVED or REJECTED.
	Decide(ctx context.Context, kind Kind, id string, status Status, decidedBy string) error
}
