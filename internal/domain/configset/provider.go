package configset

import (
	"context"
	"errors"
)

var ErrPayGradeNotFound = errors.New("pay grade not found")

// Provider is the configuration boundary. All list methods filter by approval
// status so callers cannot accidentally calculate against draft rules.
type Provider interface {
	PayGrade(ctx context.Context, id string) (PayGrade, error)
	Allowances(ctx context.Context, status ApprovalStatus) ([]Allowance, error)
	TaxRules(ctx context.Context, status ApprovalStatus) ([]TaxRule, error)
	InsuranceBrackets(ctx context.Context, status ApprovalStatus) ([]InsuranceBracket, error)
	SigningBonusPlans(ctx context.Context, status ApprovalStatus) ([]SigningBonusPlan, error)
	TerminationBenefitPlans(ctx context.Context, status ApprovalStatus) ([]TerminationBenefitPlan, error)
}
