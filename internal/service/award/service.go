package award

import (
	"context"

	"github.com/corepay/payroll-engine-go/internal/domain/award"
)

// Service exposes the award review queue: the pending records the sweep
// created, and the approve/reject decisions that clear the run-initiation
// gate.
type Service interface {
	ListPending(ctx context.Context) ([]award.PendingItem, error)
	Decide(ctx context.Context, kind award.Kind, id string, decision award.Status, decidedBy string) error
}

type awardService struct {
	awards award.Repository
}

func NewAwardService(awards award.Repository) Service {
	return &awardService{awards: awards}
}

func (s *awardService) ListPending(ctx context.Context) ([]award.PendingItem, error) {
	return s.awards.ListPending(ctx)
}

// Decide settles one pending award. Only APPROVED and REJECTED are valid
// decisions; PENDING is not a destination.
func (s *awardService) Decide(ctx context.Context, kind award.Kind, id string, decision award.Status, decidedBy string) error {
	if decision != award.StatusApproved && decision != award.StatusRejected {
		return award.ErrInvalidDecision
	}
	if kind != award.KindSigningBonus && kind != award.KindTerminationBenefit {
		return award.ErrAwardNotFound
	}
	return s.awards.Decide(ctx, kind, id, decision, decidedBy)
}
