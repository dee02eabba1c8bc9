package run

import (
	"github.com/corepay/payroll-engine-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateRunRequest struct {
	Period         string `json:"period"` // "YYYY-MM"
	Entity         string `json:"entity"` // "Name|CUR"
	SpecialistID   string `json:"payroll_specialist_id"`
	ManagerID      string `json:"payroll_manager_id"`
	FinanceStaffID string `json:"finance_staff_id"`
}

func (r *CreateRunRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, ok := validator.IsValidPeriod(r.Period); !ok {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "must be formatted as YYYY-MM"})
	}
	if !validator.IsValidEntity(r.Entity) {
		errs = append(errs, validator.ValidationError{Field: "entity", Message: "must be formatted as Name|CUR"})
	}
	if validator.IsEmpty(r.SpecialistID) {
		errs = append(errs, validator.ValidationError{Field: "payroll_specialist_id", Message: "is required"})
	}
	if validator.IsEmpty(r.ManagerID) {
		errs = append(errs, validator.ValidationError{Field: "payroll_manager_id", Message: "is required"})
	}
	if validator.IsEmpty(r.FinanceStaffID) {
		errs = append(errs, validator.ValidationError{Field: "finance_staff_id", Message: "is required"})
	}
	if r.ManagerID != "" && r.ManagerID == r.SpecialistID {
		errs = append(errs, validator.ValidationError{Field: "payroll_manager_id", Message: "must differ from payroll_specialist_id"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateRunRequest struct {
	ID             string  `json:"-"`
	Period         *string `json:"period,omitempty"`
	Entity         *string `json:"entity,omitempty"`
	SpecialistID   *string `json:"payroll_specialist_id,omitempty"`
	ManagerID      *string `json:"payroll_manager_id,omitempty"`
	FinanceStaffID *string `json:"finance_staff_id,omitempty"`
}

func (r *UpdateRunRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Period != nil {
		if _, ok := validator.IsValidPeriod(*r.Period); !ok {
			errs = append(errs, validator.ValidationError{Field: "period", Message: "must be formatted as YYYY-MM"})
		}
	}
	if r.Entity != nil && !validator.IsValidEntity(*r.Entity) {
		errs = append(errs, validator.ValidationError{Field: "entity", Message: "must be formatted as Name|CUR"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RejectRunRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

func (r *RejectRunRequest) Validate() error {
	if validator.IsEmpty(r.Reason) {
		return validator.ValidationErrors{{Field: "reason", Message: "is required"}}
	}
	return nil
}

type UnlockRunRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

func (r *UnlockRunRequest) Validate() error {
	if validator.IsEmpty(r.Reason) {
		return validator.ValidationErrors{{Field: "reason", Message: "is required"}}
	}
	return nil
}

type RunFilter struct {
	Year   *int
	Status *Status
	Entity *string
	Page   int
	Limit  int
}

type RunResponse struct {
	ID                string          `json:"id"`
	RunID             string          `json:"run_id"`
	Period            string          `json:"period"`
	Entity            string          `json:"entity"`
	Currency          string          `json:"currency"`
	SpecialistID      string          `json:"payroll_specialist_id"`
	ManagerID         string          `json:"payroll_manager_id"`
	FinanceStaffID    string          `json:"finance_staff_id"`
	Status            string          `json:"status"`
	PaymentStatus     string          `json:"payment_status"`
	EmployeeCount     int             `json:"employees"`
	ExceptionCount    int             `json:"exceptions"`
	TotalNetPay       decimal.Decimal `json:"total_net_pay"`
	RejectionReason   *string         `json:"rejection_reason,omitempty"`
	UnlockReason      *string         `json:"unlock_reason,omitempty"`
	ReviewedAt        *string         `json:"reviewed_at,omitempty"`
	ManagerApprovedAt *string         `json:"manager_approved_at,omitempty"`
	FinanceApprovedAt *string         `json:"finance_approved_at,omitempty"`
	LockedAt          *string         `json:"locked_at,omitempty"`
}

type ListRunResponse struct {
	Data       []RunResponse `json:"data"`
	TotalCount int64         `json:"total_count"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
}
