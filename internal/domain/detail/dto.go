package detail

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExceptionMessageResponse struct {
	ID         string  `json:"id"`
	Code       string  `json:"code"`
	Message    string  `json:"message"`
	Status     string  `json:"status"`
	FlaggedAt  string  `json:"flagged_at"`
	ResolvedBy *string `json:"resolved_by,omitempty"`
	ResolvedAt *string `json:"resolved_at,omitempty"`
	Resolution *string `json:"resolution,omitempty"`
}

type ExceptionEventResponse struct {
	ID      string `json:"id"`
	Action  string `json:"action"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Actor   string `json:"actor"`
	At      string `json:"at"`
}

type DetailResponse struct {
	ID           string                     `json:"id"`
	RunID        string                     `json:"run_id"`
	EmployeeID   string                     `json:"employee_id"`
	BaseSalary   decimal.Decimal            `json:"base_salary"`
	SalarySource string                     `json:"salary_source"`
	Allowances   decimal.Decimal            `json:"allowances"`
	Deductions   decimal.Decimal            `json:"deductions"`
	Penalties    decimal.Decimal            `json:"penalties"`
	Refunds      decimal.Decimal            `json:"refunds"`
	Bonus        decimal.Decimal            `json:"bonus"`
	Benefit      decimal.Decimal            `json:"benefit"`
	NetSalary    decimal.Decimal            `json:"net_salary"`
	NetPay       decimal.Decimal            `json:"net_pay"`
	BankStatus   string                     `json:"bank_status"`
	Currency     string                     `json:"currency"`
	Breakdown    DeductionsBreakdown        `json:"deductions_breakdown"`
	Exceptions   []ExceptionMessageResponse `json:"exceptions"`
	History      []ExceptionEventResponse   `json:"history,omitempty"`
}

func fmtTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func ToMessageResponse(m ExceptionMessage) ExceptionMessageResponse {
	return ExceptionMessageResponse{
		ID:         m.ID,
		Code:       string(m.Code),
		Message:    m.Message,
		Status:     string(m.Status),
		FlaggedAt:  m.FlaggedAt.Format(time.RFC3339),
		ResolvedBy: m.ResolvedBy,
		ResolvedAt: fmtTime(m.ResolvedAt),
		Resolution: m.Resolution,
	}
}

func ToEventResponse(e ExceptionEvent) ExceptionEventResponse {
	return ExceptionEventResponse{
		ID:      e.ID,
		Action:  string(e.Action),
		Code:    string(e.Code),
		Message: e.Message,
		Actor:   e.Actor,
		At:      e.At.Format(time.RFC3339),
	}
}

// ToResponse maps a detail onto its transport shape. History is included
// only when withHistory is set; list endpoints stay lean.
func ToResponse(d Detail, withHistory bool) DetailResponse {
	resp := DetailResponse{
		ID:           d.ID,
		RunID:        d.RunID,
		EmployeeID:   d.EmployeeID,
		BaseSalary:   d.BaseSalary,
		SalarySource: string(d.SalarySource),
		Allowances:   d.Allowances,
		Deductions:   d.Deductions,
		Penalties:    d.Penalties,
		Refunds:      d.Refunds,
		Bonus:        d.Bonus,
		Benefit:      d.Benefit,
		NetSalary:    d.NetSalary,
		NetPay:       d.NetPay,
		BankStatus:   string(d.BankStatus),
		Currency:     d.Currency,
		Breakdown:    d.Breakdown,
		Exceptions:   make([]ExceptionMessageResponse, 0, len(d.Messages)),
	}
	for _, m := range d.Messages {
		resp.Exceptions = append(resp.Exceptions, ToMessageResponse(m))
	}
	if withHistory {
		for _, e := range d.History {
			resp.History = append(resp.History, ToEventResponse(e))
		}
	}
	return resp
}
