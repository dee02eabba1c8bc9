package payslip

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayslipResponse struct {
	ID              string          `json:"id"`
	RunID           string          `json:"run_id"`
	EmployeeID      string          `json:"employee_id"`
	Earnings        Earnings        `json:"earnings"`
	Deductions      Deductions      `json:"deductions"`
	TotalGross      decimal.Decimal `json:"total_gross"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NetPay          decimal.Decimal `json:"net_pay"`
	Currency        string          `json:"currency"`
	GeneratedAt     string          `json:"generated_at"`
}

func ToResponse(p Payslip) PayslipResponse {
	return PayslipResponse{
		ID:              p.ID,
		RunID:           p.RunID,
		EmployeeID:      p.EmployeeID,
		Earnings:        p.Earnings,
		Deductions:      p.Deductions,
		TotalGross:      p.TotalGross,
		TotalDeductions: p.TotalDeductions,
		NetPay:          p.NetPay,
		Currency:        p.Currency,
		GeneratedAt:     p.GeneratedAt.Format(time.RFC3339),
	}
}
