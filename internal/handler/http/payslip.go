package http

import (
	"net/http"

	"github.com/corepay/payroll-engine-go/internal/domain/payslip"
	"github.com/corepay/payroll-engine-go/internal/handler/http/response"
	payslipService "github.com/corepay/payroll-engine-go/internal/service/payslip"
	"github.com/go-chi/chi/v5"
)

type PayslipHandler interface {
	GenerateForRun(w http.ResponseWriter, r *http.Request)
	ListByRun(w http.ResponseWriter, r *http.Request)
	GetForEmployee(w http.ResponseWriter, r *http.Request)
}

type payslipHandlerImpl struct {
	payslips payslipService.Service
}

func NewPayslipHandler(payslips payslipService.Service) PayslipHandler {
	return &payslipHandlerImpl{payslips: payslips}
}

func (h *payslipHandlerImpl) GenerateForRun(w http.ResponseWriter, r *http.Request) {
	slips, err := h.payslips.GenerateForRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Payslips generated", toPayslipResponses(slips))
}

func (h *payslipHandlerImpl) ListByRun(w http.ResponseWriter, r *http.Request) {
	slips, err := h.payslips.ListByRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, toPayslipResponses(slips))
}

func (h *payslipHandlerImpl) GetForEmployee(w http.ResponseWriter, r *http.Request) {
	slip, err := h.payslips.GetForEmployee(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "employeeID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, payslip.ToResponse(slip))
}

func toPayslipResponses(slips []payslip.Payslip) []payslip.PayslipResponse {
	data := make([]payslip.PayslipResponse, 0, len(slips))
	for _, s := range slips {
		data = append(data, payslip.ToResponse(s))
	}
	return data
}
