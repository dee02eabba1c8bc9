package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/corepay/payroll-engine-go/internal/domain/award"
	"github.com/corepay/payroll-engine-go/internal/domain/configset"
	"github.com/corepay/payroll-engine-go/internal/domain/detail"
	"github.com/corepay/payroll-engine-go/internal/domain/payslip"
	"github.com/corepay/payroll-engine-go/internal/domain/run"
	"github.com/corepay/payroll-engine-go/internal/domain/workforce"
	"github.com/corepay/payroll-engine-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Structured state machine rejection: tell the caller where the run is
	// and where it could go instead.
	var invalidTransition *run.InvalidTransitionError
	if errors.As(err, &invalidTransition) {
		allowed := make([]string, len(invalidTransition.Allowed))
		for i, s := range invalidTransition.Allowed {
			allowed[i] = string(s)
		}
		UnprocessableState(w, "INVALID_TRANSITION", invalidTransition.Error(), map[string]string{
			"current_status":   string(invalidTransition.Current),
			"requested_status": string(invalidTransition.Requested),
			"allowed_targets":  strings.Join(allowed, ", "),
		})
		return
	}

	// The pre-initiation gate lists every blocking award.
	var pendingAwards *award.PendingAwardsError
	if errors.As(err, &pendingAwards) {
		details := make(map[string]string, len(pendingAwards.Items))
		for _, item := range pendingAwards.Items {
			details[item.ID] = fmt.Sprintf("%s for employee %s", item.Kind, item.EmployeeID)
		}
		UnprocessableState(w, "PENDING_AWARDS", pendingAwards.Error(), details)
		return
	}

	switch {
	// Payroll run domain errors
	case errors.Is(err, run.ErrRunNotFound):
		NotFound(w, "Payroll run not found")
	case errors.Is(err, run.ErrDuplicatePeriod):
		Conflict(w, "A payroll run already exists for this entity and period", nil)
	case errors.Is(err, run.ErrManagerIsSpecialist):
		BadRequest(w, "Payroll manager must differ from payroll specialist", nil)
	case errors.Is(err, run.ErrRunLocked):
		Conflict(w, "Payroll run is locked", nil)
	case errors.Is(err, run.ErrRunRejected):
		Conflict(w, "Payroll run is rejected and can no longer change", nil)
	case errors.Is(err, run.ErrEditRequiresReject):
		Conflict(w, "Payroll run is under approval, reject it before editing", nil)
	case errors.Is(err, run.ErrUnlockReasonRequired):
		BadRequest(w, "Unlocking a payroll run requires a reason", nil)
	case errors.Is(err, run.ErrRunConflict):
		Conflict(w, "Payroll run was modified concurrently, retry with fresh state", nil)
	case errors.Is(err, run.ErrRunNotPayable):
		Conflict(w, "Payroll run must be locked and paid before payslips can be generated", nil)
	case errors.Is(err, run.ErrPeriodBeforeHire):
		BadRequest(w, "Payroll period precedes an active employee's hire or contract start date", nil)

	// Detail / exception domain errors
	case errors.Is(err, detail.ErrDetailNotFound):
		NotFound(w, "Employee payroll detail not found")
	case errors.Is(err, detail.ErrDetailExists):
		Conflict(w, "Employee payroll detail already exists for this run", nil)
	case errors.Is(err, detail.ErrExceptionNotFound):
		NotFound(w, "No matching active exception entry found")

	// Award domain errors
	case errors.Is(err, award.ErrAwardNotFound):
		NotFound(w, "Award not found")
	case errors.Is(err, award.ErrAwardAlreadyDecided):
		Conflict(w, "Award has already been decided", nil)
	case errors.Is(err, award.ErrInvalidDecision):
		BadRequest(w, "Award decision must be APPROVED or REJECTED", nil)

	// Supporting domain errors
	case errors.Is(err, payslip.ErrPayslipNotFound):
		NotFound(w, "Payslip not found")
	case errors.Is(err, workforce.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, configset.ErrPayGradeNotFound):
		NotFound(w, "Pay grade not found")

	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
