package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/corepay/payroll-engine-go/internal/domain/detail"
	runDomain "github.com/corepay/payroll-engine-go/internal/domain/run"
	"github.com/corepay/payroll-engine-go/internal/handler/http/middleware"
	"github.com/corepay/payroll-engine-go/internal/handler/http/response"
	draftService "github.com/corepay/payroll-engine-go/internal/service/draft"
	"github.com/corepay/payroll-engine-go/internal/service/exceptions"
	runService "github.com/corepay/payroll-engine-go/internal/service/run"
	"github.com/go-chi/chi/v5"
)

type RunHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)

	GenerateDraft(w http.ResponseWriter, r *http.Request)
	SubmitForReview(w http.ResponseWriter, r *http.Request)
	ManagerApprove(w http.ResponseWriter, r *http.Request)
	FinanceApprove(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Lock(w http.ResponseWriter, r *http.Request)
	Unlock(w http.ResponseWriter, r *http.Request)

	ListDetails(w http.ResponseWriter, r *http.Request)
	GetDetail(w http.ResponseWriter, r *http.Request)
	ListExceptions(w http.ResponseWriter, r *http.Request)
	ListEmployeeExceptions(w http.ResponseWriter, r *http.Request)
	ResolveException(w http.ResponseWriter, r *http.Request)
}

type runHandlerImpl struct {
	runs    runService.Service
	draft   draftService.Service
	ledger  exceptions.Service
	details detail.Repository
}

func NewRunHandler(runs runService.Service, draft draftService.Service, ledger exceptions.Service, details detail.Repository) RunHandler {
	return &runHandlerImpl{runs: runs, draft: draft, ledger: ledger, details: details}
}

func (h *runHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req runDomain.CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	created, err := h.runs.Create(r.Context(), req, middleware.Actor(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Payroll run created", runService.ToResponse(created))
}

func (h *runHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := runDomain.RunFilter{Page: 1, Limit: 20}

	if v := r.URL.Query().Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(w, "Invalid year filter", nil)
			return
		}
		filter.Year = &year
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := runDomain.Status(v)
		filter.Status = &status
	}
	if v := r.URL.Query().Get("entity"); v != "" {
		filter.Entity = &v
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	runs, total, err := h.runs.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	data := make([]runDomain.RunResponse, 0, len(runs))
	for _, item := range runs {
		data = append(data, runService.ToResponse(item))
	}
	totalPages := int(total) / filter.Limit
	if int(total)%filter.Limit > 0 {
		totalPages++
	}
	response.SuccessWithMeta(w, data, &response.Meta{
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

func (h *runHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.runs.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, runService.ToResponse(result))
}

func (h *runHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req runDomain.UpdateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	updated, err := h.runs.Update(r.Context(), req, middleware.Actor(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, runService.ToResponse(updated))
}

func (h *runHandlerImpl) GenerateDraft(w http.ResponseWriter, r *http.Request) {
	updated, err := h.draft.GenerateDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Draft generated", runService.ToResponse(updated))
}

func (h *runHandlerImpl) SubmitForReview(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.runs.SubmitForReview)
}

func (h *runHandlerImpl) ManagerApprove(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.runs.ManagerApprove)
}

func (h *runHandlerImpl) FinanceApprove(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.runs.FinanceApprove)
}

func (h *runHandlerImpl) Lock(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.runs.Lock)
}

func (h *runHandlerImpl) applyTransition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id, actor string) (runDomain.PayrollRun, error),
) {
	updated, err := op(r.Context(), chi.URLParam(r, "id"), middleware.Actor(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, runService.ToResponse(updated))
}

func (h *runHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	var req runDomain.RejectRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	updated, err := h.runs.Reject(r.Context(), req, middleware.Actor(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, runService.ToResponse(updated))
}

func (h *runHandlerImpl) Unlock(w http.ResponseWriter, r *http.Request) {
	var req runDomain.UnlockRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	updated, err := h.runs.Unlock(r.Context(), req, middleware.Actor(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, runService.ToResponse(updated))
}

func (h *runHandlerImpl) ListDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.details.ListByRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	data := make([]detail.DetailResponse, 0, len(details))
	for _, d := range details {
		data = append(data, detail.ToResponse(d, false))
	}
	response.Success(w, data)
}

func (h *runHandlerImpl) GetDetail(w http.ResponseWriter, r *http.Request) {
	d, err := h.details.GetByRunAndEmployee(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "employeeID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, detail.ToResponse(d, true))
}

func (h *runHandlerImpl) ListExceptions(w http.ResponseWriter, r *http.Request) {
	flagged, err := h.ledger.ListForRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	data := make([]detail.DetailResponse, 0, len(flagged))
	for _, d := range flagged {
		data = append(data, detail.ToResponse(d, true))
	}
	response.Success(w, data)
}

func (h *runHandlerImpl) ListEmployeeExceptions(w http.ResponseWriter, r *http.Request) {
	messages, history, err := h.ledger.ListForEmployee(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "employeeID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	msgData := make([]detail.ExceptionMessageResponse, 0, len(messages))
	for _, m := range messages {
		msgData = append(msgData, detail.ToMessageResponse(m))
	}
	evtData := make([]detail.ExceptionEventResponse, 0, len(history))
	for _, e := range history {
		evtData = append(evtData, detail.ToEventResponse(e))
	}
	response.Success(w, map[string]interface{}{
		"exceptions": msgData,
		"history":    evtData,
	})
}

type resolveExceptionRequest struct {
	MessageID  string `json:"message_id"`
	Resolution string `json:"resolution"`
}

func (h *runHandlerImpl) ResolveException(w http.ResponseWriter, r *http.Request) {
	var req resolveExceptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if req.MessageID == "" {
		response.BadRequest(w, "message_id is required", nil)
		return
	}

	err := h.ledger.Resolve(r.Context(),
		chi.URLParam(r, "id"),
		chi.URLParam(r, "employeeID"),
		req.MessageID,
		middleware.Actor(r),
		req.Resolution,
	)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Exception resolved", nil)
}
