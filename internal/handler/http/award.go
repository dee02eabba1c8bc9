package http

import (
	"encoding/json"
	"net/http"

	"github.com/corepay/payroll-engine-go/internal/domain/award"
	"github.com/corepay/payroll-engine-go/internal/handler/http/middleware"
	"github.com/corepay/payroll-engine-go/internal/handler/http/response"
	awardService "github.com/corepay/payroll-engine-go/internal/service/award"
	"github.com/go-chi/chi/v5"
)

type AwardHandler interface {
	ListPending(w http.ResponseWriter, r *http.Request)
	Decide(w http.ResponseWriter, r *http.Request)
}

type awardHandlerImpl struct {
	awards awardService.Service
}

func NewAwardHandler(awards awardService.Service) AwardHandler {
	return &awardHandlerImpl{awards: awards}
}

func (h *awardHandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.awards.ListPending(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if pending == nil {
		pending = []award.PendingItem{}
	}
	response.Success(w, pending)
}

type decideAwardRequest struct {
	Decision string `json:"decision"`
}

func (h *awardHandlerImpl) Decide(w http.ResponseWriter, r *http.Request) {
	var req decideAwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	kind := award.Kind(chi.URLParam(r, "kind"))
	if kind != award.KindSigningBonus && kind != award.KindTerminationBenefit {
		response.BadRequest(w, "Unknown award kind", nil)
		return
	}

	err := h.awards.Decide(r.Context(), kind, chi.URLParam(r, "awardID"), award.Status(req.Decision), middleware.Actor(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Award decided", nil)
}
