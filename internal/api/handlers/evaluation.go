package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mindforge-ai/conscience/internal/domain"
	"github.com/mindforge-ai/conscience/internal/service"
)

type EvaluationHandler struct {
	svc *service.EvaluationService
}

func NewEvaluationHandler(svc *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{svc: svc}
}

type evaluateRequest struct {
	Action string `json:"action"`
}

type evaluateResponse struct {
	Score  float64 `json:"score"`
	Action string  `json:"action"`
}

type ruleRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

type ruleResponse struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

func toRuleResponse(r domain.MoralRule) ruleResponse {
	return ruleResponse{
		Name:        r.ID,
		Description: r.Description,
		Weight:      r.Weight,
	}
}

func (h *EvaluationHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	score, err := h.svc.Evaluate(r.Context(), req.Action)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrActionEmpty):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrActionTooLong):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to evaluate action")
		}
		return
	}

	writeJSON(w, http.StatusOK, evaluateResponse{Score: score, Action: req.Action})
}

func (h *EvaluationHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules := h.svc.ListRules()

	resp := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		resp = append(resp, toRuleResponse(rule))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *EvaluationHandler) AddRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rule, err := h.svc.AddRule(r.Context(), req.Name, req.Description, req.Weight)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRuleExists):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrRuleNameEmpty),
			errors.Is(err, service.ErrRuleNameTooLong),
			errors.Is(err, service.ErrRuleDescEmpty),
			errors.Is(err, service.ErrRuleDescTooLong),
			errors.Is(err, service.ErrRuleWeightRange):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to add rule")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toRuleResponse(*rule))
}
