package mealbatch

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/nutrihub/server/internal/ai"
	"github.com/nutrihub/server/internal/nutrition"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleLogMeal(w http.ResponseWriter, r *http.Request) {
	var req LogMealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	input, err := h.service.LogMeal(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, input)
}

func (h *Handler) HandlePendingInputs(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.PendingInputs(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleFinalizeDay(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.FinalizeDay(r.Context(), r.PathValue("date"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), r.PathValue("date"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) HandleEditSummary(w http.ResponseWriter, r *http.Request) {
	var req EditSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	resp, err := h.service.EditSummary(r.Context(), r.PathValue("date"), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
			return
		}
		limit = parsed
	}

	resp, err := h.service.History(r.Context(), limit)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
	case errors.Is(err, ErrSummaryNotFound):
		writeError(w, http.StatusNotFound, "summary_not_found", "Day summary not found")
	case errors.Is(err, ErrNoPendingInputs):
		writeError(w, http.StatusConflict, "no_pending_inputs", "No pending meal inputs for this day")
	case errors.Is(err, ErrEditLimitExceeded):
		writeError(w, http.StatusConflict, "edit_limit_exceeded", "Day summary edit limit reached")
	case errors.Is(err, nutrition.ErrMalformedResponse):
		writeError(w, http.StatusUnprocessableEntity, "malformed_response", "Model response is not valid JSON")
	case errors.Is(err, nutrition.ErrInvalidRecordShape):
		writeError(w, http.StatusUnprocessableEntity, "invalid_record_shape", err.Error())
	case errors.Is(err, nutrition.ErrTotalsMismatch):
		writeError(w, http.StatusUnprocessableEntity, "totals_mismatch", err.Error())
	case errors.Is(err, ai.ErrUpstreamTimeout):
		writeError(w, http.StatusGatewayTimeout, "upstream_timeout", "Model provider timed out")
	case errors.Is(err, ai.ErrUpstream):
		writeError(w, http.StatusBadGateway, "upstream_failed", "Model provider failed")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
