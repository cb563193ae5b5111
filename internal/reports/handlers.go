package reports

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleDayReport handles GET /v1/reports/day/{date}?format=pdf|csv
func (h *Handler) HandleDayReport(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	format := r.URL.Query().Get("format")

	report, err := h.service.DayReport(r.Context(), date, format)
	if err != nil {
		h.handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(report.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(report.Data)
}

// HandleHistoryReport handles GET /v1/reports/history?days=&format=pdf|csv
func (h *Handler) HandleHistoryReport(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "days must be an integer")
			return
		}
		days = parsed
	}
	format := r.URL.Query().Get("format")

	report, err := h.service.HistoryReport(r.Context(), days, format)
	if err != nil {
		h.handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(report.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(report.Data)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, "invalid_request", "format must be pdf or csv")
	case errors.Is(err, ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_request", "date must be YYYY-MM-DD")
	case errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
	case errors.Is(err, ErrReportNotFound):
		writeError(w, http.StatusNotFound, "report_not_found", "No finalized summary for this day")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
