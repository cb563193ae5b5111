package reports

import (
	"errors"

	"github.com/nutrihub/server/internal/nutrition"
)

var (
	ErrInvalidFormat  = errors.New("invalid report format")
	ErrInvalidDate    = errors.New("invalid report date")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrReportNotFound = errors.New("report not found")
)

// Constants for validation
const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
)

// DayReport is a rendered report ready to be served.
type DayReport struct {
	Data        []byte
	ContentType string
	Filename    string
}

// HistoryEntry is one finalized day in a history report.
type HistoryEntry struct {
	Date      string
	Record    nutrition.DayRecord
	EditCount int
}

// ErrorResponse — формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
