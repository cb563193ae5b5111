package mealbatch

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nutrihub/server/internal/nutrition"
	"github.com/nutrihub/server/internal/storage"
)

type LogMealRequest struct {
	Date string `json:"date,omitempty"`
	Text string `json:"text"`
}

type MealInputDTO struct {
	ID        uuid.UUID `json:"id"`
	Date      string    `json:"date"`
	Text      string    `json:"text"`
	TS        time.Time `json:"ts"`
	Processed bool      `json:"processed"`
}

type DaySummaryDTO struct {
	ID          uuid.UUID           `json:"id"`
	Date        string              `json:"date"`
	Record      nutrition.DayRecord `json:"record"`
	RawInputIDs []uuid.UUID         `json:"raw_input_ids"`
	EditCount   int                 `json:"edit_count"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type PendingInputsResponse struct {
	Date   string         `json:"date"`
	Inputs []MealInputDTO `json:"inputs"`
}

type FinalizeDayResponse struct {
	Summary  DaySummaryDTO `json:"summary"`
	Warnings []string      `json:"warnings"`
}

type EditSummaryRequest struct {
	Record nutrition.DayRecord `json:"record"`
}

type EditSummaryResponse struct {
	Summary  DaySummaryDTO `json:"summary"`
	Warnings []string      `json:"warnings"`
}

type HistoryResponse struct {
	Days []DaySummaryDTO `json:"days"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func inputToDTO(input storage.MealInput) MealInputDTO {
	return MealInputDTO{
		ID:        input.ID,
		Date:      input.Date,
		Text:      input.RawText,
		TS:        input.TS,
		Processed: input.Processed,
	}
}

func summaryToDTO(summary storage.DaySummary) (DaySummaryDTO, error) {
	var rec nutrition.DayRecord
	if err := json.Unmarshal(summary.Payload, &rec); err != nil {
		return DaySummaryDTO{}, err
	}
	rawIDs := summary.RawInputIDs
	if rawIDs == nil {
		rawIDs = []uuid.UUID{}
	}
	return DaySummaryDTO{
		ID:          summary.ID,
		Date:        summary.Date,
		Record:      rec,
		RawInputIDs: rawIDs,
		EditCount:   summary.EditCount,
		UpdatedAt:   summary.UpdatedAt,
	}, nil
}
