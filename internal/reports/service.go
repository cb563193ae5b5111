package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nutrihub/server/internal/nutrition"
	"github.com/nutrihub/server/internal/storage"
	"github.com/nutrihub/server/internal/userctx"
)

// Service handles reports business logic
type Service struct {
	store     storage.MealLogStorage
	generator *Generator
}

func NewService(store storage.MealLogStorage) *Service {
	return &Service{
		store:     store,
		generator: NewGenerator(),
	}
}

const (
	defaultHistoryDays = 7
	maxHistoryDays     = 90
)

// HistoryReport renders the last N finalized days as PDF or CSV, newest first.
func (s *Service) HistoryReport(ctx context.Context, days int, format string) (*DayReport, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok || strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthorized
	}

	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatPDF
	}
	if format != FormatPDF && format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	if days <= 0 {
		days = defaultHistoryDays
	}
	if days > maxHistoryDays {
		days = maxHistoryDays
	}

	summaries, err := s.store.ListSummaries(ctx, userID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to list day summaries: %w", err)
	}
	if len(summaries) == 0 {
		return nil, ErrReportNotFound
	}

	entries := make([]HistoryEntry, 0, len(summaries))
	for _, summary := range summaries {
		var rec nutrition.DayRecord
		if err := json.Unmarshal(summary.Payload, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode day record: %w", err)
		}
		entries = append(entries, HistoryEntry{
			Date:      summary.Date,
			Record:    rec,
			EditCount: summary.EditCount,
		})
	}

	switch format {
	case FormatCSV:
		data, err := s.generator.GenerateHistoryCSV(entries)
		if err != nil {
			return nil, fmt.Errorf("failed to generate CSV: %w", err)
		}
		return &DayReport{
			Data:        data,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("nutrition-history-%dd.csv", len(entries)),
		}, nil
	default:
		data, err := s.generator.GenerateHistoryPDF(entries)
		if err != nil {
			return nil, fmt.Errorf("failed to generate PDF: %w", err)
		}
		return &DayReport{
			Data:        data,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("nutrition-history-%dd.pdf", len(entries)),
		}, nil
	}
}

// DayReport renders the finalized summary for a date as PDF or CSV.
func (s *Service) DayReport(ctx context.Context, date, format string) (*DayReport, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok || strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthorized
	}

	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatPDF
	}
	if format != FormatPDF && format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	date = strings.TrimSpace(date)
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, ErrInvalidDate
	}

	summary, found, err := s.store.GetSummary(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load day summary: %w", err)
	}
	if !found {
		return nil, ErrReportNotFound
	}

	var rec nutrition.DayRecord
	if err := json.Unmarshal(summary.Payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode day record: %w", err)
	}

	switch format {
	case FormatCSV:
		data, err := s.generator.GenerateDayCSV(date, rec)
		if err != nil {
			return nil, fmt.Errorf("failed to generate CSV: %w", err)
		}
		return &DayReport{
			Data:        data,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("nutrition-%s.csv", date),
		}, nil
	default:
		data, err := s.generator.GenerateDayPDF(date, rec, summary.EditCount)
		if err != nil {
			return nil, fmt.Errorf("failed to generate PDF: %w", err)
		}
		return &DayReport{
			Data:        data,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("nutrition-%s.pdf", date),
		}, nil
	}
}
