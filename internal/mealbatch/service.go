package mealbatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nutrihub/server/internal/ai"
	"github.com/nutrihub/server/internal/config"
	"github.com/nutrihub/server/internal/nutrition"
	"github.com/nutrihub/server/internal/storage"
	"github.com/nutrihub/server/internal/userctx"
)

// maxSummaryEdits is the hard ceiling on manual corrections per day record.
const maxSummaryEdits = 2

const (
	defaultHistoryDays = 7
	maxHistoryDays     = 90
)

// Archiver persists a copy of the finalized day record outside the primary
// store. Failures are logged and never fail the finalize.
type Archiver interface {
	ArchiveDayRecord(ctx context.Context, userID, date string, payload []byte) error
}

type Service struct {
	store           storage.MealLogStorage
	provider        ai.Provider
	archive         Archiver // nil disables archival
	strictTotals    bool
	maxOutputTokens int
	temperature     float64
	now             func() time.Time

	mu       sync.Mutex
	dayLocks map[string]*sync.Mutex
}

func NewService(store storage.MealLogStorage, provider ai.Provider, archive Archiver, cfg *config.Config) *Service {
	return &Service{
		store:           store,
		provider:        provider,
		archive:         archive,
		strictTotals:    cfg.StrictTotals,
		maxOutputTokens: cfg.AIMaxOutputTokens,
		temperature:     cfg.AITemperature,
		now:             time.Now,
		dayLocks:        make(map[string]*sync.Mutex),
	}
}

// lockDay serializes finalize and edit for one (user, date) key. Locks are
// kept for the lifetime of the service; the key space is bounded by active
// users times days.
func (s *Service) lockDay(userID, date string) func() {
	key := userID + "|" + date

	s.mu.Lock()
	l, ok := s.dayLocks[key]
	if !ok {
		l = &sync.Mutex{}
		s.dayLocks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *Service) LogMeal(ctx context.Context, req LogMealRequest) (*MealInputDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}

	date, err := s.normalizeDate(req.Date)
	if err != nil {
		return nil, err
	}

	input, err := s.store.InsertInput(ctx, userID, date, text, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to insert meal input: %w", err)
	}

	dto := inputToDTO(input)
	return &dto, nil
}

func (s *Service) PendingInputs(ctx context.Context, rawDate string) (*PendingInputsResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	date, err := s.normalizeDate(rawDate)
	if err != nil {
		return nil, err
	}

	inputs, err := s.store.ListPending(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending inputs: %w", err)
	}

	dtos := make([]MealInputDTO, 0, len(inputs))
	for _, input := range inputs {
		dtos = append(dtos, inputToDTO(input))
	}

	return &PendingInputsResponse{Date: date, Inputs: dtos}, nil
}

// FinalizeDay batches every pending input for the day into one model call
// and stores the resulting record. The provider call happens under the
// per-day lock so concurrent finalizes cannot double-consume inputs, and a
// provider failure leaves the pending set untouched.
func (s *Service) FinalizeDay(ctx context.Context, rawDate string) (*FinalizeDayResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	date, err := s.normalizeDate(rawDate)
	if err != nil {
		return nil, err
	}

	unlock := s.lockDay(userID, date)
	defer unlock()

	pending, err := s.store.ListPending(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending inputs: %w", err)
	}
	if len(pending) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoPendingInputs, date)
	}

	prompt := buildPrompt(combineInputTexts(pending))
	result, err := s.provider.Generate(ctx, ai.GenerateRequest{
		Messages:    []ai.Message{{Role: "user", Content: prompt}},
		MaxTokens:   s.maxOutputTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return nil, err
	}

	rec, err := nutrition.ExtractJSON(result.Content)
	if err != nil {
		return nil, err
	}
	if err := nutrition.ValidateShape(rec); err != nil {
		return nil, err
	}

	warnings, err := nutrition.CheckConsistency(rec, s.strictTotals)
	if err != nil {
		return nil, err
	}
	for _, warning := range warnings {
		log.Printf("WARN mealbatch: user=%s date=%s %s", userID, date, warning)
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode day record: %w", err)
	}

	inputIDs := make([]uuid.UUID, 0, len(pending))
	for _, input := range pending {
		inputIDs = append(inputIDs, input.ID)
	}

	summary, err := s.store.FinalizeDay(ctx, userID, date, payload, inputIDs, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to store day summary: %w", err)
	}

	if s.archive != nil {
		if err := s.archive.ArchiveDayRecord(ctx, userID, date, payload); err != nil {
			log.Printf("WARN mealbatch: archive failed for user=%s date=%s: %v", userID, date, err)
		}
	}

	dto, err := summaryToDTO(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stored summary: %w", err)
	}

	if warnings == nil {
		warnings = []string{}
	}
	return &FinalizeDayResponse{Summary: dto, Warnings: warnings}, nil
}

func (s *Service) Summary(ctx context.Context, rawDate string) (*DaySummaryDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	date, err := s.normalizeDate(rawDate)
	if err != nil {
		return nil, err
	}

	summary, ok, err := s.store.GetSummary(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load day summary: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrSummaryNotFound, date)
	}

	dto, err := summaryToDTO(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stored summary: %w", err)
	}
	return &dto, nil
}

// EditSummary overwrites the stored record without another model call.
// Edits run sanity checks only; warnings come back to the caller instead of
// blocking the write.
func (s *Service) EditSummary(ctx context.Context, rawDate string, req EditSummaryRequest) (*EditSummaryResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	date, err := s.normalizeDate(rawDate)
	if err != nil {
		return nil, err
	}

	unlock := s.lockDay(userID, date)
	defer unlock()

	summary, ok, err := s.store.GetSummary(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load day summary: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrSummaryNotFound, date)
	}
	if summary.EditCount >= maxSummaryEdits {
		return nil, fmt.Errorf("%w: summary for %s already edited %d times", ErrEditLimitExceeded, date, summary.EditCount)
	}

	if err := nutrition.ValidateShape(req.Record); err != nil {
		return nil, err
	}
	warnings := nutrition.SanityWarnings(req.Record)

	payload, err := json.Marshal(req.Record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode day record: %w", err)
	}

	updated, ok, err := s.store.UpdateSummaryPayload(ctx, userID, date, payload, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to update day summary: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrSummaryNotFound, date)
	}

	dto, err := summaryToDTO(updated)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stored summary: %w", err)
	}

	if warnings == nil {
		warnings = []string{}
	}
	return &EditSummaryResponse{Summary: dto, Warnings: warnings}, nil
}

func (s *Service) History(ctx context.Context, limit int) (*HistoryResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	if limit <= 0 {
		limit = defaultHistoryDays
	}
	if limit > maxHistoryDays {
		limit = maxHistoryDays
	}

	summaries, err := s.store.ListSummaries(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list day summaries: %w", err)
	}

	days := make([]DaySummaryDTO, 0, len(summaries))
	for _, summary := range summaries {
		dto, err := summaryToDTO(summary)
		if err != nil {
			return nil, fmt.Errorf("failed to decode stored summary: %w", err)
		}
		days = append(days, dto)
	}

	return &HistoryResponse{Days: days}, nil
}

// normalizeDate defaults an empty date to today (UTC) and rejects anything
// that is not a calendar date in YYYY-MM-DD form.
func (s *Service) normalizeDate(raw string) (string, error) {
	date := strings.TrimSpace(raw)
	if date == "" {
		return s.now().UTC().Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	return date, nil
}

func userIDFromContext(ctx context.Context) string {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return ""
	}
	return strings.TrimSpace(userID)
}
