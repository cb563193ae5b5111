package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nutrihub/server/internal/storage"
)

type MealLogMemoryStorage struct {
	mu        sync.RWMutex
	inputs    []storage.MealInput
	summaries map[string]storage.DaySummary // key: userID|date
}

func NewMealLogMemoryStorage() *MealLogMemoryStorage {
	return &MealLogMemoryStorage{
		inputs:    make([]storage.MealInput, 0),
		summaries: make(map[string]storage.DaySummary),
	}
}

func summaryKey(userID, date string) string {
	return userID + "|" + date
}

func (s *MealLogMemoryStorage) InsertInput(ctx context.Context, userID, date, rawText string, ts time.Time) (storage.MealInput, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	input := storage.MealInput{
		ID:      uuid.New(),
		UserID:  strings.TrimSpace(userID),
		Date:    date,
		RawText: rawText,
		TS:      ts.UTC(),
	}

	s.inputs = append(s.inputs, input)
	return input, nil
}

func (s *MealLogMemoryStorage) ListPending(ctx context.Context, userID, date string) ([]storage.MealInput, error) {
	_ = ctx

	userID = strings.TrimSpace(userID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make([]storage.MealInput, 0)
	for _, input := range s.inputs {
		if input.UserID != userID || input.Date != date || input.Processed {
			continue
		}
		pending = append(pending, input)
	}

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].TS.Equal(pending[j].TS) {
			return pending[i].ID.String() < pending[j].ID.String()
		}
		return pending[i].TS.Before(pending[j].TS)
	})

	return pending, nil
}

func (s *MealLogMemoryStorage) FinalizeDay(ctx context.Context, userID, date string, payload []byte, inputIDs []uuid.UUID, now time.Time) (storage.DaySummary, error) {
	_ = ctx

	userID = strings.TrimSpace(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	consumed := make(map[uuid.UUID]bool, len(inputIDs))
	for _, id := range inputIDs {
		consumed[id] = true
	}
	for i := range s.inputs {
		if consumed[s.inputs[i].ID] {
			s.inputs[i].Processed = true
		}
	}

	summary := storage.DaySummary{
		ID:          uuid.New(),
		UserID:      userID,
		Date:        date,
		Payload:     append([]byte(nil), payload...),
		RawInputIDs: append([]uuid.UUID(nil), inputIDs...),
		EditCount:   0,
		UpdatedAt:   now.UTC(),
	}

	s.summaries[summaryKey(userID, date)] = summary
	return summary, nil
}

func (s *MealLogMemoryStorage) GetSummary(ctx context.Context, userID, date string) (storage.DaySummary, bool, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.summaries[summaryKey(strings.TrimSpace(userID), date)]
	if !ok {
		return storage.DaySummary{}, false, nil
	}
	return summary, true, nil
}

func (s *MealLogMemoryStorage) UpdateSummaryPayload(ctx context.Context, userID, date string, payload []byte, now time.Time) (storage.DaySummary, bool, error) {
	_ = ctx

	key := summaryKey(strings.TrimSpace(userID), date)

	s.mu.Lock()
	defer s.mu.Unlock()

	summary, ok := s.summaries[key]
	if !ok {
		return storage.DaySummary{}, false, nil
	}

	summary.Payload = append([]byte(nil), payload...)
	summary.EditCount++
	summary.UpdatedAt = now.UTC()
	s.summaries[key] = summary

	return summary, true, nil
}

func (s *MealLogMemoryStorage) ListSummaries(ctx context.Context, userID string, limit int) ([]storage.DaySummary, error) {
	_ = ctx

	userID = strings.TrimSpace(userID)
	if limit <= 0 {
		limit = 7
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]storage.DaySummary, 0)
	for _, summary := range s.summaries {
		if summary.UserID == userID {
			summaries = append(summaries, summary)
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Date > summaries[j].Date
	})

	if len(summaries) > limit {
		summaries = summaries[:limit]
	}

	return summaries, nil
}
