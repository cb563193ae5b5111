package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nutrihub/server/internal/storage"
)

// MemoryStorage — in-memory реализация всех storage интерфейсов
type MemoryStorage struct {
	mealLog *MealLogMemoryStorage
	chat    *ChatMemoryStorage
}

func New() *MemoryStorage {
	return &MemoryStorage{
		mealLog: NewMealLogMemoryStorage(),
		chat:    NewChatMemoryStorage(),
	}
}

func (m *MemoryStorage) Close() error {
	// no-op для memory
	return nil
}

// GetMealLogStorage returns the meal log storage.
func (m *MemoryStorage) GetMealLogStorage() *MealLogMemoryStorage {
	return m.mealLog
}

// GetChatStorage returns chat storage.
func (m *MemoryStorage) GetChatStorage() *ChatMemoryStorage {
	return m.chat
}

// MealLogStorage methods - delegate to embedded meal log storage.

func (m *MemoryStorage) InsertInput(ctx context.Context, userID, date, rawText string, ts time.Time) (storage.MealInput, error) {
	return m.mealLog.InsertInput(ctx, userID, date, rawText, ts)
}

func (m *MemoryStorage) ListPending(ctx context.Context, userID, date string) ([]storage.MealInput, error) {
	return m.mealLog.ListPending(ctx, userID, date)
}

func (m *MemoryStorage) FinalizeDay(ctx context.Context, userID, date string, payload []byte, inputIDs []uuid.UUID, now time.Time) (storage.DaySummary, error) {
	return m.mealLog.FinalizeDay(ctx, userID, date, payload, inputIDs, now)
}

func (m *MemoryStorage) GetSummary(ctx context.Context, userID, date string) (storage.DaySummary, bool, error) {
	return m.mealLog.GetSummary(ctx, userID, date)
}

func (m *MemoryStorage) UpdateSummaryPayload(ctx context.Context, userID, date string, payload []byte, now time.Time) (storage.DaySummary, bool, error) {
	return m.mealLog.UpdateSummaryPayload(ctx, userID, date, payload, now)
}

func (m *MemoryStorage) ListSummaries(ctx context.Context, userID string, limit int) ([]storage.DaySummary, error) {
	return m.mealLog.ListSummaries(ctx, userID, limit)
}

// ChatStorage methods - delegate to embedded chat storage.

func (m *MemoryStorage) InsertMessage(ctx context.Context, userID, role, content string) (storage.ChatMessage, error) {
	return m.chat.InsertMessage(ctx, userID, role, content)
}

func (m *MemoryStorage) ListMessages(ctx context.Context, userID string, limit int, before *time.Time) ([]storage.ChatMessage, *time.Time, error) {
	return m.chat.ListMessages(ctx, userID, limit, before)
}
