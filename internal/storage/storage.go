package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage — общий интерфейс хранилища (memory или postgres).
type Storage interface {
	MealLogStorage
	ChatStorage
	Close() error
}

// MealInput — one raw meal text logged by a user for a given day.
type MealInput struct {
	ID        uuid.UUID
	UserID    string
	Date      string // YYYY-MM-DD
	RawText   string
	TS        time.Time
	Processed bool
}

// DaySummary — the structured nutrition record produced for one (user, date).
type DaySummary struct {
	ID          uuid.UUID
	UserID      string
	Date        string // YYYY-MM-DD
	Payload     []byte // DayRecord JSON
	RawInputIDs []uuid.UUID
	EditCount   int
	UpdatedAt   time.Time
}

// MealLogStorage — raw inputs plus the day summaries built from them.
type MealLogStorage interface {
	// InsertInput appends a pending input for (user, date).
	InsertInput(ctx context.Context, userID, date, rawText string, ts time.Time) (MealInput, error)

	// ListPending returns unprocessed inputs for (user, date) ordered by ts asc.
	ListPending(ctx context.Context, userID, date string) ([]MealInput, error)

	// FinalizeDay stores the summary for (user, date) with edit_count reset to
	// zero and marks the given inputs processed. The two writes are atomic.
	// An existing summary for the key is replaced.
	FinalizeDay(ctx context.Context, userID, date string, payload []byte, inputIDs []uuid.UUID, now time.Time) (DaySummary, error)

	// GetSummary returns the summary for (user, date). bool=false means not found.
	GetSummary(ctx context.Context, userID, date string) (DaySummary, bool, error)

	// UpdateSummaryPayload overwrites the payload, increments edit_count and
	// refreshes updated_at. bool=false means no summary exists for the key.
	UpdateSummaryPayload(ctx context.Context, userID, date string, payload []byte, now time.Time) (DaySummary, bool, error)

	// ListSummaries returns the user's summaries ordered by date desc.
	ListSummaries(ctx context.Context, userID string, limit int) ([]DaySummary, error)
}

// ChatStorage — persisted chat turns.
type ChatStorage interface {
	// InsertMessage сохраняет сообщение чата.
	InsertMessage(ctx context.Context, userID, role, content string) (ChatMessage, error)

	// ListMessages возвращает последние сообщения пользователя и nextCursor.
	// before используется как курсор по created_at (strictly less than).
	ListMessages(ctx context.Context, userID string, limit int, before *time.Time) ([]ChatMessage, *time.Time, error)
}

// ChatMessage — сохранённое сообщение чата.
type ChatMessage struct {
	ID        uuid.UUID
	UserID    string
	Role      string
	Content   string
	CreatedAt time.Time
}
