package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nutrihub/server/internal/storage"
)

// PostgresStorage — Postgres реализация всех storage интерфейсов
type PostgresStorage struct {
	pool    *pgxpool.Pool
	mealLog *PostgresMealLogStorage
	chat    *PostgresChatStorage
}

func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStorage{
		pool:    pool,
		mealLog: NewPostgresMealLogStorage(pool),
		chat:    NewPostgresChatStorage(pool),
	}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// GetMealLogStorage returns the meal log storage.
func (p *PostgresStorage) GetMealLogStorage() *PostgresMealLogStorage {
	return p.mealLog
}

// GetChatStorage returns chat storage.
func (p *PostgresStorage) GetChatStorage() *PostgresChatStorage {
	return p.chat
}

// MealLogStorage methods - delegate to embedded meal log storage.

func (p *PostgresStorage) InsertInput(ctx context.Context, userID, date, rawText string, ts time.Time) (storage.MealInput, error) {
	return p.mealLog.InsertInput(ctx, userID, date, rawText, ts)
}

func (p *PostgresStorage) ListPending(ctx context.Context, userID, date string) ([]storage.MealInput, error) {
	return p.mealLog.ListPending(ctx, userID, date)
}

func (p *PostgresStorage) FinalizeDay(ctx context.Context, userID, date string, payload []byte, inputIDs []uuid.UUID, now time.Time) (storage.DaySummary, error) {
	return p.mealLog.FinalizeDay(ctx, userID, date, payload, inputIDs, now)
}

func (p *PostgresStorage) GetSummary(ctx context.Context, userID, date string) (storage.DaySummary, bool, error) {
	return p.mealLog.GetSummary(ctx, userID, date)
}

func (p *PostgresStorage) UpdateSummaryPayload(ctx context.Context, userID, date string, payload []byte, now time.Time) (storage.DaySummary, bool, error) {
	return p.mealLog.UpdateSummaryPayload(ctx, userID, date, payload, now)
}

func (p *PostgresStorage) ListSummaries(ctx context.Context, userID string, limit int) ([]storage.DaySummary, error) {
	return p.mealLog.ListSummaries(ctx, userID, limit)
}

// ChatStorage methods - delegate to embedded chat storage.

func (p *PostgresStorage) InsertMessage(ctx context.Context, userID, role, content string) (storage.ChatMessage, error) {
	return p.chat.InsertMessage(ctx, userID, role, content)
}

func (p *PostgresStorage) ListMessages(ctx context.Context, userID string, limit int, before *time.Time) ([]storage.ChatMessage, *time.Time, error) {
	return p.chat.ListMessages(ctx, userID, limit, before)
}
