package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nutrihub/server/internal/storage"
)

type PostgresMealLogStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresMealLogStorage(pool *pgxpool.Pool) *PostgresMealLogStorage {
	return &PostgresMealLogStorage{pool: pool}
}

func (s *PostgresMealLogStorage) InsertInput(ctx context.Context, userID, date, rawText string, ts time.Time) (storage.MealInput, error) {
	input := storage.MealInput{
		ID:      uuid.New(),
		UserID:  strings.TrimSpace(userID),
		Date:    date,
		RawText: rawText,
		TS:      ts.UTC(),
	}

	const query = `
		INSERT INTO meal_inputs (id, user_id, date, raw_text, ts, processed)
		VALUES ($1, $2, $3, $4, $5, FALSE)
	`

	_, err := s.pool.Exec(ctx, query,
		input.ID,
		input.UserID,
		input.Date,
		input.RawText,
		input.TS,
	)
	if err != nil {
		return storage.MealInput{}, fmt.Errorf("failed to insert meal input: %w", err)
	}
	return input, nil
}

func (s *PostgresMealLogStorage) ListPending(ctx context.Context, userID, date string) ([]storage.MealInput, error) {
	const query = `
		SELECT id, user_id, date, raw_text, ts, processed
		FROM meal_inputs
		WHERE user_id = $1 AND date = $2 AND processed = FALSE
		ORDER BY ts ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, strings.TrimSpace(userID), date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inputs := make([]storage.MealInput, 0)
	for rows.Next() {
		var input storage.MealInput
		if err := rows.Scan(
			&input.ID,
			&input.UserID,
			&input.Date,
			&input.RawText,
			&input.TS,
			&input.Processed,
		); err != nil {
			return nil, err
		}
		inputs = append(inputs, input)
	}
	return inputs, rows.Err()
}

// FinalizeDay writes the summary and marks the consumed inputs processed in
// one transaction, so a crash can never leave inputs consumed without a
// stored summary.
func (s *PostgresMealLogStorage) FinalizeDay(ctx context.Context, userID, date string, payload []byte, inputIDs []uuid.UUID, now time.Time) (storage.DaySummary, error) {
	userID = strings.TrimSpace(userID)

	rawIDs, err := json.Marshal(inputIDs)
	if err != nil {
		return storage.DaySummary{}, fmt.Errorf("failed to encode input ids: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storage.DaySummary{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	summary := storage.DaySummary{
		ID:          uuid.New(),
		UserID:      userID,
		Date:        date,
		Payload:     append([]byte(nil), payload...),
		RawInputIDs: append([]uuid.UUID(nil), inputIDs...),
		EditCount:   0,
		UpdatedAt:   now.UTC(),
	}

	const upsertQuery = `
		INSERT INTO day_summaries (id, user_id, date, payload, raw_input_ids, edit_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
		ON CONFLICT (user_id, date) DO UPDATE
		SET payload = EXCLUDED.payload,
		    raw_input_ids = EXCLUDED.raw_input_ids,
		    edit_count = 0,
		    updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	if err := tx.QueryRow(ctx, upsertQuery,
		summary.ID,
		summary.UserID,
		summary.Date,
		summary.Payload,
		rawIDs,
		summary.UpdatedAt,
	).Scan(&summary.ID); err != nil {
		return storage.DaySummary{}, fmt.Errorf("failed to upsert day summary: %w", err)
	}

	const markQuery = `
		UPDATE meal_inputs
		SET processed = TRUE
		WHERE id = ANY($1)
	`

	if _, err := tx.Exec(ctx, markQuery, inputIDs); err != nil {
		return storage.DaySummary{}, fmt.Errorf("failed to mark inputs processed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.DaySummary{}, fmt.Errorf("failed to commit finalize: %w", err)
	}
	return summary, nil
}

func (s *PostgresMealLogStorage) GetSummary(ctx context.Context, userID, date string) (storage.DaySummary, bool, error) {
	const query = `
		SELECT id, user_id, date, payload, raw_input_ids, edit_count, updated_at
		FROM day_summaries
		WHERE user_id = $1 AND date = $2
	`

	summary, err := scanSummary(s.pool.QueryRow(ctx, query, strings.TrimSpace(userID), date))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.DaySummary{}, false, nil
	}
	if err != nil {
		return storage.DaySummary{}, false, err
	}
	return summary, true, nil
}

func (s *PostgresMealLogStorage) UpdateSummaryPayload(ctx context.Context, userID, date string, payload []byte, now time.Time) (storage.DaySummary, bool, error) {
	const query = `
		UPDATE day_summaries
		SET payload = $3, edit_count = edit_count + 1, updated_at = $4
		WHERE user_id = $1 AND date = $2
		RETURNING id, user_id, date, payload, raw_input_ids, edit_count, updated_at
	`

	summary, err := scanSummary(s.pool.QueryRow(ctx, query, strings.TrimSpace(userID), date, payload, now.UTC()))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.DaySummary{}, false, nil
	}
	if err != nil {
		return storage.DaySummary{}, false, err
	}
	return summary, true, nil
}

func (s *PostgresMealLogStorage) ListSummaries(ctx context.Context, userID string, limit int) ([]storage.DaySummary, error) {
	if limit <= 0 {
		limit = 7
	}

	const query = `
		SELECT id, user_id, date, payload, raw_input_ids, edit_count, updated_at
		FROM day_summaries
		WHERE user_id = $1
		ORDER BY date DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, strings.TrimSpace(userID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]storage.DaySummary, 0, limit)
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func scanSummary(row pgx.Row) (storage.DaySummary, error) {
	var summary storage.DaySummary
	var rawIDs []byte
	if err := row.Scan(
		&summary.ID,
		&summary.UserID,
		&summary.Date,
		&summary.Payload,
		&rawIDs,
		&summary.EditCount,
		&summary.UpdatedAt,
	); err != nil {
		return storage.DaySummary{}, err
	}
	if len(rawIDs) > 0 {
		if err := json.Unmarshal(rawIDs, &summary.RawInputIDs); err != nil {
			return storage.DaySummary{}, fmt.Errorf("failed to decode raw_input_ids: %w", err)
		}
	}
	return summary, nil
}
