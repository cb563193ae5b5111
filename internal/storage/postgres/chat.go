package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nutrihub/server/internal/storage"
)

type PostgresChatStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresChatStorage(pool *pgxpool.Pool) *PostgresChatStorage {
	return &PostgresChatStorage{pool: pool}
}

func (s *PostgresChatStorage) InsertMessage(ctx context.Context, userID, role, content string) (storage.ChatMessage, error) {
	msg := storage.ChatMessage{
		ID:        uuid.New(),
		UserID:    strings.TrimSpace(userID),
		Role:      strings.TrimSpace(role),
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	const query = `
		INSERT INTO chat_messages (id, user_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		msg.ID,
		msg.UserID,
		msg.Role,
		msg.Content,
		msg.CreatedAt,
	)
	if err != nil {
		return storage.ChatMessage{}, err
	}
	return msg, nil
}

func (s *PostgresChatStorage) ListMessages(ctx context.Context, userID string, limit int, before *time.Time) ([]storage.ChatMessage, *time.Time, error) {
	userID = strings.TrimSpace(userID)
	if limit <= 0 {
		limit = 50
	}
	queryLimit := limit + 1

	const query = `
		SELECT id, user_id, role, content, created_at
		FROM (
			SELECT id, user_id, role, content, created_at
			FROM chat_messages
			WHERE user_id = $1
			  AND ($2::timestamptz IS NULL OR created_at < $2)
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		) latest
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, userID, before, queryLimit)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	result := make([]storage.ChatMessage, 0, queryLimit)
	for rows.Next() {
		var msg storage.ChatMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.UserID,
			&msg.Role,
			&msg.Content,
			&msg.CreatedAt,
		); err != nil {
			return nil, nil, err
		}
		result = append(result, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	if len(result) <= limit {
		return result, nil, nil
	}

	result = result[1:]
	cursor := result[0].CreatedAt.UTC()
	return result, &cursor, nil
}
