package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nutrihub/server/internal/mealbatch"
	"github.com/nutrihub/server/internal/nutrition"
	"github.com/nutrihub/server/internal/storage"
	"github.com/nutrihub/server/internal/userctx"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid request")
	ErrAIFailed       = errors.New("ai failed")
)

const helpReply = "I can help you with nutrition tracking. Tell me what you ate " +
	"(for example \"I had eggs for breakfast\"), say \"pending\" to see unprocessed " +
	"meals, or ask for a \"daily summary\" to process everything you logged today."

type Service struct {
	chatStorage storage.ChatStorage
	meals       *mealbatch.Service
	sessions    *sessionMemory
}

func NewService(chatStorage storage.ChatStorage, meals *mealbatch.Service) *Service {
	return &Service{
		chatStorage: chatStorage,
		meals:       meals,
		sessions:    newSessionMemory(),
	}
}

func (s *Service) ListMessages(ctx context.Context, limit int, before *time.Time) (*ListMessagesResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	limit = normalizeLimit(limit)
	rows, nextCursorTime, err := s.chatStorage.ListMessages(ctx, userID, limit, before)
	if err != nil {
		return nil, err
	}

	messages := make([]ChatMessageDTO, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, messageToDTO(row))
	}

	var nextCursor *string
	if nextCursorTime != nil {
		cursor := nextCursorTime.UTC().Format(time.RFC3339Nano)
		nextCursor = &cursor
	}

	return &ListMessagesResponse{
		Messages:   messages,
		NextCursor: nextCursor,
	}, nil
}

func (s *Service) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrInvalidRequest
	}

	if err := s.recordTurn(ctx, userID, "user", message); err != nil {
		return nil, err
	}

	intent := detectIntent(message)
	reply, err := s.dispatch(ctx, intent, message)
	if err != nil {
		return nil, err
	}

	if err := s.recordTurn(ctx, userID, "assistant", reply); err != nil {
		return nil, err
	}

	return &SendMessageResponse{
		Reply:  reply,
		Intent: intent,
	}, nil
}

// RecentContext отдаёт короткий контекст последних ходов диалога.
func (s *Service) RecentContext(userID string) string {
	return s.sessions.RecentContext(userID)
}

func (s *Service) dispatch(ctx context.Context, intent, message string) (string, error) {
	switch intent {
	case IntentFinalizeDay:
		return s.finalizeReply(ctx)
	case IntentLogWholeDay:
		if _, err := s.meals.LogMeal(ctx, mealbatch.LogMealRequest{Text: message}); err != nil {
			return "", err
		}
		return s.finalizeReply(ctx)
	case IntentLogMeal:
		if _, err := s.meals.LogMeal(ctx, mealbatch.LogMealRequest{Text: message}); err != nil {
			return "", err
		}
		pending, err := s.meals.PendingInputs(ctx, "")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Meal logged. You have %d pending meals for today.", len(pending.Inputs)), nil
	case IntentShowPending:
		pending, err := s.meals.PendingInputs(ctx, "")
		if err != nil {
			return "", err
		}
		return renderPending(pending), nil
	default:
		return helpReply, nil
	}
}

func (s *Service) finalizeReply(ctx context.Context) (string, error) {
	resp, err := s.meals.FinalizeDay(ctx, "")
	if err != nil {
		if errors.Is(err, mealbatch.ErrNoPendingInputs) {
			return "No pending meals found for today. Log some meals first!", nil
		}
		if errors.Is(err, mealbatch.ErrUnauthorized) || errors.Is(err, mealbatch.ErrInvalidRequest) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrAIFailed, err)
	}
	return renderDaySummary(resp.Summary.Record, resp.Warnings), nil
}

func (s *Service) recordTurn(ctx context.Context, userID, role, content string) error {
	s.sessions.AddTurn(userID, role, content)
	if _, err := s.chatStorage.InsertMessage(ctx, userID, role, content); err != nil {
		return fmt.Errorf("failed to persist chat turn: %w", err)
	}
	return nil
}

func renderDaySummary(rec nutrition.DayRecord, warnings []string) string {
	var b strings.Builder
	b.WriteString("Daily nutrition summary\n")
	fmt.Fprintf(&b, "Totals: %.1fg protein, %.1fg carbs, %.1fg fat, %.0f kcal\n",
		rec.TotalProteinG, rec.TotalCarbG, rec.TotalFatG, rec.TotalKcal)

	for _, meal := range rec.Meals {
		var proteinG, carbG, fatG, kcal float64
		for _, item := range meal.Items {
			proteinG += item.ProteinG
			carbG += item.CarbG
			fatG += item.FatG
			kcal += item.Kcal
		}
		fmt.Fprintf(&b, "\n%s: %.1fg protein, %.1fg carbs, %.1fg fat, %.0f kcal\n",
			meal.Name, proteinG, carbG, fatG, kcal)
		for _, item := range meal.Items {
			fmt.Fprintf(&b, "- %s (%.0fg): %.1fg protein, %.1fg carbs, %.1fg fat, %.0f kcal\n",
				item.Name, item.Grams, item.ProteinG, item.CarbG, item.FatG, item.Kcal)
		}
	}

	if len(warnings) > 0 {
		fmt.Fprintf(&b, "\nWarnings: %s", strings.Join(warnings, ", "))
	}
	return b.String()
}

func renderPending(pending *mealbatch.PendingInputsResponse) string {
	if len(pending.Inputs) == 0 {
		return "No pending meals for today."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Pending meals for %s:\n", pending.Date)
	for i, input := range pending.Inputs {
		fmt.Fprintf(&b, "%d. %s (logged at %s)\n", i+1, input.Text, input.TS.UTC().Format("15:04"))
	}
	return b.String()
}

func userIDFromContext(ctx context.Context) string {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return ""
	}
	return strings.TrimSpace(userID)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}
