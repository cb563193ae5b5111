package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/nutrihub/server/internal/ai"
	"github.com/nutrihub/server/internal/config"
	"github.com/nutrihub/server/internal/mealbatch"
	"github.com/nutrihub/server/internal/storage/memory"
	"github.com/nutrihub/server/internal/userctx"
)

func setupChatService(t *testing.T) *Service {
	t.Helper()

	mem := memory.New()
	cfg := &config.Config{
		AIMaxOutputTokens: 700,
		AITemperature:     0.2,
	}
	meals := mealbatch.NewService(mem, ai.NewMockProvider(), nil, cfg)
	return NewService(mem, meals)
}

func chatContext(userID string) context.Context {
	return userctx.WithUserID(context.Background(), userID)
}

func TestDetectIntent(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"Give me my daily summary", IntentFinalizeDay},
		{"please finalize", IntentFinalizeDay},
		{"process my day", IntentFinalizeDay},
		{"Today I ate eggs, chicken and rice", IntentLogWholeDay},
		{"here are all my meals", IntentLogWholeDay},
		{"I had eggs for breakfast", IntentLogMeal},
		{"log chicken salad", IntentLogMeal},
		{"what did I eat today?", IntentShowPending},
		{"show pending", IntentShowPending},
		{"how is the weather", IntentHelp},
	}

	for _, tc := range cases {
		if got := detectIntent(tc.message); got != tc.want {
			t.Errorf("detectIntent(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestSendMessageLogsMeal(t *testing.T) {
	service := setupChatService(t)
	ctx := chatContext("user-1")

	resp, err := service.SendMessage(ctx, SendMessageRequest{Message: "I had eggs for breakfast"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.Intent != IntentLogMeal {
		t.Fatalf("intent = %q, want %q", resp.Intent, IntentLogMeal)
	}
	if !strings.Contains(resp.Reply, "1 pending") {
		t.Fatalf("reply = %q, want pending count", resp.Reply)
	}
}

func TestSendMessageFinalizesDay(t *testing.T) {
	service := setupChatService(t)
	ctx := chatContext("user-1")

	if _, err := service.SendMessage(ctx, SendMessageRequest{Message: "I had eggs for breakfast"}); err != nil {
		t.Fatalf("log message: %v", err)
	}

	resp, err := service.SendMessage(ctx, SendMessageRequest{Message: "daily summary please"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.Intent != IntentFinalizeDay {
		t.Fatalf("intent = %q, want %q", resp.Intent, IntentFinalizeDay)
	}
	if !strings.Contains(resp.Reply, "Daily nutrition summary") {
		t.Fatalf("reply = %q, want summary header", resp.Reply)
	}
	if !strings.Contains(resp.Reply, "355 kcal") {
		t.Fatalf("reply = %q, want totals line", resp.Reply)
	}
}

func TestSendMessageFinalizeNoPending(t *testing.T) {
	service := setupChatService(t)

	resp, err := service.SendMessage(chatContext("user-1"), SendMessageRequest{Message: "daily summary"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if !strings.Contains(resp.Reply, "No pending meals") {
		t.Fatalf("reply = %q, want no-pending notice", resp.Reply)
	}
}

func TestSendMessageWholeDay(t *testing.T) {
	service := setupChatService(t)

	resp, err := service.SendMessage(chatContext("user-1"), SendMessageRequest{
		Message: "Today I ate eggs for breakfast, chicken for lunch and salmon for dinner",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.Intent != IntentLogWholeDay {
		t.Fatalf("intent = %q, want %q", resp.Intent, IntentLogWholeDay)
	}
	if !strings.Contains(resp.Reply, "1050 kcal") {
		t.Fatalf("reply = %q, want whole-day totals", resp.Reply)
	}
}

func TestSendMessageShowPendingEmpty(t *testing.T) {
	service := setupChatService(t)

	resp, err := service.SendMessage(chatContext("user-1"), SendMessageRequest{Message: "show me what is pending"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.Intent != IntentShowPending {
		t.Fatalf("intent = %q, want %q", resp.Intent, IntentShowPending)
	}
	if resp.Reply != "No pending meals for today." {
		t.Fatalf("reply = %q", resp.Reply)
	}
}

func TestSendMessageHelp(t *testing.T) {
	service := setupChatService(t)

	resp, err := service.SendMessage(chatContext("user-1"), SendMessageRequest{Message: "how is the weather"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.Intent != IntentHelp {
		t.Fatalf("intent = %q, want %q", resp.Intent, IntentHelp)
	}
	if resp.Reply != helpReply {
		t.Fatalf("unexpected help reply: %q", resp.Reply)
	}
}

func TestSendMessageValidation(t *testing.T) {
	service := setupChatService(t)

	if _, err := service.SendMessage(chatContext("user-1"), SendMessageRequest{Message: "   "}); err != ErrInvalidRequest {
		t.Fatalf("empty message error = %v, want ErrInvalidRequest", err)
	}
	if _, err := service.SendMessage(context.Background(), SendMessageRequest{Message: "hello"}); err != ErrUnauthorized {
		t.Fatalf("missing user error = %v, want ErrUnauthorized", err)
	}
}

func TestSendMessagePersistsHistory(t *testing.T) {
	service := setupChatService(t)
	ctx := chatContext("user-1")

	if _, err := service.SendMessage(ctx, SendMessageRequest{Message: "how is the weather"}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	resp, err := service.ListMessages(ctx, 10, nil)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(resp.Messages) != 2 {
		t.Fatalf("expected 2 persisted turns, got %d", len(resp.Messages))
	}
	roles := map[string]int{}
	for _, msg := range resp.Messages {
		roles[msg.Role]++
	}
	if roles["user"] != 1 || roles["assistant"] != 1 {
		t.Fatalf("unexpected roles: %v", roles)
	}
}

func TestRecentContext(t *testing.T) {
	service := setupChatService(t)
	ctx := chatContext("user-1")

	if got := service.RecentContext("user-1"); got != "" {
		t.Fatalf("empty session context = %q", got)
	}

	if _, err := service.SendMessage(ctx, SendMessageRequest{Message: "how is the weather"}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	got := service.RecentContext("user-1")
	if !strings.HasPrefix(got, "user:how is the weather | assistant:") {
		t.Fatalf("unexpected context: %q", got)
	}
	for _, part := range strings.Split(got, " | ") {
		_, content, ok := strings.Cut(part, ":")
		if !ok {
			t.Fatalf("malformed context part: %q", part)
		}
		if len([]rune(content)) > 80 {
			t.Fatalf("context content not truncated: %q", content)
		}
	}
}

func TestSessionMemoryRing(t *testing.T) {
	mem := newSessionMemory()
	for i := 0; i < 20; i++ {
		mem.AddTurn("user-1", "user", strings.Repeat("x", i+1))
	}

	mem.mu.Lock()
	turns := mem.turns["user-1"]
	mem.mu.Unlock()

	if len(turns) != maxSessionTurns {
		t.Fatalf("ring size = %d, want %d", len(turns), maxSessionTurns)
	}
	if turns[len(turns)-1].Content != strings.Repeat("x", 20) {
		t.Fatalf("ring lost the newest turn")
	}

	context := mem.RecentContext("user-1")
	if got := len(strings.Split(context, " | ")); got != contextTurns {
		t.Fatalf("context turns = %d, want %d", got, contextTurns)
	}
}
