package chat

import (
	"strings"
	"sync"
)

const (
	maxSessionTurns    = 12
	contextTurns       = 4
	contextContentSize = 80
)

type sessionTurn struct {
	Role    string
	Content string
}

// sessionMemory держит короткую историю диалога per-user в памяти процесса.
// Полная история живёт в ChatStorage, здесь только рабочее окно.
type sessionMemory struct {
	mu    sync.Mutex
	turns map[string][]sessionTurn
}

func newSessionMemory() *sessionMemory {
	return &sessionMemory{turns: make(map[string][]sessionTurn)}
}

func (m *sessionMemory) AddTurn(userID, role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := append(m.turns[userID], sessionTurn{Role: role, Content: content})
	if len(turns) > maxSessionTurns {
		turns = turns[len(turns)-maxSessionTurns:]
	}
	m.turns[userID] = turns
}

// RecentContext возвращает последние ходы в сжатом виде "role:content".
func (m *sessionMemory) RecentContext(userID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := m.turns[userID]
	if len(turns) == 0 {
		return ""
	}
	if len(turns) > contextTurns {
		turns = turns[len(turns)-contextTurns:]
	}

	parts := make([]string, 0, len(turns))
	for _, turn := range turns {
		content := turn.Content
		if runes := []rune(content); len(runes) > contextContentSize {
			content = string(runes[:contextContentSize])
		}
		parts = append(parts, turn.Role+":"+content)
	}
	return strings.Join(parts, " | ")
}
