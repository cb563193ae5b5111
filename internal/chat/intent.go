package chat

import "strings"

const (
	IntentFinalizeDay = "finalize_day"
	IntentLogWholeDay = "log_whole_day"
	IntentLogMeal     = "log_meal"
	IntentShowPending = "show_pending"
	IntentHelp        = "help"
)

var (
	finalizeKeywords = []string{"daily summary", "process my day", "finalize", "summary"}
	wholeDayKeywords = []string{"whole day", "all my meals", "today i ate"}
	logKeywords      = []string{"i ate", "i had", "log", "breakfast", "lunch", "dinner", "snack"}
	showKeywords     = []string{"what did i eat", "pending", "show"}
)

// detectIntent routes on keywords, more specific intents first.
func detectIntent(message string) string {
	lowered := strings.ToLower(message)

	if containsAny(lowered, finalizeKeywords) {
		return IntentFinalizeDay
	}
	if containsAny(lowered, wholeDayKeywords) {
		return IntentLogWholeDay
	}
	if containsAny(lowered, logKeywords) {
		return IntentLogMeal
	}
	if containsAny(lowered, showKeywords) {
		return IntentShowPending
	}
	return IntentHelp
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
