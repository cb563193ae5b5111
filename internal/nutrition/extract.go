package nutrition

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrMalformedResponse = errors.New("malformed model response")

var fencedJSONPattern = regexp.MustCompile("(?is)```json\\s*(\\{.*?\\})\\s*```")

// ExtractJSON recovers a DayRecord from raw model output. Models usually
// return clean JSON, but fenced blocks, prose wrappers and one known
// truncation (a dropped "]" before the totals keys) show up often enough
// that each gets its own fallback before giving up.
func ExtractJSON(raw string) (DayRecord, error) {
	trimmed := strings.TrimSpace(raw)

	if rec, ok := tryParse(trimmed); ok {
		return rec, nil
	}

	if repaired, ok := repairMissingBracket(trimmed); ok {
		if rec, ok := tryParse(repaired); ok {
			return rec, nil
		}
	}

	if match := fencedJSONPattern.FindStringSubmatch(trimmed); match != nil {
		if rec, ok := tryParse(match[1]); ok {
			return rec, nil
		}
	}

	if start, end := strings.Index(trimmed, "{"), strings.LastIndex(trimmed, "}"); start >= 0 && end > start {
		if rec, ok := tryParse(trimmed[start : end+1]); ok {
			return rec, nil
		}
	}

	return DayRecord{}, fmt.Errorf("%w: no parseable JSON object in %d bytes of output", ErrMalformedResponse, len(raw))
}

func tryParse(candidate string) (DayRecord, bool) {
	var rec DayRecord
	if err := json.Unmarshal([]byte(candidate), &rec); err != nil {
		return DayRecord{}, false
	}
	return rec, true
}

// repairMissingBracket handles truncated output where the meals array was
// never closed before the totals keys.
func repairMissingBracket(text string) (string, bool) {
	idx := strings.Index(text, `"total_protein_g"`)
	if idx <= 0 {
		return "", false
	}
	prefix := text[:idx]
	if strings.Count(prefix, "[") <= strings.Count(prefix, "]") {
		return "", false
	}
	repaired := prefix + "]," + text[idx:]
	repaired = strings.Replace(repaired, `},],"total`, `}],"total`, 1)
	return repaired, true
}
