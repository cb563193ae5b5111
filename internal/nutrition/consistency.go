package nutrition

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrTotalsMismatch = errors.New("totals mismatch")

const (
	totalsRelTolerance = 0.05
	totalsAbsTolerance = 1e-6
)

// CheckConsistency compares the declared totals against the sum of all
// items. Mismatches beyond the 5% tolerance come back as warnings, or as
// ErrTotalsMismatch when strict is set.
func CheckConsistency(rec DayRecord, strict bool) ([]string, error) {
	expProtein, expCarb, expFat, expKcal := ExpectedTotals(rec)

	var warnings []string
	if !closeEnough(rec.TotalProteinG, expProtein) {
		warnings = append(warnings, fmt.Sprintf("Protein total mismatch: %.1f vs %.1f", rec.TotalProteinG, expProtein))
	}
	if !closeEnough(rec.TotalCarbG, expCarb) {
		warnings = append(warnings, fmt.Sprintf("Carb total mismatch: %.1f vs %.1f", rec.TotalCarbG, expCarb))
	}
	if !closeEnough(rec.TotalFatG, expFat) {
		warnings = append(warnings, fmt.Sprintf("Fat total mismatch: %.1f vs %.1f", rec.TotalFatG, expFat))
	}
	if !closeEnough(rec.TotalKcal, expKcal) {
		warnings = append(warnings, fmt.Sprintf("Calorie total mismatch: %.0f vs %.0f", rec.TotalKcal, expKcal))
	}

	if strict && len(warnings) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrTotalsMismatch, strings.Join(warnings, "; "))
	}
	return warnings, nil
}

// SanityWarnings runs the cheap checks applied to manual edits, where no
// model round-trip re-derives the numbers.
func SanityWarnings(rec DayRecord) []string {
	var warnings []string
	if rec.TotalKcal < 0 {
		warnings = append(warnings, "Negative calories detected")
	}
	if rec.TotalKcal > 10000 {
		warnings = append(warnings, "Unusually high calorie count")
	}
	if rec.TotalProteinG < 0 {
		warnings = append(warnings, "Negative protein detected")
	}
	if rec.TotalCarbG < 0 {
		warnings = append(warnings, "Negative carbs detected")
	}
	if rec.TotalFatG < 0 {
		warnings = append(warnings, "Negative fat detected")
	}
	return warnings
}

func closeEnough(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= math.Max(totalsRelTolerance*math.Max(math.Abs(a), math.Abs(b)), totalsAbsTolerance)
}
