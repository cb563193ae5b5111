package nutrition

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidRecordShape = errors.New("invalid record shape")

// Item is a single food item with its estimated macros.
type Item struct {
	Name     string  `json:"name"`
	Grams    float64 `json:"grams"`
	ProteinG float64 `json:"protein_g"`
	CarbG    float64 `json:"carb_g"`
	FatG     float64 `json:"fat_g"`
	Kcal     float64 `json:"kcal"`
}

// Meal groups the items eaten in one sitting.
type Meal struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// DayRecord is the canonical structured nutrition record for one day.
type DayRecord struct {
	Meals         []Meal  `json:"meals"`
	TotalProteinG float64 `json:"total_protein_g"`
	TotalCarbG    float64 `json:"total_carb_g"`
	TotalFatG     float64 `json:"total_fat_g"`
	TotalKcal     float64 `json:"total_kcal"`
}

// ValidateShape checks structural constraints only. Totals reconciliation
// lives in CheckConsistency.
func ValidateShape(rec DayRecord) error {
	if len(rec.Meals) == 0 {
		return fmt.Errorf("%w: record has no meals", ErrInvalidRecordShape)
	}
	for i, meal := range rec.Meals {
		if len(meal.Items) == 0 {
			return fmt.Errorf("%w: meal %q has no items", ErrInvalidRecordShape, mealLabel(meal, i))
		}
		for _, item := range meal.Items {
			if strings.TrimSpace(item.Name) == "" {
				return fmt.Errorf("%w: meal %q has an item with an empty name", ErrInvalidRecordShape, mealLabel(meal, i))
			}
			if item.Grams <= 0 {
				return fmt.Errorf("%w: item %q has non-positive grams", ErrInvalidRecordShape, item.Name)
			}
			if item.ProteinG < 0 || item.CarbG < 0 || item.FatG < 0 || item.Kcal < 0 {
				return fmt.Errorf("%w: item %q has negative macros", ErrInvalidRecordShape, item.Name)
			}
		}
	}
	if rec.TotalProteinG < 0 || rec.TotalCarbG < 0 || rec.TotalFatG < 0 || rec.TotalKcal < 0 {
		return fmt.Errorf("%w: negative totals", ErrInvalidRecordShape)
	}
	return nil
}

// ExpectedTotals sums the macros over every item of every meal.
func ExpectedTotals(rec DayRecord) (protein, carb, fat, kcal float64) {
	for _, meal := range rec.Meals {
		for _, item := range meal.Items {
			protein += item.ProteinG
			carb += item.CarbG
			fat += item.FatG
			kcal += item.Kcal
		}
	}
	return protein, carb, fat, kcal
}

// SummarizeDay renders a one-line human summary of the record.
func SummarizeDay(rec DayRecord) string {
	names := make([]string, 0, len(rec.Meals))
	for _, meal := range rec.Meals {
		names = append(names, meal.Name)
	}
	return fmt.Sprintf("Meals: %s. Totals: %.1fg protein, %.1fg carb, %.1fg fat, %.0f kcal.",
		strings.Join(names, ", "),
		rec.TotalProteinG,
		rec.TotalCarbG,
		rec.TotalFatG,
		rec.TotalKcal,
	)
}

func mealLabel(meal Meal, index int) string {
	name := strings.TrimSpace(meal.Name)
	if name == "" {
		return fmt.Sprintf("meal #%d", index+1)
	}
	return name
}
