package mealbatch

import (
	"fmt"
	"strings"

	"github.com/nutrihub/server/internal/storage"
)

const promptInstruction = "Return JSON only. No prose. " +
	"Follow the schema exactly. " +
	"Calculate totals as the sum of all items across all meals. " +
	"Only include protein_g, carb_g, fat_g, and kcal - no micronutrients. " +
	"Be accurate with portion sizes and nutritional values."

// recordSchemaJSON is sent to the model verbatim, compact to keep prompt
// tokens down.
const recordSchemaJSON = `{"type":"object","properties":{"meals":{"type":"array","items":{"type":"object","properties":{"name":{"type":"string"},"items":{"type":"array","items":{"type":"object","properties":{"name":{"type":"string"},"grams":{"type":"number"},"protein_g":{"type":"number"},"carb_g":{"type":"number"},"fat_g":{"type":"number"},"kcal":{"type":"number"}},"required":["name","grams","protein_g","carb_g","fat_g","kcal"]}}},"required":["name","items"]}},"total_protein_g":{"type":"number"},"total_carb_g":{"type":"number"},"total_fat_g":{"type":"number"},"total_kcal":{"type":"number"}},"required":["meals","total_protein_g","total_carb_g","total_fat_g","total_kcal"]}`

// combineInputTexts merges the pending inputs into one block of text. A
// single input passes through verbatim; multiple inputs get numbered with
// their log time so the model can tell meals apart.
func combineInputTexts(inputs []storage.MealInput) string {
	if len(inputs) == 1 {
		return inputs[0].RawText
	}

	parts := make([]string, 0, len(inputs))
	for i, input := range inputs {
		parts = append(parts, fmt.Sprintf("Meal %d (logged at %s): %s", i+1, input.TS.UTC().Format("15:04"), input.RawText))
	}

	return "Here are all my meals for today:\n\n" + strings.Join(parts, "\n\n")
}

func buildPrompt(userText string) string {
	return promptInstruction + "\n\nSchema:\n" + recordSchemaJSON + "\n\nUser input:\n" + userText + "\n"
}
