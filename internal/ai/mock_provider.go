package ai

import (
	"context"
	"strings"
)

// MockProvider returns canned nutrition JSON keyed on the meal words in the
// request. It keeps local development and tests deterministic without an
// API key.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

const (
	mockBreakfast = `{"meals":[{"name":"Breakfast","items":[{"name":"Eggs","grams":100,"protein_g":12.6,"carb_g":1.1,"fat_g":9.0,"kcal":155},{"name":"Toast","grams":60,"protein_g":4.8,"carb_g":40.2,"fat_g":2.1,"kcal":200}]}],"total_protein_g":17.4,"total_carb_g":41.3,"total_fat_g":11.1,"total_kcal":355}`

	mockLunch = `{"meals":[{"name":"Lunch","items":[{"name":"Chicken Breast","grams":150,"protein_g":35.1,"carb_g":0.0,"fat_g":3.9,"kcal":185},{"name":"Brown Rice","grams":100,"protein_g":2.6,"carb_g":22.0,"fat_g":0.9,"kcal":110},{"name":"Broccoli","grams":100,"protein_g":3.0,"carb_g":7.0,"fat_g":0.4,"kcal":34}]}],"total_protein_g":40.7,"total_carb_g":29.0,"total_fat_g":5.2,"total_kcal":329}`

	mockDinner = `{"meals":[{"name":"Dinner","items":[{"name":"Salmon","grams":200,"protein_g":42.0,"carb_g":0.0,"fat_g":12.0,"kcal":280},{"name":"Quinoa","grams":100,"protein_g":4.4,"carb_g":22.0,"fat_g":1.9,"kcal":120},{"name":"Mixed Vegetables","grams":150,"protein_g":4.5,"carb_g":15.0,"fat_g":0.6,"kcal":80}]}],"total_protein_g":50.9,"total_carb_g":37.0,"total_fat_g":14.5,"total_kcal":480}`

	mockWholeDay = `{"meals":[{"name":"Breakfast","items":[{"name":"Eggs","grams":100,"protein_g":12.6,"carb_g":1.1,"fat_g":9.0,"kcal":155},{"name":"Toast","grams":60,"protein_g":4.8,"carb_g":40.2,"fat_g":2.1,"kcal":200}]},{"name":"Lunch","items":[{"name":"Chicken Breast","grams":150,"protein_g":35.1,"carb_g":0.0,"fat_g":3.9,"kcal":185},{"name":"Brown Rice","grams":100,"protein_g":2.6,"carb_g":22.0,"fat_g":0.9,"kcal":110}]},{"name":"Dinner","items":[{"name":"Salmon","grams":200,"protein_g":42.0,"carb_g":0.0,"fat_g":12.0,"kcal":280},{"name":"Quinoa","grams":100,"protein_g":4.4,"carb_g":22.0,"fat_g":1.9,"kcal":120}]}],"total_protein_g":101.5,"total_carb_g":85.3,"total_fat_g":29.8,"total_kcal":1050}`
)

func (p *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	_ = ctx

	if len(req.Messages) == 0 {
		return GenerateResult{Content: "{}"}, nil
	}

	lowered := strings.ToLower(req.Messages[0].Content)

	var content string
	switch {
	case strings.Contains(lowered, "breakfast") && strings.Contains(lowered, "lunch") && strings.Contains(lowered, "dinner"):
		content = mockWholeDay
	case strings.Contains(lowered, "breakfast"):
		content = mockBreakfast
	case strings.Contains(lowered, "lunch"):
		content = mockLunch
	case strings.Contains(lowered, "dinner"):
		content = mockDinner
	default:
		content = mockBreakfast
	}

	return GenerateResult{
		Content: content,
		Usage:   Usage{PromptTokens: 100, CompletionTokens: 50},
	}, nil
}
