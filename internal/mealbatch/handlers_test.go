package mealbatch

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nutrihub/server/internal/ai"
	"github.com/nutrihub/server/internal/config"
	"github.com/nutrihub/server/internal/storage/memory"
	"github.com/nutrihub/server/internal/userctx"
)

func setupMealBatchHandler(t *testing.T) http.Handler {
	t.Helper()

	mem := memory.New()
	cfg := &config.Config{
		AIMaxOutputTokens: 700,
		AITemperature:     0.2,
	}
	service := NewService(mem, ai.NewMockProvider(), nil, cfg)
	handler := NewHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/meals/log", handler.HandleLogMeal)
	mux.HandleFunc("GET /v1/meals/pending", handler.HandlePendingInputs)
	mux.HandleFunc("GET /v1/days", handler.HandleHistory)
	mux.HandleFunc("POST /v1/days/{date}/finalize", handler.HandleFinalizeDay)
	mux.HandleFunc("GET /v1/days/{date}", handler.HandleGetSummary)
	mux.HandleFunc("PUT /v1/days/{date}", handler.HandleEditSummary)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), "test-user")))
	})
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleLogMeal(t *testing.T) {
	handler := setupMealBatchHandler(t)

	rec := doRequest(t, handler, http.MethodPost, "/v1/meals/log", `{"date":"2024-01-15","text":"eggs for breakfast"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	var input MealInputDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &input); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if input.Date != "2024-01-15" || input.Text != "eggs for breakfast" || input.Processed {
		t.Fatalf("unexpected input DTO: %+v", input)
	}
}

func TestHandleLogMealInvalidBody(t *testing.T) {
	handler := setupMealBatchHandler(t)

	rec := doRequest(t, handler, http.MethodPost, "/v1/meals/log", `{"text":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleFinalizeFlow(t *testing.T) {
	handler := setupMealBatchHandler(t)

	rec := doRequest(t, handler, http.MethodPost, "/v1/meals/log", `{"date":"2024-01-15","text":"eggs for breakfast"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("log status = %d", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodGet, "/v1/meals/pending?date=2024-01-15", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("pending status = %d", rec.Code)
	}
	var pending PendingInputsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &pending); err != nil {
		t.Fatalf("decode pending: %v", err)
	}
	if len(pending.Inputs) != 1 {
		t.Fatalf("expected 1 pending input, got %d", len(pending.Inputs))
	}

	rec = doRequest(t, handler, http.MethodPost, "/v1/days/2024-01-15/finalize", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("finalize status = %d; body: %s", rec.Code, rec.Body.String())
	}
	var finalized FinalizeDayResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &finalized); err != nil {
		t.Fatalf("decode finalize: %v", err)
	}
	if finalized.Summary.Record.TotalKcal != 355 {
		t.Fatalf("total_kcal = %v, want 355", finalized.Summary.Record.TotalKcal)
	}

	rec = doRequest(t, handler, http.MethodGet, "/v1/days/2024-01-15", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get summary status = %d", rec.Code)
	}
}

func TestHandleFinalizeNoPending(t *testing.T) {
	handler := setupMealBatchHandler(t)

	rec := doRequest(t, handler, http.MethodPost, "/v1/days/2024-01-15/finalize", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Error.Code != "no_pending_inputs" {
		t.Fatalf("error code = %q, want no_pending_inputs", resp.Error.Code)
	}
}

func TestHandleGetSummaryNotFound(t *testing.T) {
	handler := setupMealBatchHandler(t)

	rec := doRequest(t, handler, http.MethodGet, "/v1/days/2024-01-15", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Error.Code != "summary_not_found" {
		t.Fatalf("error code = %q, want summary_not_found", resp.Error.Code)
	}
}

func TestHandleEditSummary(t *testing.T) {
	handler := setupMealBatchHandler(t)

	doRequest(t, handler, http.MethodPost, "/v1/meals/log", `{"date":"2024-01-15","text":"eggs for breakfast"}`)
	rec := doRequest(t, handler, http.MethodPost, "/v1/days/2024-01-15/finalize", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("finalize status = %d", rec.Code)
	}
	var finalized FinalizeDayResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &finalized); err != nil {
		t.Fatalf("decode finalize: %v", err)
	}

	finalized.Summary.Record.TotalKcal = 400
	body, _ := json.Marshal(EditSummaryRequest{Record: finalized.Summary.Record})

	rec = doRequest(t, handler, http.MethodPut, "/v1/days/2024-01-15", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("edit status = %d; body: %s", rec.Code, rec.Body.String())
	}
	var edited EditSummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &edited); err != nil {
		t.Fatalf("decode edit: %v", err)
	}
	if edited.Summary.EditCount != 1 {
		t.Fatalf("edit_count = %d, want 1", edited.Summary.EditCount)
	}
	if edited.Summary.Record.TotalKcal != 400 {
		t.Fatalf("total_kcal = %v, want 400", edited.Summary.Record.TotalKcal)
	}
}

func TestHandleEditLimitExceeded(t *testing.T) {
	handler := setupMealBatchHandler(t)

	doRequest(t, handler, http.MethodPost, "/v1/meals/log", `{"date":"2024-01-15","text":"eggs for breakfast"}`)
	rec := doRequest(t, handler, http.MethodPost, "/v1/days/2024-01-15/finalize", "")
	var finalized FinalizeDayResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &finalized); err != nil {
		t.Fatalf("decode finalize: %v", err)
	}
	body, _ := json.Marshal(EditSummaryRequest{Record: finalized.Summary.Record})

	for i := 0; i < 2; i++ {
		rec = doRequest(t, handler, http.MethodPut, "/v1/days/2024-01-15", string(body))
		if rec.Code != http.StatusOK {
			t.Fatalf("edit %d status = %d", i+1, rec.Code)
		}
	}

	rec = doRequest(t, handler, http.MethodPut, "/v1/days/2024-01-15", string(body))
	if rec.Code != http.StatusConflict {
		t.Fatalf("third edit status = %d, want 409", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Error.Code != "edit_limit_exceeded" {
		t.Fatalf("error code = %q, want edit_limit_exceeded", resp.Error.Code)
	}
}

func TestHandleHistory(t *testing.T) {
	handler := setupMealBatchHandler(t)

	for _, date := range []string{"2024-01-14", "2024-01-15"} {
		doRequest(t, handler, http.MethodPost, "/v1/meals/log", `{"date":"`+date+`","text":"eggs for breakfast"}`)
		rec := doRequest(t, handler, http.MethodPost, "/v1/days/"+date+"/finalize", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("finalize %s status = %d", date, rec.Code)
		}
	}

	rec := doRequest(t, handler, http.MethodGet, "/v1/days?limit=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var history HistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history.Days) != 2 || history.Days[0].Date != "2024-01-15" {
		t.Fatalf("unexpected history: %+v", history.Days)
	}
}

func TestHandleMissingUser(t *testing.T) {
	mem := memory.New()
	cfg := &config.Config{AIMaxOutputTokens: 700}
	handler := NewHandler(NewService(mem, ai.NewMockProvider(), nil, cfg))

	req := httptest.NewRequest(http.MethodGet, "/v1/meals/pending", nil)
	rec := httptest.NewRecorder()
	handler.HandlePendingInputs(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
