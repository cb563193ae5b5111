package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nutrihub/server/internal/nutrition"
	"github.com/nutrihub/server/internal/storage/memory"
	"github.com/nutrihub/server/internal/userctx"
)

func reportRecord() nutrition.DayRecord {
	return nutrition.DayRecord{
		Meals: []nutrition.Meal{
			{
				Name: "Breakfast",
				Items: []nutrition.Item{
					{Name: "eggs", Grams: 100, ProteinG: 13.0, CarbG: 1.1, FatG: 11.0, Kcal: 155},
					{Name: "toast", Grams: 80, ProteinG: 7.2, CarbG: 36.8, FatG: 2.6, Kcal: 200},
				},
			},
		},
		TotalProteinG: 20.2,
		TotalCarbG:    37.9,
		TotalFatG:     13.6,
		TotalKcal:     355,
	}
}

func setupReportHandler(t *testing.T, userID, date string) http.Handler {
	t.Helper()

	mem := memory.New()
	payload, err := json.Marshal(reportRecord())
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	if _, err := mem.FinalizeDay(context.Background(), userID, date, payload, []uuid.UUID{uuid.New()}, time.Now()); err != nil {
		t.Fatalf("seed summary: %v", err)
	}

	handler := NewHandler(NewService(mem))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/reports/day/{date}", handler.HandleDayReport)
	mux.HandleFunc("GET /v1/reports/history", handler.HandleHistoryReport)
	return mux
}

func doReportRequest(handler http.Handler, userID, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if userID != "" {
		req = req.WithContext(userctx.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestDayReportCSV(t *testing.T) {
	handler := setupReportHandler(t, "user-1", "2024-01-15")

	rec := doReportRequest(handler, "user-1", "/v1/reports/day/2024-01-15?format=csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type = %q", ct)
	}

	rows, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}
	// header + 2 items + totals
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	if rows[0][0] != "date" || rows[0][7] != "kcal" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][2] != "eggs" || rows[1][7] != "155" {
		t.Fatalf("unexpected item row: %v", rows[1])
	}

	totals := rows[3]
	if totals[1] != "Total" || totals[4] != "20.2" || totals[7] != "355" {
		t.Fatalf("unexpected totals row: %v", totals)
	}
}

func TestDayReportPDF(t *testing.T) {
	handler := setupReportHandler(t, "user-1", "2024-01-15")

	rec := doReportRequest(handler, "user-1", "/v1/reports/day/2024-01-15?format=pdf")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("response is not a PDF")
	}
}

func TestDayReportDefaultsToPDF(t *testing.T) {
	handler := setupReportHandler(t, "user-1", "2024-01-15")

	rec := doReportRequest(handler, "user-1", "/v1/reports/day/2024-01-15")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q, want application/pdf", ct)
	}
}

func TestDayReportNotFound(t *testing.T) {
	handler := setupReportHandler(t, "user-1", "2024-01-15")

	rec := doReportRequest(handler, "user-1", "/v1/reports/day/2024-02-20?format=csv")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Error.Code != "report_not_found" {
		t.Fatalf("error code = %q", resp.Error.Code)
	}
}

func TestHistoryReportCSV(t *testing.T) {
	handler := setupReportHandler(t, "user-1", "2024-01-15")

	rec := doReportRequest(handler, "user-1", "/v1/reports/history?days=7&format=csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	rows, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}
	// header + 1 finalized day
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][0] != "date" || rows[0][5] != "edits" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	day := rows[1]
	if day[0] != "2024-01-15" || day[1] != "20.2" || day[4] != "355" || day[5] != "0" {
		t.Fatalf("unexpected day row: %v", day)
	}
}

func TestHistoryReportPDF(t *testing.T) {
	handler := setupReportHandler(t, "user-1", "2024-01-15")

	rec := doReportRequest(handler, "user-1", "/v1/reports/history")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("response is not a PDF")
	}
}

func TestHistoryReportValidation(t *testing.T) {
	handler := setupReportHandler(t, "user-1", "2024-01-15")

	rec := doReportRequest(handler, "user-1", "/v1/reports/history?days=abc")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad days status = %d, want 400", rec.Code)
	}

	rec = doReportRequest(handler, "user-2", "/v1/reports/history?format=csv")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("no days status = %d, want 404", rec.Code)
	}
}

func TestDayReportValidation(t *testing.T) {
	handler := setupReportHandler(t, "user-1", "2024-01-15")

	rec := doReportRequest(handler, "user-1", "/v1/reports/day/2024-01-15?format=xml")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad format status = %d, want 400", rec.Code)
	}

	rec = doReportRequest(handler, "user-1", "/v1/reports/day/15.01.2024?format=csv")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d, want 400", rec.Code)
	}

	rec = doReportRequest(handler, "", "/v1/reports/day/2024-01-15?format=csv")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing user status = %d, want 401", rec.Code)
	}
}
