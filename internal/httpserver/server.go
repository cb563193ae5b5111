package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/nutrihub/server/internal/ai"
	"github.com/nutrihub/server/internal/auth"
	"github.com/nutrihub/server/internal/blob"
	"github.com/nutrihub/server/internal/chat"
	"github.com/nutrihub/server/internal/config"
	"github.com/nutrihub/server/internal/mealbatch"
	"github.com/nutrihub/server/internal/reports"
	"github.com/nutrihub/server/internal/storage"
	"github.com/nutrihub/server/internal/storage/memory"
	"github.com/nutrihub/server/internal/storage/postgres"
)

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	storage        storage.Storage
	authMiddleware *auth.Middleware
}

// New создаёт новый HTTP сервер
func New(cfg *config.Config) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
	}

	// Инициализируем storage
	s.initStorage()

	// Регистрируем маршруты
	s.routes()
	return s
}

// initStorage инициализирует storage (Memory или Postgres)
func (s *Server) initStorage() {
	if s.config.DatabaseURL == "" {
		log.Println("Используется in-memory storage")
		s.storage = memory.New()
	} else {
		log.Println("Подключение к PostgreSQL...")
		ctx := context.Background()
		pgStorage, err := postgres.New(ctx, s.config.DatabaseURL)
		if err != nil {
			log.Printf("Ошибка подключения к PostgreSQL: %v", err)
			log.Println("Fallback на in-memory storage")
			s.storage = memory.New()
		} else {
			log.Println("PostgreSQL подключен успешно")
			s.storage = pgStorage
		}
	}
}

// routes регистрирует маршруты
func (s *Server) routes() {
	// Health check (no auth required)
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	// Auth API (no auth required)
	authService := auth.NewService(s.config)
	authHandlers := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)

	// POST /v1/auth/dev-token - local dev token
	s.mux.HandleFunc("POST /v1/auth/dev-token", authHandlers.HandleDevToken)

	// Blob archival for finalized day records (best-effort)
	var archiver *blob.Archiver
	blobStore, blobMode, err := blob.NewBlobStore(s.config.Blob, log.Default())
	if err != nil {
		log.Printf("WARN blob: init failed, archival disabled: %v", err)
	} else {
		log.Printf("INFO blob: archival enabled (mode=%s)", blobMode)
		archiver = blob.NewArchiver(blobStore)
	}

	// Meal batching API
	aiProvider := ai.NewProvider(s.config)
	mealService := mealbatch.NewService(s.storage, aiProvider, archiver, s.config)
	mealHandler := mealbatch.NewHandler(mealService)

	// POST /v1/meals/log - log a raw meal text
	s.mux.HandleFunc("POST /v1/meals/log", mealHandler.HandleLogMeal)

	// GET /v1/meals/pending - list unprocessed inputs for a date
	s.mux.HandleFunc("GET /v1/meals/pending", mealHandler.HandlePendingInputs)

	// GET /v1/days - summary history
	s.mux.HandleFunc("GET /v1/days", mealHandler.HandleHistory)

	// POST /v1/days/{date}/finalize - single LLM call over all pending inputs
	s.mux.HandleFunc("POST /v1/days/{date}/finalize", mealHandler.HandleFinalizeDay)

	// GET /v1/days/{date} - finalized summary
	s.mux.HandleFunc("GET /v1/days/{date}", mealHandler.HandleGetSummary)

	// PUT /v1/days/{date} - manual correction (bounded)
	s.mux.HandleFunc("PUT /v1/days/{date}", mealHandler.HandleEditSummary)

	// Chat API
	chatService := chat.NewService(s.storage, mealService)
	chatHandler := chat.NewHandler(chatService)
	s.mux.HandleFunc("POST /v1/chat", chatHandler.HandleSendMessage)
	s.mux.HandleFunc("GET /v1/chat/messages", chatHandler.HandleListMessages)

	// Reports API
	reportsService := reports.NewService(s.storage)
	reportsHandler := reports.NewHandler(reportsService)

	// GET /v1/reports/day/{date} - PDF/CSV export of a finalized day
	s.mux.HandleFunc("GET /v1/reports/day/{date}", reportsHandler.HandleDayReport)

	// GET /v1/reports/history - daily totals over the last N days
	s.mux.HandleFunc("GET /v1/reports/history", reportsHandler.HandleHistoryReport)
}

// handleHealthz возвращает статус сервера
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	// Build middleware chain (outermost first): CORS → Rate Limit → Auth → Router
	var handler http.Handler = s.mux
	if s.authMiddleware != nil && s.config.AuthMode != "none" {
		if s.config.AuthRequired {
			handler = s.authMiddleware.RequireAuth(handler)
		} else {
			handler = s.authMiddleware.OptionalAuth(handler)
		}
	}
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)

	log.Printf("Сервер запущен на http://localhost%s\n", addr)
	log.Printf("Health check: http://localhost%s/healthz\n", addr)
	log.Printf("Meals API: http://localhost%s/v1/meals/log\n", addr)

	return http.ListenAndServe(addr, handler)
}

// Close закрывает storage и освобождает ресурсы
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
