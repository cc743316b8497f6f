// Package server реализует HTTP-интерфейс сервиса поиска по номерам.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"telegram-phone-lookup/internal/domain"
	"telegram-phone-lookup/internal/pkg/config"
	"telegram-phone-lookup/internal/ports"
)

// lookupRequest — тело запроса POST /api/v1/lookup.
type lookupRequest struct {
	// Phones — список номеров в произвольном формате. Обязателен.
	Phones []string `json:"phones"`
	// Names — необязательные отображаемые имена, выровненные по индексу с Phones.
	Names []string `json:"names,omitempty"`
}

// lookupResponse — конверт успешного ответа.
type lookupResponse struct {
	Success bool                  `json:"success"`
	Results []domain.LookupResult `json:"results"`
}

// errorResponse — конверт ответа с ошибкой уровня запроса.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	lookup     ports.LookupService
	log        *slog.Logger
}

// New создает новый экземпляр Server
func New(cfg *config.Config, lookup ports.LookupService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)

	s := &Server{
		cfg:    cfg,
		lookup: lookup,
		log:    log,
	}

	// Конечная точка для проверки работоспособности
	chiRouter.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	})

	// Маршруты API
	chiRouter.Route("/api/v1", func(r chi.Router) {
		r.Post("/lookup", s.handleLookup)
	})

	// В файловом режиме сохраненные фотографии раздаются как статика.
	if cfg.Photos.Mode == config.PhotoModeFile {
		chiRouter.Handle("/photos/*", http.StripPrefix("/photos/", http.FileServer(http.Dir(cfg.Photos.Dir))))
	}

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // пакетный поиск с паузами может занимать минуты
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler возвращает корневой обработчик сервера. Используется в тестах.
func (s *Server) Handler() http.Handler {
	return s.HTTPServer.Handler
}

// handleLookup обрабатывает пакетный запрос поиска. Запрос выполняется
// синхронно: ответ содержит по одному результату на каждый непустой номер,
// в порядке исходного списка.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	if len(req.Phones) == 0 {
		s.writeError(w, http.StatusBadRequest, "phones list is required and must not be empty")
		return
	}

	inputs := make([]domain.PhoneInput, 0, len(req.Phones))
	for i, raw := range req.Phones {
		in := domain.PhoneInput{Raw: strings.TrimSpace(raw), Index: i}
		if i < len(req.Names) {
			in.Name = strings.TrimSpace(req.Names[i])
		}
		inputs = append(inputs, in)
	}

	results, err := s.lookup.Lookup(r.Context(), inputs)
	if err != nil {
		s.log.ErrorContext(r.Context(), "Lookup request failed", "phones", len(req.Phones), "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(lookupResponse{
		Success: true,
		Results: results,
	})
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{
		Success: false,
		Error:   msg,
	})
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Завершение работы HTTP-сервера")
	return s.HTTPServer.Shutdown(ctx)
}
