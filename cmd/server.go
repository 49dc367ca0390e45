package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/resale-cli/internal/enrich"
	"github.com/sells-group/resale-cli/internal/model"
	"github.com/sells-group/resale-cli/internal/pipeline"
	"github.com/sells-group/resale-cli/internal/vault"
)

// server serves the annotated dataset, manual status corrections and
// browsing-history uploads.
type server struct {
	vault        *vault.Vault
	usagePath    string
	historyPath  string
	contextsPath string

	// One writer per document at a time.
	mu sync.Mutex
}

func newRouter(s *server, allowedOrigins []string, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	r.Get("/products", s.handleProducts)
	r.Post("/products/update-status", s.handleUpdateStatus)
	r.Get("/contexts", s.handleContexts)
	r.Post("/save-history", s.handleSaveHistory)
	r.Post("/history/match", s.handleMatchHistory)
	return r
}

func (s *server) handleProducts(w http.ResponseWriter, _ *http.Request) {
	s.serveDocument(w, s.usagePath, &model.MasterDataset{})
}

func (s *server) handleContexts(w http.ResponseWriter, _ *http.Request) {
	var contexts []model.ProductContext
	s.serveDocument(w, s.contextsPath, &contexts)
}

func (s *server) serveDocument(w http.ResponseWriter, path string, v any) {
	if err := s.vault.Load(path, v); err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			writeError(w, http.StatusNotFound, "dataset not found")
			return
		}
		zap.L().Error("serve: load dataset", zap.String("path", path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type updateStatusRequest struct {
	ID        *int    `json:"id"`
	NewStatus *string `json:"newStatus"`
}

func (s *server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == nil || req.NewStatus == nil {
		writeError(w, http.StatusBadRequest, "Missing id or newStatus")
		return
	}
	status, err := model.ParseStatus(*req.NewStatus)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	err = pipeline.UpdateStatus(s.vault, s.usagePath, *req.ID, status)
	s.mu.Unlock()

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	case errors.Is(err, pipeline.ErrProductNotFound), errors.Is(err, vault.ErrNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
	default:
		zap.L().Error("serve: update status", zap.Int("id", *req.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *server) handleSaveHistory(w http.ResponseWriter, r *http.Request) {
	var incoming map[string]model.HistoryEntry
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(incoming) == 0 {
		writeError(w, http.StatusBadRequest, "No data received")
		return
	}
	s.mergeHistory(w, incoming)
}

func (s *server) handleMatchHistory(w http.ResponseWriter, r *http.Request) {
	var visits []model.HistoryVisit
	if err := json.NewDecoder(r.Body).Decode(&visits); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var contexts []model.ProductContext
	if err := s.vault.Load(s.contextsPath, &contexts); err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			writeError(w, http.StatusConflict, "product contexts have not been generated")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	matched := enrich.MatchHistory(visits, contexts)
	if len(matched) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "matched": 0})
		return
	}
	s.mergeHistory(w, matched)
}

func (s *server) mergeHistory(w http.ResponseWriter, incoming map[string]model.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing map[string]model.HistoryEntry
	if _, err := s.vault.LoadOptional(s.historyPath, &existing); err != nil {
		zap.L().Error("serve: load history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	merged := enrich.MergeHistory(existing, incoming)
	if err := s.vault.Save(merged, s.historyPath); err != nil {
		zap.L().Error("serve: save history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "matched": len(incoming)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
