// Package http provides the HTTP server infrastructure.
// Framework layer: translates requests into usecase calls and results into
// JSON. No retrieval logic lives here.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/agrostack/kisanqa-go/internal/domain/entities"
	"github.com/agrostack/kisanqa-go/internal/domain/ports"
	"github.com/agrostack/kisanqa-go/internal/domain/usecases"
)

// Server is the HTTP server for the Q&A API.
type Server struct {
	retrieve *usecases.RetrieveUseCase
	augment  *usecases.AugmentUseCase // nil when online mode is disabled
	convs    ports.ConversationStore  // nil when logging is disabled
	addr     string
}

// NewServer creates a new HTTP server. augment and convs may be nil.
func NewServer(
	retrieveUC *usecases.RetrieveUseCase,
	augmentUC *usecases.AugmentUseCase,
	convs ports.ConversationStore,
	addr string,
) *Server {
	return &Server{
		retrieve: retrieveUC,
		augment:  augmentUC,
		convs:    convs,
		addr:     addr,
	}
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/query", s.handleQuery)
	mux.HandleFunc("/api/conversations", s.handleConversations)
	mux.HandleFunc("/api/health", s.handleHealth)

	server := &http.Server{
		Addr:         s.addr,
		Handler:      corsMiddleware(loggingMiddleware(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // online answers can be slow
	}

	log.Printf("[INFO] kisanqa server starting on %s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// queryRequest is the JSON request body for /api/query.
type queryRequest struct {
	Query  string `json:"query"`
	TopK   int    `json:"top_k"`
	Online bool   `json:"online"`
}

// queryResponse is the JSON response for /api/query.
type queryResponse struct {
	Query         string               `json:"query"`
	Hits          []entities.SearchHit `json:"hits"`
	Display       []entities.SearchHit `json:"display"`
	OfflineAnswer string               `json:"offline_answer"`
	OnlineAnswer  string               `json:"online_answer,omitempty"`
}

// handleQuery answers one farmer query: retrieval always, LLM augmentation
// when requested and configured.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req queryRequest
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
	} else {
		r.ParseForm()
		req.Query = r.FormValue("query")
		req.TopK, _ = strconv.Atoi(r.FormValue("top_k"))
		req.Online = r.FormValue("online") == "true"
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		http.Error(w, "Query required", http.StatusBadRequest)
		return
	}

	result, err := s.retrieve.Retrieve(r.Context(), req.Query, req.TopK)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := queryResponse{
		Query:         req.Query,
		Hits:          result.Hits,
		Display:       result.Display,
		OfflineAnswer: result.Answer,
	}

	if req.Online && s.augment != nil && len(result.Hits) > 0 {
		online, err := s.augment.Augment(r.Context(), req.Query, result.Answer)
		if err != nil {
			log.Printf("[WARN] online answer failed: %v", err)
		} else {
			resp.OnlineAnswer = online
		}
	}

	if s.convs != nil {
		conv := entities.Conversation{
			Query:         req.Query,
			OfflineAnswer: resp.OfflineAnswer,
			OnlineAnswer:  resp.OnlineAnswer,
		}
		if err := s.convs.Save(r.Context(), conv); err != nil {
			log.Printf("[WARN] saving conversation: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleConversations returns recently logged exchanges.
func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.convs == nil {
		http.Error(w, "Conversation logging disabled", http.StatusNotFound)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	convs, err := s.convs.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var dimErr *entities.DimensionMismatchError
	switch {
	case errors.Is(err, entities.ErrCorpusNotBuilt):
		status = http.StatusServiceUnavailable
	case errors.Is(err, entities.ErrEncodingUnavailable):
		status = http.StatusBadGateway
	case errors.As(err, &dimErr):
		status = http.StatusInternalServerError
	}
	log.Printf("[ERROR] %v", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			return
		}
		next.ServeHTTP(w, r)
	})
}
