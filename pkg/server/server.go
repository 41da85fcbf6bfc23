// Package server exposes the search engine over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pvescout/pvescout/pkg/engine"
	"github.com/pvescout/pvescout/pkg/logging"
)

// SearchResponse is the JSON body returned by the search endpoint.
type SearchResponse struct {
	Query   string          `json:"query"`
	Count   int             `json:"count"`
	Results []engine.Result `json:"results"`
}

// Server serves search queries against one engine instance.
type Server struct {
	engine *engine.Engine
	log    *logging.Logger
}

// New creates a Server around an already set-up engine.
func New(e *engine.Engine, log *logging.Logger) *Server {
	return &Server{engine: e, log: log.WithComponent("server")}
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/search", s.handleSearch).Methods("GET")
	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	return router
}

// ListenAndServe blocks serving HTTP on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		// Searches may block on a fallback refetch with a 30s fetch
		// timeout; leave headroom.
		WriteTimeout: 60 * time.Second,
	}
	s.log.Info("listening", map[string]interface{}{"addr": addr})
	return srv.ListenAndServe()
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	results := s.engine.Search(r.Context(), query)
	if results == nil {
		results = []engine.Result{}
	}
	s.writeJSON(w, SearchResponse{
		Query:   query,
		Count:   len(results),
		Results: results,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("failed to encode response", map[string]interface{}{"error": err})
	}
}
