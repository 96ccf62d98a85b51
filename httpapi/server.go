/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package httpapi serves the repository analyzer's HTTP surface: indexing
// with SSE progress, question answering, and registry introspection.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"chainguard.dev/repolens/githubfetch"
	"chainguard.dev/repolens/repoagent"
	"github.com/chainguard-dev/clog"
)

// Agent answers questions about one indexed repository.
type Agent interface {
	Query(ctx context.Context, question string) (*repoagent.Answer, error)
}

// Indexer runs the indexing pipeline for one repository and returns a ready
// agent. It reports stage milestones through progress as it goes.
type Indexer interface {
	Index(ctx context.Context, owner, repo string, progress func(message string, percent int)) (Agent, error)
}

// Server is the HTTP API over an in-memory registry of indexed repositories.
type Server struct {
	indexer Indexer

	mu     sync.RWMutex
	agents map[string]Agent // keyed by "owner/repo"
}

// NewServer creates a server with an empty registry.
func NewServer(indexer Indexer) *Server {
	return &Server{
		indexer: indexer,
		agents:  make(map[string]Agent),
	}
}

// Handler returns the route mux for the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /index", s.handleIndex)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /indexed", s.handleIndexed)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	return mux
}

type indexRequest struct {
	RepoURL string `json:"repo_url"`
}

type queryRequest struct {
	RepoURL  string `json:"repo_url"`
	Question string `json:"question"`
}

// progressEvent is an SSE progress or completion payload.
type progressEvent struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Percent  int    `json:"percent"`
	RepoName string `json:"repo_name,omitempty"`
}

// errorEvent is an SSE failure payload; it carries no percent.
type errorEvent struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := clog.FromContext(ctx)

	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		indexCounter.WithLabelValues(outcomeError).Inc()
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	owner, repo, err := githubfetch.ParseRepoURL(req.RepoURL)
	if err != nil {
		indexCounter.WithLabelValues(outcomeError).Inc()
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	repoName := owner + "/" + repo

	flusher, ok := w.(http.Flusher)
	if !ok {
		indexCounter.WithLabelValues(outcomeError).Inc()
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	emit := func(v any) {
		data, err := json.Marshal(v)
		if err != nil {
			log.With("error", err).Error("Failed to marshal SSE event")
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	emit(progressEvent{Status: "progress", Message: "Starting indexing...", Percent: 0})

	agent, err := s.indexer.Index(ctx, owner, repo, func(message string, percent int) {
		emit(progressEvent{Status: "progress", Message: message, Percent: percent})
	})
	if err != nil {
		log.With("repository", repoName).With("error", err).Error("Indexing failed")
		indexCounter.WithLabelValues(outcomeError).Inc()
		emit(errorEvent{Status: "error", Message: err.Error()})
		return
	}

	s.register(repoName, agent)
	indexCounter.WithLabelValues(outcomeSuccess).Inc()
	log.With("repository", repoName).Info("Repository indexed")

	emit(progressEvent{
		Status:   "complete",
		Message:  fmt.Sprintf("Successfully indexed %s", repoName),
		Percent:  100,
		RepoName: repoName,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := clog.FromContext(ctx)

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		queryCounter.WithLabelValues(outcomeError).Inc()
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	owner, repo, err := githubfetch.ParseRepoURL(req.RepoURL)
	if err != nil {
		queryCounter.WithLabelValues(outcomeError).Inc()
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	repoName := owner + "/" + repo

	agent, ok := s.lookup(repoName)
	if !ok {
		queryCounter.WithLabelValues(outcomeNotIndexed).Inc()
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":         fmt.Sprintf("Repository %s not indexed. Please index it first.", repoName),
			"indexed_repos": s.list(),
		})
		return
	}

	answer, err := agent.Query(ctx, req.Question)
	if err != nil {
		log.With("repository", repoName).With("error", err).Error("Query failed")
		queryCounter.WithLabelValues(outcomeError).Inc()
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	queryCounter.WithLabelValues(outcomeSuccess).Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"answer":    answer.Answer,
		"sources":   answer.Sources,
		"repo_name": repoName,
	})
}

func (s *Server) handleIndexed(w http.ResponseWriter, _ *http.Request) {
	repos := s.list()
	writeJSON(w, http.StatusOK, map[string]any{
		"indexed_repos": repos,
		"count":         len(repos),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Repository Analyzer API",
		"indexed_repos": s.list(),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// register stores the agent, replacing any previous entry for the repo.
func (s *Server) register(repoName string, agent Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[repoName] = agent
	indexedReposGauge.Set(float64(len(s.agents)))
}

func (s *Server) lookup(repoName string) (Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agent, ok := s.agents[repoName]
	return agent, ok
}

func (s *Server) list() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	repos := make([]string, 0, len(s.agents))
	for name := range s.agents {
		repos = append(repos, name)
	}
	sort.Strings(repos)
	return repos
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// The client is gone if this fails; nothing useful to do.
	_ = json.NewEncoder(w).Encode(v)
}
