/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main runs the repository analyzer API server: index a GitHub
// repository's history into a local vector database, then answer questions
// about it through an LLM tool-calling agent.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainguard.dev/repolens/embed"
	"chainguard.dev/repolens/githubfetch"
	"chainguard.dev/repolens/httpapi"
	"chainguard.dev/repolens/repoagent"
	"github.com/chainguard-dev/clog"
	_ "github.com/chainguard-dev/clog/gcp/init"
	"github.com/chainguard-dev/terraform-infra-common/pkg/httpmetrics"
	"github.com/chainguard-dev/terraform-infra-common/pkg/profiler"
	"github.com/google/go-github/v84/github"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-envconfig"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

type config struct {
	Port        int    `env:"PORT,default=8080"`
	MetricsPort int    `env:"METRICS_PORT,default=2112"`
	EnablePprof bool   `env:"ENABLE_PPROF,default=false"`
	DataDir     string `env:"DATA_DIR,default=./data"`

	// Provider credentials
	GitHubToken     string `env:"GITHUB_TOKEN"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY,required"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`

	// Agent configuration
	Model               string `env:"MODEL,default=claude-sonnet-4-20250514"`
	MaxIterations       int    `env:"MAX_ITERATIONS,default=10"`
	TokenBudget         int    `env:"TOKEN_BUDGET,default=120000"`
	MaxToolResultTokens int    `env:"MAX_TOOL_RESULT_TOKENS,default=15000"`

	// Snapshot bounds
	MaxCommits      int `env:"MAX_COMMITS,default=50"`
	MaxPullRequests int `env:"MAX_PULL_REQUESTS,default=100"`
	MaxFiles        int `env:"MAX_FILES,default=500"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go httpmetrics.ScrapeDiskUsage(ctx)
	profiler.SetupProfiler()
	defer httpmetrics.SetupTracer(ctx)()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.FatalContextf(ctx, "processing config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		clog.FatalContextf(ctx, "creating data dir: %v", err)
	}

	limits := githubfetch.DefaultLimits()
	limits.MaxCommits = cfg.MaxCommits
	limits.MaxPullRequests = cfg.MaxPullRequests
	limits.MaxFiles = cfg.MaxFiles
	fetcher := githubfetch.New(ctx, cfg.GitHubToken, githubfetch.WithLimits(limits))

	engine := embed.NewOpenAI(openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey)))

	gh, ghv4 := githubClients(ctx, cfg.GitHubToken)
	if cfg.GitHubToken == "" {
		clog.WarnContextf(ctx, "GITHUB_TOKEN not set, using unauthenticated GitHub client")
	}

	indexer := newPipeline(fetcher, engine, gh, ghv4, cfg.DataDir, repoagent.Config{
		Model:               cfg.Model,
		AnthropicAPIKey:     cfg.AnthropicAPIKey,
		GeminiAPIKey:        cfg.GeminiAPIKey,
		MaxIterations:       cfg.MaxIterations,
		TokenBudget:         cfg.TokenBudget,
		MaxToolResultTokens: cfg.MaxToolResultTokens,
	})

	go serveMetrics(ctx, cfg.MetricsPort, cfg.EnablePprof)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpapi.NewServer(indexer).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			clog.ErrorContextf(ctx, "shutting down server: %v", err)
		}
	}()

	clog.InfoContextf(ctx, "Starting repository analyzer on port %d (model=%s)", cfg.Port, cfg.Model)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		clog.FatalContextf(ctx, "server failed: %v", err)
	}
}

// githubClients builds the REST and GraphQL clients. Without a token the
// GraphQL client is omitted since the v4 API rejects anonymous requests.
func githubClients(ctx context.Context, token string) (*github.Client, *githubv4.Client) {
	if token == "" {
		return github.NewClient(nil), nil
	}
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	return github.NewClient(hc), githubv4.NewClient(hc)
}

func serveMetrics(ctx context.Context, port int, enablePprof bool) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if enablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	clog.InfoContextf(ctx, "Starting metrics server on port %d", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		clog.ErrorContextf(ctx, "metrics server failed: %v", err)
	}
}
