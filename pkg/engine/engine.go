// Package engine wires the catalogue fetcher, record codec and cache manager
// into the offline search lifecycle: setup, pre-warm, query.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pvescout/pvescout/pkg/cache"
	"github.com/pvescout/pvescout/pkg/catalog"
	"github.com/pvescout/pvescout/pkg/codec"
	"github.com/pvescout/pvescout/pkg/config"
	"github.com/pvescout/pvescout/pkg/keys"
	"github.com/pvescout/pvescout/pkg/kvstore"
	"github.com/pvescout/pvescout/pkg/logging"
	"github.com/pvescout/pvescout/pkg/rank"
)

// ScriptURL is the result URL template; the matched record's slug is
// substituted verbatim.
const ScriptURL = "https://community-scripts.github.io/ProxmoxVE/scripts?id=%s"

// Result is one search hit.
type Result struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Engine owns all state for one search engine instance: the store handle,
// the signing key, and the fetch/cache/rank pipeline. Nothing is package
// global; every operation is a method on this state.
type Engine struct {
	cfg *config.Config
	log *logging.Logger

	store   kvstore.Store
	cache   *cache.Manager
	fetcher *catalog.Fetcher
	signing bool
}

// New creates an Engine from configuration. Call Setup before use.
func New(cfg *config.Config, log *logging.Logger) *Engine {
	return &Engine{cfg: cfg, log: log.WithComponent("engine")}
}

// Setup establishes the cache store and integrity key. It reports success as
// a boolean and never panics past this boundary; a false return means the
// host may retry later.
func (e *Engine) Setup() bool {
	var store kvstore.Store
	if e.cfg.Cache.Path == "" {
		store = kvstore.NewMemory()
	} else {
		s, err := kvstore.OpenSQLite(e.cfg.Cache.Path)
		if err != nil {
			e.log.Error("failed to open cache store", map[string]interface{}{
				"path":  e.cfg.Cache.Path,
				"error": err,
			})
			return false
		}
		store = s
	}

	secret := keys.Resolve(keys.Options{
		Secret: e.cfg.Security.Secret,
		EnvVar: config.SecretEnvVar,
		File:   e.cfg.Security.KeyFile,
	}, e.log)
	signingKey := keys.DeriveSigningKey(secret, e.cfg.Engine.Name)
	if signingKey == nil {
		e.log.Warn("no integrity secret resolved; cached entries will not be signed")
	}

	e.store = store
	e.signing = signingKey != nil
	e.cache = cache.NewManager(
		store,
		codec.New(signingKey),
		e.cfg.Engine.Name,
		time.Duration(e.cfg.Cache.TTLHours)*time.Hour,
		e.log,
	)
	e.fetcher = catalog.NewFetcher(
		e.cfg.Fetch.URL,
		time.Duration(e.cfg.Fetch.TimeoutSeconds)*time.Second,
		e.log,
	)
	return true
}

// Init pre-warms the cache by fetching the full catalogue. An empty fetch is
// soft (queries fall back to an inline refetch); only a failure to write the
// cache index reports false.
func (e *Engine) Init(ctx context.Context) bool {
	scripts := e.fetcher.Fetch(ctx)
	if len(scripts) == 0 {
		e.log.Warn("no scripts fetched during init")
		return true
	}
	if _, err := e.cache.Populate(scripts); err != nil {
		e.log.Warn("failed to cache scripts during init", map[string]interface{}{"error": err})
		return false
	}
	return true
}

// Search answers a query entirely from the cache, falling back to one
// synchronous refetch on a full cache miss. It always returns a (possibly
// empty) result list, never an error.
func (e *Engine) Search(ctx context.Context, query string) []Result {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	scripts := e.cache.Ensure(ctx, e.fetcher.Fetch)
	if len(scripts) == 0 {
		return nil
	}

	matches := rank.Rank(scripts, query)
	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			URL:     fmt.Sprintf(ScriptURL, m.Script.Slug),
			Title:   m.Script.Name,
			Content: rank.Summarize(m.Script.Description),
		})
	}
	return results
}

// Signing reports whether cached entries carry integrity signatures.
func (e *Engine) Signing() bool {
	return e.signing
}

// Close releases the cache store.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}
