// Package cache owns the expiring key/value namespace holding the script
// catalogue: one signed entry per record plus an index entry listing all
// live slugs.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pvescout/pvescout/pkg/catalog"
	"github.com/pvescout/pvescout/pkg/codec"
	"github.com/pvescout/pvescout/pkg/kvstore"
	"github.com/pvescout/pvescout/pkg/logging"
)

// DefaultTTL is the fixed lifetime of cached catalogue entries.
const DefaultTTL = 12 * time.Hour

// FetchFunc produces a fresh catalogue; used on full cache misses.
type FetchFunc func(ctx context.Context) []catalog.Script

// Manager reads and writes the cached catalogue. A refresh rewrites the full
// set; entries expire passively via the store's TTL.
type Manager struct {
	store kvstore.Store
	codec *codec.Codec
	ns    string
	ttl   time.Duration
	log   *logging.Logger

	// flight collapses concurrent fallback refetches into one upstream
	// call. The original design tolerated redundant concurrent refetches;
	// collapsing them is a documented deviation.
	flight singleflight.Group
}

// NewManager creates a Manager over the given store, namespaced by ns.
func NewManager(store kvstore.Store, c *codec.Codec, ns string, ttl time.Duration, log *logging.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store: store,
		codec: c,
		ns:    ns,
		ttl:   ttl,
		log:   log.WithComponent("cache"),
	}
}

func (m *Manager) recordKey(slug string) string {
	return m.ns + ":script:" + slug
}

func (m *Manager) indexKey() string {
	return m.ns + ":slugs"
}

// Populate encodes and stores each record individually, then writes the slug
// index. Records that cannot be encoded or stored are skipped with a warning;
// only slugs actually stored make it into the index. Returns the number of
// records cached; the error is non-nil only when the index itself could not
// be written.
func (m *Manager) Populate(scripts []catalog.Script) (int, error) {
	slugs := make([]string, 0, len(scripts))
	for _, script := range scripts {
		if script.Slug == "" {
			m.log.Warn("skipping script with no slug", map[string]interface{}{"name": script.Name})
			continue
		}

		blob, err := m.codec.Encode(script)
		if err != nil {
			m.log.Warn("skipping script that failed to encode", map[string]interface{}{
				"slug":  script.Slug,
				"error": err,
			})
			continue
		}

		if err := m.store.Set(m.recordKey(script.Slug), blob, m.ttl); err != nil {
			m.log.Warn("failed to store script", map[string]interface{}{
				"slug":  script.Slug,
				"error": err,
			})
			continue
		}
		slugs = append(slugs, script.Slug)
	}

	index, err := json.Marshal(slugs)
	if err != nil {
		return len(slugs), fmt.Errorf("failed to marshal slug index: %w", err)
	}
	if err := m.store.Set(m.indexKey(), index, m.ttl); err != nil {
		return len(slugs), fmt.Errorf("failed to store slug index: %w", err)
	}

	m.log.Debug("cached scripts", map[string]interface{}{"count": len(slugs)})
	return len(slugs), nil
}

// Read reconstructs the catalogue from the cache. An absent, empty or
// unparseable index is a full miss (nil). Individual records that are
// missing, tampered or corrupt are counted as misses but do not abort the
// read; the result may be a strict subset of the index. When no record
// survives, Read reports a full miss.
func (m *Manager) Read() []catalog.Script {
	raw, ok, err := m.store.Get(m.indexKey())
	if err != nil {
		m.log.Warn("failed to read slug index", map[string]interface{}{"error": err})
		return nil
	}
	if !ok {
		return nil
	}

	var slugs []string
	if err := json.Unmarshal(raw, &slugs); err != nil {
		m.log.Warn("slug index is malformed", map[string]interface{}{"error": err})
		return nil
	}
	if len(slugs) == 0 {
		return nil
	}

	scripts := make([]catalog.Script, 0, len(slugs))
	missed := 0
	for _, slug := range slugs {
		blob, ok, err := m.store.Get(m.recordKey(slug))
		if err != nil || !ok {
			m.log.Warn("script missing from cache", map[string]interface{}{"slug": slug})
			missed++
			continue
		}

		script, err := m.codec.Decode(blob)
		if err != nil {
			m.log.Warn("failed to decode cached script", map[string]interface{}{
				"slug":  slug,
				"error": err,
			})
			missed++
			continue
		}
		scripts = append(scripts, script)
	}

	if len(scripts) == 0 {
		m.log.Warn("no cached scripts were usable", map[string]interface{}{"indexed": len(slugs)})
		return nil
	}
	if missed > 0 {
		m.log.Warn("recovered partial catalogue from cache", map[string]interface{}{
			"recovered": len(scripts),
			"missed":    missed,
		})
	}
	return scripts
}

// Ensure returns the cached catalogue, falling back to a synchronous fetch
// and repopulate on a full miss. Concurrent callers missing at the same time
// share a single fetch. A failed fetch yields nil without error.
func (m *Manager) Ensure(ctx context.Context, fetch FetchFunc) []catalog.Script {
	if scripts := m.Read(); len(scripts) > 0 {
		return scripts
	}

	v, _, _ := m.flight.Do(m.ns, func() (interface{}, error) {
		// Another caller may have repopulated while we waited.
		if scripts := m.Read(); len(scripts) > 0 {
			return scripts, nil
		}
		scripts := fetch(ctx)
		if len(scripts) == 0 {
			return []catalog.Script(nil), nil
		}
		if _, err := m.Populate(scripts); err != nil {
			m.log.Warn("failed to repopulate cache after fallback fetch", map[string]interface{}{"error": err})
		}
		return scripts, nil
	})
	scripts, _ := v.([]catalog.Script)
	return scripts
}
