package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pvescout/pvescout/pkg/logging"
	"github.com/pvescout/pvescout/pkg/slug"
)

const (
	// DefaultURL is the community-scripts static category API.
	DefaultURL = "https://community-scripts.github.io/ProxmoxVE/api/categories"

	// DefaultTimeout bounds one catalogue fetch.
	DefaultTimeout = 30 * time.Second

	// MaxDescriptionLen caps the stored description length in characters.
	MaxDescriptionLen = 500

	// maxBodySize bounds how much of the response body is read.
	maxBodySize = 16 << 20
)

// Fetcher retrieves the remote category list and flattens it into a
// deduplicated list of Script records. All failure modes are soft: Fetch
// logs and returns an empty list, never an error.
type Fetcher struct {
	client *http.Client
	url    string
	log    *logging.Logger
}

// NewFetcher creates a Fetcher for the given endpoint. A zero timeout falls
// back to DefaultTimeout.
func NewFetcher(url string, timeout time.Duration, log *logging.Logger) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		url:    url,
		log:    log.WithComponent("fetcher"),
	}
}

// Fetch issues one blocking request to the catalogue endpoint and returns the
// flattened, deduplicated script list. Transport errors, non-200 statuses and
// unparseable bodies yield an empty list.
func (f *Fetcher) Fetch(ctx context.Context) []Script {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		f.log.Warn("failed to build catalogue request", map[string]interface{}{"error": err})
		return nil
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Warn("failed to fetch catalogue", map[string]interface{}{"error": err})
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.log.Warn("unexpected catalogue API status", map[string]interface{}{"status": resp.StatusCode})
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		f.log.Warn("failed to read catalogue body", map[string]interface{}{"error": err})
		return nil
	}

	scripts, skipped := Flatten(body)
	for _, s := range skipped {
		f.log.Warn("skipping catalogue element", map[string]interface{}{
			"reason": string(s.Reason),
			"detail": s.Detail,
		})
	}
	f.log.Debug("fetched catalogue", map[string]interface{}{
		"scripts": len(scripts),
		"skipped": len(skipped),
	})
	return scripts
}

// Flatten validates and flattens a raw categories payload into Script
// records, in source order. Malformed elements at any nesting level are
// skipped and reported; Flatten itself never fails.
func Flatten(body []byte) ([]Script, []Skip) {
	var categories []json.RawMessage
	if err := json.Unmarshal(body, &categories); err != nil {
		return nil, []Skip{{Reason: SkipBadCategory, Detail: "root is not an array"}}
	}

	var (
		scripts []Script
		skipped []Skip
		seen    = make(map[string]bool)
	)
	for i, rawCategory := range categories {
		var category map[string]json.RawMessage
		if err := json.Unmarshal(rawCategory, &category); err != nil {
			skipped = append(skipped, Skip{Reason: SkipBadCategory, Detail: fmt.Sprintf("category %d", i)})
			continue
		}

		rawScripts, ok := category["scripts"]
		if !ok {
			continue
		}
		var entries []json.RawMessage
		if err := json.Unmarshal(rawScripts, &entries); err != nil {
			skipped = append(skipped, Skip{Reason: SkipBadScriptsList, Detail: fmt.Sprintf("category %d", i)})
			continue
		}

		for _, rawScript := range entries {
			record, skip := flattenScript(rawScript, seen)
			if skip != nil {
				skipped = append(skipped, *skip)
				continue
			}
			scripts = append(scripts, record)
		}
	}
	return scripts, skipped
}

// flattenScript validates a single source script entry. The seen set is
// updated with the record's slug even when the script turns out to be
// disabled, so a disabled script still reserves its slug for collision
// suffixing, matching the upstream catalogue behavior.
func flattenScript(raw json.RawMessage, seen map[string]bool) (Script, *Skip) {
	var entry map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Script{}, &Skip{Reason: SkipBadScript, Detail: "not an object"}
	}

	name, nameOK := stringField(entry, "name")
	rawSlug, slugOK := stringField(entry, "slug")
	if !nameOK || !slugOK {
		return Script{}, &Skip{Reason: SkipBadNameSlug, Detail: fmt.Sprintf("name=%q slug=%q", name, rawSlug)}
	}

	name = strings.TrimSpace(name)
	s := slug.Make(rawSlug)
	if name == "" || s == "" {
		return Script{}, &Skip{Reason: SkipEmptyNameSlug, Detail: fmt.Sprintf("slug=%q", rawSlug)}
	}

	base := s
	for counter := 1; seen[s]; counter++ {
		s = fmt.Sprintf("%s-%d", base, counter)
	}
	seen[s] = true

	if disabled, _ := boolField(entry, "disable"); disabled {
		return Script{}, &Skip{Reason: SkipDisabled, Detail: s}
	}

	description, _ := stringField(entry, "description")
	if runes := []rune(description); len(runes) > MaxDescriptionLen {
		description = string(runes[:MaxDescriptionLen])
	}

	return Script{Name: name, Slug: s, Description: description}, nil
}

func stringField(entry map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := entry[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func boolField(entry map[string]json.RawMessage, key string) (bool, bool) {
	raw, ok := entry[key]
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}
