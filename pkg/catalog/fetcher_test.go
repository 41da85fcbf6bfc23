package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pvescout/pvescout/pkg/logging"
)

func testLogger() *logging.Logger {
	return logging.New(logging.ErrorLevel, nil)
}

func TestFlatten(t *testing.T) {
	t.Run("valid catalogue", func(t *testing.T) {
		body := `[
			{"name": "Containers", "scripts": [
				{"name": "Docker LXC", "slug": "docker", "description": "Runs Docker"},
				{"name": "PiHole", "slug": "pihole"}
			]},
			{"name": "VMs", "scripts": [
				{"name": "HomeAssistant", "slug": "homeassistant", "type": "vm"}
			]}
		]`
		scripts, skipped := Flatten([]byte(body))
		if len(skipped) != 0 {
			t.Fatalf("unexpected skips: %+v", skipped)
		}
		if len(scripts) != 3 {
			t.Fatalf("got %d scripts, want 3", len(scripts))
		}
		if scripts[0].Slug != "docker" || scripts[0].Description != "Runs Docker" {
			t.Errorf("unexpected first script: %+v", scripts[0])
		}
		if scripts[1].Description != "" {
			t.Errorf("missing description should be empty, got %q", scripts[1].Description)
		}
	})

	t.Run("root not an array", func(t *testing.T) {
		scripts, skipped := Flatten([]byte(`{"scripts": []}`))
		if scripts != nil || len(skipped) != 1 {
			t.Fatalf("got scripts=%v skipped=%v", scripts, skipped)
		}
	})

	t.Run("malformed elements are skipped", func(t *testing.T) {
		body := `[
			"not a category",
			{"scripts": "not a list"},
			{"scripts": [
				"not a script",
				{"name": 42, "slug": "bad-name"},
				{"name": "Good", "slug": "good"}
			]}
		]`
		scripts, skipped := Flatten([]byte(body))
		if len(scripts) != 1 || scripts[0].Slug != "good" {
			t.Fatalf("got %+v, want single good script", scripts)
		}
		if len(skipped) != 4 {
			t.Fatalf("got %d skips, want 4: %+v", len(skipped), skipped)
		}
	})

	t.Run("category without scripts is fine", func(t *testing.T) {
		scripts, skipped := Flatten([]byte(`[{"name": "Empty"}]`))
		if len(scripts) != 0 || len(skipped) != 0 {
			t.Fatalf("got scripts=%v skipped=%v", scripts, skipped)
		}
	})

	t.Run("disabled scripts are excluded", func(t *testing.T) {
		body := `[{"scripts": [
			{"name": "Hidden", "slug": "hidden", "disable": true},
			{"name": "Shown", "slug": "shown", "disable": false}
		]}]`
		scripts, _ := Flatten([]byte(body))
		if len(scripts) != 1 || scripts[0].Slug != "shown" {
			t.Fatalf("got %+v, want only shown", scripts)
		}
	})

	t.Run("slug collisions get numeric suffixes", func(t *testing.T) {
		body := `[{"scripts": [
			{"name": "First", "slug": "dup"},
			{"name": "Second", "slug": "dup"},
			{"name": "Third", "slug": "DUP!"}
		]}]`
		scripts, _ := Flatten([]byte(body))
		if len(scripts) != 3 {
			t.Fatalf("got %d scripts, want 3", len(scripts))
		}
		want := []string{"dup", "dup-1", "dup-2"}
		for i, w := range want {
			if scripts[i].Slug != w {
				t.Errorf("script %d slug = %q, want %q", i, scripts[i].Slug, w)
			}
		}
	})

	t.Run("disabled script still reserves its slug", func(t *testing.T) {
		body := `[{"scripts": [
			{"name": "Hidden", "slug": "dup", "disable": true},
			{"name": "Second", "slug": "dup"}
		]}]`
		scripts, _ := Flatten([]byte(body))
		if len(scripts) != 1 || scripts[0].Slug != "dup-1" {
			t.Fatalf("got %+v, want single dup-1", scripts)
		}
	})

	t.Run("name is trimmed and must be non-empty", func(t *testing.T) {
		body := `[{"scripts": [
			{"name": "  Padded  ", "slug": "padded"},
			{"name": "   ", "slug": "blank-name"},
			{"name": "No Slug", "slug": "!!!"}
		]}]`
		scripts, skipped := Flatten([]byte(body))
		if len(scripts) != 1 || scripts[0].Name != "Padded" {
			t.Fatalf("got %+v, want single Padded", scripts)
		}
		if len(skipped) != 2 {
			t.Fatalf("got %d skips, want 2", len(skipped))
		}
	})

	t.Run("description truncated to 500 characters", func(t *testing.T) {
		long := strings.Repeat("x", 900)
		body := `[{"scripts": [{"name": "Big", "slug": "big", "description": "` + long + `"}]}]`
		scripts, _ := Flatten([]byte(body))
		if len(scripts) != 1 {
			t.Fatalf("got %d scripts", len(scripts))
		}
		if got := len(scripts[0].Description); got != MaxDescriptionLen {
			t.Errorf("description length %d, want %d", got, MaxDescriptionLen)
		}
	})
}

func TestFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"scripts": [{"name": "Docker LXC", "slug": "docker"}]}]`))
		}))
		defer srv.Close()

		f := NewFetcher(srv.URL, 0, testLogger())
		scripts := f.Fetch(ctx)
		if len(scripts) != 1 || scripts[0].Slug != "docker" {
			t.Fatalf("got %+v", scripts)
		}
	})

	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		f := NewFetcher(srv.URL, 0, testLogger())
		if scripts := f.Fetch(ctx); scripts != nil {
			t.Fatalf("got %+v, want nil", scripts)
		}
	})

	t.Run("invalid JSON body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		f := NewFetcher(srv.URL, 0, testLogger())
		if scripts := f.Fetch(ctx); scripts != nil {
			t.Fatalf("got %+v, want nil", scripts)
		}
	})

	t.Run("transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // connection refused

		f := NewFetcher(srv.URL, 0, testLogger())
		if scripts := f.Fetch(ctx); scripts != nil {
			t.Fatalf("got %+v, want nil", scripts)
		}
	})
}
