package slug

import (
	"regexp"
	"strings"
	"testing"
)

func TestMake(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Docker LXC", "docker-lxc"},
		{"already normalized", "home-assistant", "home-assistant"},
		{"accents stripped", "Café Résumé", "cafe-resume"},
		{"separator runs collapse", "foo -- bar__baz", "foo-bar-baz"},
		{"leading and trailing trimmed", "  --Hello World--  ", "hello-world"},
		{"punctuation", "Node.js (LTS)!", "node-js-lts"},
		{"digits kept", "PiHole v6", "pihole-v6"},
		{"empty", "", ""},
		{"only separators", "--- ___ !!!", ""},
		{"unicode with no ascii base", "日本語", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Make(tc.in); got != tc.want {
				t.Errorf("Make(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestMakeTruncation(t *testing.T) {
	long := strings.Repeat("abcde-", 20)
	got := Make(long)
	if len(got) > MaxLen {
		t.Errorf("length %d exceeds %d", len(got), MaxLen)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("truncated slug ends with hyphen: %q", got)
	}
}

func TestMakeShape(t *testing.T) {
	// Every output is empty or matches the slug shape, regardless of input.
	shape := regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	inputs := []string{
		"Plain", "UPPER CASE", "with\ttabs\nand newlines", "émöjï 🚀 test",
		"a", "-", "123", "mixed_Case-Ünïcode", strings.Repeat("x", 500),
		"trailing space ", " leading", "dots...everywhere...",
	}
	for _, in := range inputs {
		got := Make(in)
		if got == "" {
			continue
		}
		if !shape.MatchString(got) {
			t.Errorf("Make(%q) = %q does not match slug shape", in, got)
		}
		if len(got) > MaxLen {
			t.Errorf("Make(%q) length %d exceeds %d", in, len(got), MaxLen)
		}
	}
}
