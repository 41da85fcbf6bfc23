// Package catalog fetches and normalizes the community-scripts catalogue.
package catalog

// Script is the catalogue's atomic unit: one installation script's metadata.
// Name and Slug are always non-empty, and Slug is unique within one fetch.
type Script struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// SkipReason classifies why a source element was dropped during flattening.
type SkipReason string

const (
	SkipBadCategory    SkipReason = "malformed category"
	SkipBadScriptsList SkipReason = "malformed scripts list"
	SkipBadScript      SkipReason = "malformed script"
	SkipBadNameSlug    SkipReason = "invalid name or slug"
	SkipEmptyNameSlug  SkipReason = "empty name or slug"
	SkipDisabled       SkipReason = "disabled"
)

// Skip records one element dropped during flattening, for diagnostics.
type Skip struct {
	Reason SkipReason
	Detail string
}
