// Package codec serializes script records for cache storage: canonical JSON,
// zlib compression, and an optional HMAC-SHA256 integrity prefix.
package codec

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/pvescout/pvescout/pkg/catalog"
)

// MaxValueSize is the largest encoded record the cache store will accept.
const MaxValueSize = 10240

// compressionLevel trades speed for size; matches zlib's balanced setting.
const compressionLevel = 6

// Sentinel errors for the distinct per-record failure modes. Callers treat
// each as "this record is unusable", never as a fatal condition.
var (
	ErrIntegrity = errors.New("codec: integrity verification failed")
	ErrCorrupt   = errors.New("codec: corrupt payload")
	ErrMalformed = errors.New("codec: malformed record")
	ErrTooLarge  = errors.New("codec: encoded record too large")
)

// Codec encodes and decodes script records. With a non-empty key, payloads
// carry a leading HMAC-SHA256 over the compressed bytes; with no key they are
// plain compressed bytes.
type Codec struct {
	key []byte
}

// New creates a Codec. A nil or empty key disables integrity signing.
func New(key []byte) *Codec {
	return &Codec{key: key}
}

// Signing reports whether payloads are integrity-protected.
func (c *Codec) Signing() bool {
	return len(c.key) > 0
}

// Encode serializes, compresses and optionally signs a script record.
// Returns ErrTooLarge if the result exceeds MaxValueSize.
func (c *Codec) Encode(script catalog.Script) ([]byte, error) {
	var payload bytes.Buffer
	enc := json.NewEncoder(&payload)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(script); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var compressed bytes.Buffer
	zw, err := zlib.NewWriterLevel(&compressed, compressionLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if _, err := zw.Write(bytes.TrimRight(payload.Bytes(), "\n")); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	out := compressed.Bytes()
	if c.Signing() {
		mac := hmac.New(sha256.New, c.key)
		mac.Write(out)
		out = append(mac.Sum(nil), out...)
	}

	if len(out) > MaxValueSize {
		return nil, fmt.Errorf("%w: %d bytes (slug %s)", ErrTooLarge, len(out), script.Slug)
	}
	return out, nil
}

// Decode verifies, decompresses and deserializes a cached payload. The MAC
// comparison is constant-time.
func (c *Codec) Decode(data []byte) (catalog.Script, error) {
	compressed := data
	if c.Signing() {
		if len(data) < sha256.Size {
			return catalog.Script{}, fmt.Errorf("%w: payload shorter than MAC", ErrIntegrity)
		}
		tag, rest := data[:sha256.Size], data[sha256.Size:]
		mac := hmac.New(sha256.New, c.key)
		mac.Write(rest)
		if !hmac.Equal(tag, mac.Sum(nil)) {
			return catalog.Script{}, ErrIntegrity
		}
		compressed = rest
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return catalog.Script{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()
	payload, err := io.ReadAll(zr)
	if err != nil {
		return catalog.Script{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var script catalog.Script
	if err := json.Unmarshal(payload, &script); err != nil {
		return catalog.Script{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return script, nil
}
