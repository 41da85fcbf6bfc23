// Package keys provisions the integrity secret used to sign cached records.
package keys

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/hkdf"

	"github.com/pvescout/pvescout/pkg/logging"
)

// KeySize is the size of generated secrets and derived signing keys.
const KeySize = 32

// Options describes where a secret may come from, in precedence order:
// explicit config value, environment variable, persisted key file, fresh
// generation.
type Options struct {
	Secret string // explicit value from configuration
	EnvVar string // name of the environment variable to consult
	File   string // path of the persisted key file
}

// Resolve returns the integrity secret per the Options precedence. When no
// source provides one, a fresh random secret is generated and best-effort
// persisted to Options.File so later processes can verify entries signed now.
// Persistence failure is logged and the in-memory secret is used anyway; a
// nil return (random source exhausted) disables signing entirely.
func Resolve(opts Options, log *logging.Logger) []byte {
	log = log.WithComponent("keys")

	if opts.Secret != "" {
		return []byte(opts.Secret)
	}

	if opts.EnvVar != "" {
		if v := os.Getenv(opts.EnvVar); v != "" {
			return []byte(v)
		}
	}

	if opts.File != "" {
		if data, err := os.ReadFile(opts.File); err == nil && len(data) > 0 {
			return data
		}
	}

	secret := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		log.Error("failed to generate integrity secret, signing disabled", map[string]interface{}{"error": err})
		return nil
	}

	if opts.File != "" {
		if err := persist(opts.File, secret); err != nil {
			log.Warn("failed to persist integrity secret, using in-memory key for this process", map[string]interface{}{
				"path":  opts.File,
				"error": err,
			})
		}
	}
	return secret
}

// DeriveSigningKey stretches a secret of any length into a uniform signing
// key bound to the given namespace, so distinct engine instances sharing one
// secret never share signing keys. A nil secret derives to nil.
func DeriveSigningKey(secret []byte, namespace string) []byte {
	if len(secret) == 0 {
		return nil
	}
	r := hkdf.New(sha256.New, secret, nil, []byte("pvescout cache signing:"+namespace))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil
	}
	return key
}

func persist(path string, secret []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(path, secret, 0o600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}
