// Package auth provides API key storage and validation.
//
// Keys are loaded from a text file or from the comma-separated MWPIPE_API_KEYS
// environment variable. Each file line holds a key, optionally followed by
// whitespace and a client name. Lines starting with # are comments.
//
//	# key                 client
//	sk-3f9a0c             billing-service
//	sk-77d1e2
package auth

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// EnvKeys names the environment variable that overrides the keys file.
const EnvKeys = "MWPIPE_API_KEYS"

// ErrInvalidKey is returned when an API key is not recognized.
var ErrInvalidKey = errors.New("invalid api key")

// KeyStore maps API keys to client names.
type KeyStore struct {
	mu   sync.RWMutex
	keys map[string]string
}

// NewKeyStore creates a KeyStore and loads keys from the given file path.
// If MWPIPE_API_KEYS is set, those keys take precedence over the file.
func NewKeyStore(path string) (*KeyStore, error) {
	ks := &KeyStore{keys: make(map[string]string)}

	if env := os.Getenv(EnvKeys); env != "" {
		for _, k := range strings.Split(env, ",") {
			ks.add(k)
		}
		if len(ks.keys) == 0 {
			return nil, errors.New(EnvKeys + " is set but contains no valid keys")
		}
		return ks, nil
	}

	if path == "" {
		return nil, errors.New("no keys file path provided and " + EnvKeys + " is not set")
	}

	if err := ks.loadFile(path); err != nil {
		return nil, fmt.Errorf("load keys file: %w", err)
	}

	if len(ks.keys) == 0 {
		return nil, fmt.Errorf("keys file %q contains no valid keys", path)
	}

	return ks, nil
}

// Lookup returns the client name registered for key. Keys without a name
// resolve to their masked form.
func (ks *KeyStore) Lookup(key string) (string, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	name, ok := ks.keys[key]
	if !ok {
		return "", ErrInvalidKey
	}
	return name, nil
}

// Validate checks whether the given key is authorized.
func (ks *KeyStore) Validate(key string) error {
	_, err := ks.Lookup(key)
	return err
}

// Count returns the number of loaded keys.
func (ks *KeyStore) Count() int {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return len(ks.keys)
}

// Mask shortens a key for logs, keeping only its first and last characters.
func Mask(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func (ks *KeyStore) add(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	key := fields[0]
	name := Mask(key)
	if len(fields) > 1 {
		name = fields[1]
	}
	ks.keys[key] = name
}

// loadFile reads keys from a text file, one per line.
func (ks *KeyStore) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ks.add(line)
	}
	return scanner.Err()
}
