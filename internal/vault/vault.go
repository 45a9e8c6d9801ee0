// internal/vault/vault.go
//
// Vault client wrapper for nutshell.
//
// Context
// -------
//   - Wraps the HashiCorp Vault Go SDK for the one job nutshell needs it
//     for: turning `vault:<mount>/<path>#<key>` config references into
//     plain strings at boot.
//   - Adds simple KV-v2 reads and a per-key TTL cache, so several config
//     fields pointing at the same secret cost one round trip.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New()                    // only if a ref is present.
//  2. pw,  err := cli.Resolve(ctx, cfg.Password) // literal values pass through.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – token (falls back to ~/.vault-token via the SDK).
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
)

// RefPrefix marks a config value that must be fetched from Vault.
const RefPrefix = "vault:"

// cacheTTL bounds how long a fetched secret is reused.
const cacheTTL = 5 * time.Minute

// IsRef reports whether s is a Vault reference.
func IsRef(s string) bool { return strings.HasPrefix(s, RefPrefix) }

//
// SECTION 1.  Client
//

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	api *vault.Client

	cacheMu sync.RWMutex
	cache   map[string]cached // path#key → value + expiry
}

type cached struct {
	val string
	exp time.Time
}

// New builds a client from the standard VAULT_* environment.
func New() (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	return &Client{api: api, cache: make(map[string]cached)}, nil
}

// Resolve returns s unchanged unless it is a Vault reference, in which case
// the referenced KV-v2 value is fetched.
func (c *Client) Resolve(ctx context.Context, s string) (string, error) {
	if !IsRef(s) {
		return s, nil
	}
	path, key, err := ParseRef(s)
	if err != nil {
		return "", err
	}
	return c.GetKV(ctx, path, key)
}

// GetKV fetches one key from a KV-v2 secret, serving from cache within
// cacheTTL.
func (c *Client) GetKV(ctx context.Context, secretPath, key string) (string, error) {
	canonical := secretPath + "#" + key

	c.cacheMu.RLock()
	if cv, ok := c.cache[canonical]; ok && time.Now().Before(cv.exp) {
		c.cacheMu.RUnlock()
		return cv.val, nil
	}
	c.cacheMu.RUnlock()

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s is not a string", canonical)
	}

	c.cacheMu.Lock()
	c.cache[canonical] = cached{val: sval, exp: time.Now().Add(cacheTTL)}
	c.cacheMu.Unlock()
	return sval, nil
}

//
// SECTION 2.  Helpers
//

// ParseRef splits `vault:<mount>/<path>#<key>` into its secret path and key.
func ParseRef(ref string) (path, key string, err error) {
	body := strings.TrimPrefix(ref, RefPrefix)
	i := strings.LastIndexByte(body, '#')
	if i <= 0 || i == len(body)-1 {
		return "", "", errors.New("vault ref must look like vault:<mount>/<path>#<key>")
	}
	path, key = body[:i], body[i+1:]
	if !strings.Contains(path, "/") {
		return "", "", fmt.Errorf("vault ref %q has no mount", ref)
	}
	return path, key, nil
}

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return mount, rel
}
