package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultAPIKeyHeader carries API keys.
const DefaultAPIKeyHeader = "X-API-Key"

// APIKey is a registered key. Only the SHA-256 hash of the key is kept.
type APIKey struct {
	ID        string         `yaml:"id" json:"id"`
	Principal string         `yaml:"principal" json:"principal"`
	Hash      string         `yaml:"hash" json:"-"`
	Scopes    []string       `yaml:"scopes" json:"scopes"`
	ExpiresAt time.Time      `yaml:"expires_at,omitempty" json:"expires_at,omitzero"`
	Metadata  map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// KeyStore looks up keys by hash. Lookup returns (nil, nil) for an
// unknown hash.
type KeyStore interface {
	Lookup(ctx context.Context, hash string) (*APIKey, error)
}

// HashAPIKey returns the hex SHA-256 of key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// MemoryKeyStore is an in-memory KeyStore.
type MemoryKeyStore struct {
	mu   sync.RWMutex
	keys map[string]*APIKey
}

// NewMemoryKeyStore returns a store holding keys.
func NewMemoryKeyStore(keys ...APIKey) *MemoryKeyStore {
	s := &MemoryKeyStore{keys: make(map[string]*APIKey, len(keys))}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

func (s *MemoryKeyStore) Lookup(_ context.Context, hash string) (*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[hash], nil
}

// Add registers k under k.Hash, replacing any key with the same hash.
func (s *MemoryKeyStore) Add(k APIKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[k.Hash] = &k
}

// Remove deletes the key with the given hash.
func (s *MemoryKeyStore) Remove(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, hash)
}

// Len returns the number of registered keys.
func (s *MemoryKeyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// APIKeyConfig configures an APIKeyAuthenticator.
type APIKeyConfig struct {
	// HeaderName is the header carrying the key.
	// Default: "X-API-Key"
	HeaderName string
}

// APIKeyAuthenticator validates keys against a KeyStore.
type APIKeyAuthenticator struct {
	config APIKeyConfig
	store  KeyStore
}

// NewAPIKeyAuthenticator creates an APIKeyAuthenticator.
func NewAPIKeyAuthenticator(config APIKeyConfig, store KeyStore) *APIKeyAuthenticator {
	if config.HeaderName == "" {
		config.HeaderName = DefaultAPIKeyHeader
	}
	return &APIKeyAuthenticator{config: config, store: store}
}

func (a *APIKeyAuthenticator) Name() string { return string(MethodAPIKey) }

func (a *APIKeyAuthenticator) Supports(r *http.Request) bool {
	return r.Header.Get(a.config.HeaderName) != ""
}

func (a *APIKeyAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*Result, error) {
	key := strings.TrimSpace(r.Header.Get(a.config.HeaderName))
	if key == "" {
		return Failure(ErrMissingCredentials, MethodAPIKey), nil
	}

	info, err := a.store.Lookup(ctx, HashAPIKey(key))
	if err != nil {
		return nil, err
	}
	if info == nil {
		return Failure(ErrInvalidCredentials, MethodAPIKey), nil
	}
	if !info.ExpiresAt.IsZero() && time.Now().After(info.ExpiresAt) {
		return Failure(ErrTokenExpired, MethodAPIKey), nil
	}

	claims := make(map[string]any, len(info.Metadata)+1)
	maps.Copy(claims, info.Metadata)
	claims["key_id"] = info.ID

	return Success(&Identity{
		Principal: info.Principal,
		Scopes:    info.Scopes,
		Method:    MethodAPIKey,
		Claims:    claims,
		ExpiresAt: info.ExpiresAt,
	}), nil
}

var (
	_ Authenticator = (*APIKeyAuthenticator)(nil)
	_ KeyStore      = (*MemoryKeyStore)(nil)
)
