package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// FingerprintBytes is how many bytes of the SHA-256 digest a key keeps.
const FingerprintBytes = 12

// Keyer derives a cache key from a request.
//
// Contract:
// - Determinism: equal requests map to equal keys whatever the map
// iteration order.
// - Concurrency: implementations are safe for concurrent use.
type Keyer interface {
	Key(namespace string, request any) (string, error)
}

// FingerprintKeyer hashes the canonical JSON form of a request. Object
// keys are sorted at every depth; array order is kept.
type FingerprintKeyer struct {
	// Prefix starts every key.
	// Default: "gptshell"
	Prefix string
}

// NewFingerprintKeyer returns a keyer with the default prefix.
func NewFingerprintKeyer() *FingerprintKeyer {
	return &FingerprintKeyer{Prefix: "gptshell"}
}

// Key returns "<prefix>:<namespace>:<hex digest>".
func (k *FingerprintKeyer) Key(namespace string, request any) (string, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, request); err != nil {
		return "", fmt.Errorf("cache: fingerprint %s: %w", namespace, err)
	}
	sum := sha256.Sum256(buf.Bytes())

	prefix := k.Prefix
	if prefix == "" {
		prefix = "gptshell"
	}
	return prefix + ":" + namespace + ":" + hex.EncodeToString(sum[:FingerprintBytes]), nil
}

// NormalizeInput trims the text and collapses internal whitespace runs to
// single spaces, so requests differing only in spacing share a fingerprint.
// Case is preserved; file names are case sensitive.
func NormalizeInput(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		return writeObject(buf, val)
	case map[string]string:
		return writeObject(buf, val)
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}

func writeObject[V any](buf *bytes.Buffer, m map[string]V) error {
	buf.WriteByte('{')
	for i, key := range slices.Sorted(maps.Keys(m)) {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return err
		}
		buf.Write(name)
		buf.WriteByte(':')
		if err := writeCanonical(buf, m[key]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

var _ Keyer = (*FingerprintKeyer)(nil)
