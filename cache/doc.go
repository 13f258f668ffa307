// Package cache provides the response cache used by the translation
// pipeline: a bounded LRU with per-entry TTL, SHA-256 fingerprint keys
// over canonical JSON, TTL policies, and a typed JSON view.
package cache
