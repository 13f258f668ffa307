package translate

import (
	"context"
	"testing"

	"github.com/jonwraymond/gptshell/cache"
	"github.com/jonwraymond/gptshell/resilience"
)

func BenchmarkTranslate_CacheHit(b *testing.B) {
	cfg := testConfig(answer(lsAnswer))
	cfg.Cache = cache.NewLRU(cache.LRUConfig{Capacity: 10})
	cfg.RateLimit = resilience.RateLimiterConfig{Disabled: true}
	o, _ := New(cfg)
	ctx := context.Background()
	o.Translate(ctx, "list files", tc)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		o.Translate(ctx, "list files", tc)
	}
}

func BenchmarkFingerprint(b *testing.B) {
	o, _ := New(testConfig(answer(lsAnswer)))
	for i := 0; i < b.N; i++ {
		_, _ = o.Fingerprint("show me the largest files in this directory", tc)
	}
}
