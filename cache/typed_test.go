package cache

import (
	"context"
	"testing"
	"time"
)

type translation struct {
	Command string `json:"command"`
	Safe    bool   `json:"safe"`
}

func TestTyped_RoundTrip(t *testing.T) {
	c, _ := newTestLRU(10, time.Minute)
	typed := NewTyped[translation](c)
	ctx := context.Background()

	want := translation{Command: "ls -la", Safe: true}
	if err := typed.Store(ctx, "k", want, 0); err != nil {
		t.Fatalf("Store() = %v", err)
	}
	got, ok := typed.Lookup(ctx, "k")
	if !ok || got != want {
		t.Errorf("Lookup() = %+v, %v; want %+v, true", got, ok, want)
	}
}

func TestTyped_CorruptEntryIsMissAndDeleted(t *testing.T) {
	c, _ := newTestLRU(10, time.Minute)
	typed := NewTyped[translation](c)
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("{not json"), 0)

	if _, ok := typed.Lookup(ctx, "k"); ok {
		t.Error("corrupt entry should be a miss")
	}
	if c.Len() != 0 {
		t.Error("corrupt entry should be deleted")
	}
}

func TestTyped_ShouldStore(t *testing.T) {
	c, _ := newTestLRU(10, time.Minute)
	typed := NewTyped[translation](c)
	typed.ShouldStore = func(v translation) bool { return v.Command != "" }
	ctx := context.Background()

	_ = typed.Store(ctx, "empty", translation{}, 0)
	_ = typed.Store(ctx, "full", translation{Command: "pwd"}, 0)

	if _, ok := typed.Lookup(ctx, "empty"); ok {
		t.Error("filtered value should not be stored")
	}
	if _, ok := typed.Lookup(ctx, "full"); !ok {
		t.Error("accepted value should be stored")
	}
}
