//go:build unit

package proxygranting

import (
	"context"
	"testing"
	"time"
)

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time { return c.now }

func TestMemoryRegistry_InsertAndGet(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	registry := NewMemoryRegistry(0, clock)
	ctx := context.Background()

	if err := registry.InsertMapping(ctx, "PGTIOU-1", "PGT-1"); err != nil {
		t.Fatalf("InsertMapping: %v", err)
	}

	ticket, ok, err := registry.GetTicket(ctx, "PGTIOU-1")
	if err != nil || !ok {
		t.Fatalf("GetTicket = %v, %v", ok, err)
	}
	if ticket != "PGT-1" {
		t.Errorf("ticket = %q", ticket)
	}
}

func TestMemoryRegistry_UnknownIOU(t *testing.T) {
	registry := NewMemoryRegistry(0, &manualClock{now: time.Now()})
	if _, ok, err := registry.GetTicket(context.Background(), "PGTIOU-none"); ok || err != nil {
		t.Fatalf("GetTicket(unknown) = %v, %v; want miss", ok, err)
	}
}

func TestMemoryRegistry_ExpiryOnRead(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	registry := NewMemoryRegistry(time.Minute, clock)
	ctx := context.Background()

	registry.InsertMapping(ctx, "PGTIOU-1", "PGT-1")
	clock.now = clock.now.Add(2 * time.Minute)

	if _, ok, _ := registry.GetTicket(ctx, "PGTIOU-1"); ok {
		t.Error("expired mapping should not resolve")
	}
}

func TestMemoryRegistry_RemoveExpiredMappings(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	registry := NewMemoryRegistry(time.Minute, clock)
	ctx := context.Background()

	registry.InsertMapping(ctx, "PGTIOU-old", "PGT-old")
	clock.now = clock.now.Add(2 * time.Minute)
	registry.InsertMapping(ctx, "PGTIOU-new", "PGT-new")

	if err := registry.RemoveExpiredMappings(ctx); err != nil {
		t.Fatalf("RemoveExpiredMappings: %v", err)
	}

	if _, ok, _ := registry.GetTicket(ctx, "PGTIOU-old"); ok {
		t.Error("old mapping should be swept")
	}
	if _, ok, _ := registry.GetTicket(ctx, "PGTIOU-new"); !ok {
		t.Error("new mapping should survive the sweep")
	}
}

func TestMemoryRegistry_ReplaceMapping(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	registry := NewMemoryRegistry(0, clock)
	ctx := context.Background()

	registry.InsertMapping(ctx, "PGTIOU-1", "PGT-1")
	registry.InsertMapping(ctx, "PGTIOU-1", "PGT-2")

	ticket, _, _ := registry.GetTicket(ctx, "PGTIOU-1")
	if ticket != "PGT-2" {
		t.Errorf("ticket = %q, want the replacement", ticket)
	}
}
