package cache

import (
	"testing"
	"time"
)

func TestKeyIsDeterministicAndDistinct(t *testing.T) {
	a := Key("user", "alice", "true")
	b := Key("user", "alice", "true")
	c := Key("user", "bob", "true")
	if a != b {
		t.Error("same parts produced different keys")
	}
	if a == c {
		t.Error("different parts produced the same key")
	}
	// Joining must not be ambiguous across part boundaries.
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("part boundaries are ambiguous")
	}
}

func TestGetRespectsPerCallTTL(t *testing.T) {
	c := New(time.Hour)
	defer c.Stop()

	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)

	// Fresh enough for the default TTL.
	if v, ok := c.Get("k", 0); !ok || v != "v" {
		t.Fatalf("Get with default TTL = (%v, %v), want (v, true)", v, ok)
	}

	// Too old for a strict caller; the entry is evicted on the way out.
	if _, ok := c.Get("k", time.Millisecond); ok {
		t.Fatal("Get with 1ms TTL returned a 20ms-old entry")
	}
	if _, ok := c.Get("k", 0); ok {
		t.Fatal("expired entry was not evicted")
	}
}

func TestSetOverwritesAndResetsAge(t *testing.T) {
	c := New(time.Hour)
	defer c.Stop()

	c.Set("k", "old")
	time.Sleep(20 * time.Millisecond)
	c.Set("k", "new")

	v, ok := c.Get("k", 15*time.Millisecond)
	if !ok || v != "new" {
		t.Fatalf("Get = (%v, %v), want (new, true)", v, ok)
	}
}

func TestClearAndLen(t *testing.T) {
	c := New(time.Hour)
	defer c.Stop()

	c.Set("a", 1)
	c.Set("b", 2)
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
}
