package arena

import "testing"

func TestAcquireGetRelease(t *testing.T) {
	a := New[string](2)
	h := a.Acquire("iss")
	if v, ok := a.Get(h); !ok || v != "iss" {
		t.Fatalf("Get = %q, %v; want iss, true", v, ok)
	}
	if a.Len() != 1 {
		t.Fatalf("Len = %d, want 1", a.Len())
	}
	if !a.Release(h) {
		t.Fatalf("expected Release to free the slot")
	}
	if _, ok := a.Get(h); ok {
		t.Fatalf("stale handle should not resolve")
	}
	if a.Release(h) {
		t.Fatalf("releasing a stale handle must be a no-op")
	}
	if a.Len() != 0 {
		t.Fatalf("Len = %d, want 0", a.Len())
	}
}

func TestRetainDelaysFree(t *testing.T) {
	a := New[int](1)
	h := a.Acquire(7)
	if !a.Retain(h) {
		t.Fatalf("Retain failed")
	}
	if a.Refs(h) != 2 {
		t.Fatalf("Refs = %d, want 2", a.Refs(h))
	}
	if a.Release(h) {
		t.Fatalf("first Release should not free with refs outstanding")
	}
	if v, ok := a.Get(h); !ok || v != 7 {
		t.Fatalf("value should stay live, got %d, %v", v, ok)
	}
	if !a.Release(h) {
		t.Fatalf("second Release should free")
	}
}

func TestFreeListReusesSlotsWithNewGeneration(t *testing.T) {
	a := New[int](0)
	h1 := a.Acquire(1)
	h2 := a.Acquire(2)
	a.Release(h1)
	h3 := a.Acquire(3)
	if h3.index != h1.index {
		t.Fatalf("expected slot %d to be reused, got %d", h1.index, h3.index)
	}
	if h3 == h1 {
		t.Fatalf("reused slot must carry a new generation")
	}
	if _, ok := a.Get(h1); ok {
		t.Fatalf("old handle must not see the new value")
	}
	if v, _ := a.Get(h2); v != 2 {
		t.Fatalf("unrelated slot changed: %d", v)
	}
}

func TestResetInvalidatesHandles(t *testing.T) {
	a := New[int](0)
	hs := []Handle{a.Acquire(1), a.Acquire(2), a.Acquire(3)}
	a.Reset()
	if a.Len() != 0 {
		t.Fatalf("Len after Reset = %d", a.Len())
	}
	for _, h := range hs {
		if _, ok := a.Get(h); ok {
			t.Fatalf("handle %+v survived Reset", h)
		}
	}
	if h := a.Acquire(9); h.IsZero() {
		t.Fatalf("Acquire after Reset returned zero handle")
	}
	if (Handle{}).IsZero() != true {
		t.Fatalf("zero handle should report IsZero")
	}
}
