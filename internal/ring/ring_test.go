package ring

import "testing"

func TestRingPushPopFIFO(t *testing.T) {
	r := New[int](4)
	for i := 0; i < 4; i++ {
		if !r.TryPush(i) {
			t.Fatalf("push %d failed unexpectedly", i)
		}
	}
	if r.TryPush(99) {
		t.Fatalf("push into full ring should fail")
	}
	for i := 0; i < 4; i++ {
		v, ok := r.TryPop()
		if !ok {
			t.Fatalf("pop %d: expected a value", i)
		}
		if v != i {
			t.Fatalf("pop %d: got %d, want FIFO order", i, v)
		}
	}
	if _, ok := r.TryPop(); ok {
		t.Fatalf("pop from empty ring should fail")
	}
}

func TestRingCapacityRoundsToPowerOf2(t *testing.T) {
	r := New[int](5)
	if r.Cap() != 8 {
		t.Fatalf("Cap() = %d, want 8", r.Cap())
	}
}

func TestRingWrapAround(t *testing.T) {
	r := New[string](2)
	r.TryPush("a")
	r.TryPush("b")
	v, _ := r.TryPop()
	if v != "a" {
		t.Fatalf("got %q, want a", v)
	}
	r.TryPush("c")
	for _, want := range []string{"b", "c"} {
		got, ok := r.TryPop()
		if !ok || got != want {
			t.Fatalf("got %q,%v want %q", got, ok, want)
		}
	}
}
