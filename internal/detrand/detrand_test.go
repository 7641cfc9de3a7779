package detrand

import "testing"

func TestDeterministic(t *testing.T) {
	a := RangeWithSeed(42, 100, 7, SaltIdleTimer, 0, 60)
	b := RangeWithSeed(42, 100, 7, SaltIdleTimer, 0, 60)
	if a != b {
		t.Fatalf("RangeWithSeed not deterministic: %d != %d", a, b)
	}
}

func TestRangeBounds(t *testing.T) {
	for i := 0; i < 1000; i++ {
		v := RangeWithSeed(int32(i), int32(i*3), int32(i%7), SaltWanderTimer, 10, 20)
		if v < 10 || v >= 20 {
			t.Fatalf("out of range: %d", v)
		}
	}
}

func TestDifferentSaltsDiffer(t *testing.T) {
	a := RangeWithSeed(1, 1, 1, SaltIdleTimer, 0, 1_000_000)
	b := RangeWithSeed(1, 1, 1, SaltWanderTimer, 0, 1_000_000)
	if a == b {
		t.Fatalf("different salts produced identical output (statistically suspicious)")
	}
}

func TestDegenerateRange(t *testing.T) {
	if v := RangeWithSeed(1, 1, 1, SaltIdleTimer, 5, 5); v != 5 {
		t.Fatalf("degenerate range should return min, got %d", v)
	}
}
