package fixedmath

import "testing"

func TestMulDivRoundTrip(t *testing.T) {
	cases := []struct{ a, b int }{
		{3, 4}, {-3, 4}, {3, -4}, {-3, -4}, {0, 5}, {100, 1},
	}
	for _, c := range cases {
		a := FromInt(c.a)
		b := FromInt(c.b)
		got := a.Mul(b).ToInt()
		want := c.a * c.b
		if got != want {
			t.Errorf("Mul(%d,%d) = %d, want %d", c.a, c.b, got, want)
		}
	}
}

func TestDivBasic(t *testing.T) {
	a := FromInt(10)
	b := FromInt(4)
	got := a.Div(b)
	want := FromFloat(2.5)
	if got.Sub(want).Abs() > Fixed64(4) {
		t.Errorf("Div(10,4) = %v, want ~2.5", got.ToFloat())
	}
}

func TestDivByZeroSaturates(t *testing.T) {
	if FromInt(5).Div(0) != MaxValue {
		t.Errorf("expected saturation to MaxValue")
	}
	if FromInt(-5).Div(0) != MinValue {
		t.Errorf("expected saturation to MinValue")
	}
}

func TestSqrt(t *testing.T) {
	got := FromInt(16).Sqrt()
	if got.ToInt() != 4 {
		t.Errorf("Sqrt(16) = %d, want 4", got.ToInt())
	}
	got = FromInt(0).Sqrt()
	if got != 0 {
		t.Errorf("Sqrt(0) = %v, want 0", got)
	}
}

func TestClamp(t *testing.T) {
	v := FromInt(15).Clamp(FromInt(0), FromInt(10))
	if v.ToInt() != 10 {
		t.Errorf("Clamp = %d, want 10", v.ToInt())
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	// Same inputs, computed twice, must be bit-identical — the whole point
	// of Fixed64 existing instead of float64.
	a := FromFloat(1.2345)
	b := FromFloat(6.789)
	r1 := a.Mul(b).Add(a.Div(b)).Sqrt()
	r2 := a.Mul(b).Add(a.Div(b)).Sqrt()
	if r1 != r2 {
		t.Fatalf("non-deterministic result: %v != %v", r1, r2)
	}
}

func TestSinCosRange(t *testing.T) {
	for deg := 0; deg < 360; deg += 15 {
		theta := FromFloat(float64(deg) * 3.14159265 / 180)
		s := Sin(theta)
		c := Cos(theta)
		if s.ToFloat() < -1.05 || s.ToFloat() > 1.05 {
			t.Errorf("sin(%d) out of range: %v", deg, s.ToFloat())
		}
		if c.ToFloat() < -1.05 || c.ToFloat() > 1.05 {
			t.Errorf("cos(%d) out of range: %v", deg, c.ToFloat())
		}
	}
}

func TestVec2Normalized(t *testing.T) {
	v := NewVec2(FromInt(3), FromInt(4))
	n := v.Normalized()
	l := n.Length()
	if l.ToFloat() < 0.98 || l.ToFloat() > 1.02 {
		t.Errorf("normalized length = %v, want ~1.0", l.ToFloat())
	}
}

func TestVec2ZeroNormalizes(t *testing.T) {
	if !Vec2Zero.Normalized().IsZero() {
		t.Errorf("zero vector should normalize to zero")
	}
}
