package effect

import "testing"

func TestEnvelopeEval(t *testing.T) {
	env := Envelope{Keys: []Keyframe{
		{T: 0, V: 0, Ease: "linear"},
		{T: 10, V: 10, Ease: "linear"},
	}}
	if v := env.Eval(-1); v != 0 {
		t.Fatalf("expected 0 before start, got %v", v)
	}
	if v := env.Eval(0); v != 0 {
		t.Fatalf("expected 0 at t=0, got %v", v)
	}
	if v := env.Eval(5); v != 5 {
		t.Fatalf("expected 5 at t=5, got %v", v)
	}
	if v := env.Eval(10); v != 10 {
		t.Fatalf("expected 10 at t=10, got %v", v)
	}
	if v := env.Eval(11); v != 10 {
		t.Fatalf("expected 10 after end, got %v", v)
	}
}

func TestEnvelopeEasing(t *testing.T) {
	for _, ease := range []string{"smooth", "cubic"} {
		env := Envelope{Keys: []Keyframe{{T: 0, V: 0, Ease: ease}, {T: 1, V: 1}}}
		if v := env.Eval(0.5); v < 0.499 || v > 0.501 {
			t.Fatalf("%s: expected midpoint 0.5, got %v", ease, v)
		}
		if v := env.Eval(0.1); v >= 0.1 {
			t.Fatalf("%s: expected slow start below linear, got %v", ease, v)
		}
	}
}

func TestEnvelopeDegenerate(t *testing.T) {
	if v := (Envelope{}).Eval(3); v != 0 {
		t.Fatalf("expected 0 for empty envelope, got %v", v)
	}
	one := Envelope{Keys: []Keyframe{{T: 2, V: 0.7}}}
	if v := one.Eval(100); v != 0.7 {
		t.Fatalf("expected single key value, got %v", v)
	}
	if d := one.Duration(); d != 2 {
		t.Fatalf("expected duration 2, got %v", d)
	}
}
