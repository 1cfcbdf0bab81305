package latency

import "testing"

func TestConstantRejectsNonPositive(t *testing.T) {
	if _, err := NewConstant(0); err == nil {
		t.Fatal("zero latency must be rejected")
	}
	if _, err := NewConstant(-5); err == nil {
		t.Fatal("negative latency must be rejected")
	}
	m, err := NewConstant(1000)
	if err != nil {
		t.Fatalf("new constant failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if d := m.Delay(); d != 1000 {
			t.Fatalf("delay = %d, want 1000", d)
		}
	}
}

func TestUniformIsSeededDeterministic(t *testing.T) {
	draw := func() []int64 {
		m, err := NewUniform(10, 100, 42)
		if err != nil {
			t.Fatalf("new uniform failed: %v", err)
		}
		out := make([]int64, 20)
		for i := range out {
			out[i] = m.Delay()
			if out[i] < 10 || out[i] > 100 {
				t.Fatalf("delay %d outside [10, 100]", out[i])
			}
		}
		return out
	}

	first, second := draw(), draw()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("same seed diverges at draw %d: %d vs %d", i, first[i], second[i])
		}
	}
}

func TestUniformValidation(t *testing.T) {
	if _, err := NewUniform(0, 10, 1); err == nil {
		t.Fatal("non-positive min must be rejected")
	}
	if _, err := NewUniform(10, 5, 1); err == nil {
		t.Fatal("max below min must be rejected")
	}
	m, err := NewUniform(7, 7, 1)
	if err != nil {
		t.Fatalf("degenerate range must be allowed: %v", err)
	}
	if d := m.Delay(); d != 7 {
		t.Fatalf("degenerate range delay = %d, want 7", d)
	}
}
