package backoff

import (
	"testing"
	"time"
)

func TestPolicy_Delay(t *testing.T) {
	p := Policy{Base: time.Second, Max: 60 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{5, 32 * time.Second},
		{6, 60 * time.Second},
		{20, 60 * time.Second},
		{-1, 1 * time.Second},
	}

	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoff_SequenceAndReset(t *testing.T) {
	b := New(DefaultPolicy())

	want := []time.Duration{1, 2, 4, 8, 16, 32, 60, 60, 60}
	for i, w := range want {
		if got := b.Next(); got != w*time.Second {
			t.Errorf("Next() #%d = %v, want %v", i, got, w*time.Second)
		}
	}

	b.Reset()
	if got := b.Next(); got != time.Second {
		t.Errorf("Next() after Reset = %v, want 1s", got)
	}
	if b.Attempt() != 1 {
		t.Errorf("Attempt() = %d, want 1", b.Attempt())
	}
}

func TestBackoff_ManyFailuresStayCapped(t *testing.T) {
	b := New(Policy{Base: time.Millisecond, Max: time.Second})
	for i := 0; i < 10000; i++ {
		b.Next()
	}
	if got := b.Next(); got != time.Second {
		t.Errorf("Next() = %v after many failures, want cap 1s", got)
	}
}

func TestPolicy_JitterBounds(t *testing.T) {
	p := Policy{Base: 100 * time.Millisecond, Max: time.Second, Jitter: 0.2}

	for i := 0; i < 100; i++ {
		d := p.Delay(0)
		if d < 80*time.Millisecond || d > 120*time.Millisecond {
			t.Fatalf("Delay(0) = %v, want within [80ms, 120ms]", d)
		}
	}
}
