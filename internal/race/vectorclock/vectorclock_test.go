package vectorclock

import (
	"testing"
)

func clockOf(values ...uint32) *VectorClock {
	vc := New()
	for tid, c := range values {
		if c != 0 {
			vc.Set(tid, c)
		}
	}
	return vc
}

// TestVectorClockNew tests zero initialization.
func TestVectorClockNew(t *testing.T) {
	vc := New()

	for i := 0; i < 100; i++ {
		if vc.Get(i) != 0 {
			t.Errorf("New() Get(%d) = %d, want 0", i, vc.Get(i))
		}
	}
	if vc.Len() != 0 {
		t.Errorf("New() Len() = %d, want 0", vc.Len())
	}
	if vc.Get(-1) != 0 {
		t.Errorf("Get(-1) = %d, want 0", vc.Get(-1))
	}
}

// TestVectorClockClone tests deep copy independence.
func TestVectorClockClone(t *testing.T) {
	original := New()
	original.Set(0, 10)
	original.Set(5, 20)
	original.Set(300, 30)

	clone := original.Clone()
	if !clone.Equal(original) {
		t.Fatalf("Clone() = %v, want %v", clone, original)
	}

	clone.Set(0, 999)
	clone.Increment(5)

	if original.Get(0) != 10 {
		t.Errorf("original modified after clone change: Get(0) = %d, want 10", original.Get(0))
	}
	if original.Get(5) != 20 {
		t.Errorf("original modified after clone change: Get(5) = %d, want 20", original.Get(5))
	}
}

// TestVectorClockJoin tests point-wise maximum and growth.
func TestVectorClockJoin(t *testing.T) {
	tests := []struct {
		name string
		a, b *VectorClock
		want *VectorClock
	}{
		{"disjoint", clockOf(1), clockOf(0, 2), clockOf(1, 2)},
		{"overlap", clockOf(3, 1, 4), clockOf(1, 5, 2), clockOf(3, 5, 4)},
		{"longer other", clockOf(1), clockOf(0, 0, 0, 7), clockOf(1, 0, 0, 7)},
		{"empty other", clockOf(2, 2), New(), clockOf(2, 2)},
		{"nil other", clockOf(2, 2), nil, clockOf(2, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Clone()
			got.Join(tt.b)
			if !got.Equal(tt.want) {
				t.Errorf("Join() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestVectorClockJoinCommutativity tests vc1⊔vc2 == vc2⊔vc1.
func TestVectorClockJoinCommutativity(t *testing.T) {
	a := clockOf(4, 0, 9, 1)
	b := clockOf(2, 6, 3)

	ab := a.Clone()
	ab.Join(b)
	ba := b.Clone()
	ba.Join(a)

	if !ab.Equal(ba) {
		t.Errorf("a⊔b = %v, b⊔a = %v", ab, ba)
	}
}

// TestVectorClockOrder tests LessOrEqual, HappensBefore and Concurrent.
func TestVectorClockOrder(t *testing.T) {
	tests := []struct {
		name       string
		a, b       *VectorClock
		lessEqual  bool
		before     bool
		concurrent bool
	}{
		{"equal", clockOf(1, 2), clockOf(1, 2), true, false, false},
		{"zero before", New(), clockOf(1), true, true, false},
		{"strictly less", clockOf(1, 2), clockOf(1, 3), true, true, false},
		{"greater", clockOf(2, 2), clockOf(1, 2), false, false, false},
		{"concurrent", clockOf(2, 0), clockOf(0, 2), false, false, true},
		{"trailing zeros", clockOf(1, 0, 0), clockOf(1), true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.LessOrEqual(tt.b); got != tt.lessEqual {
				t.Errorf("LessOrEqual() = %v, want %v", got, tt.lessEqual)
			}
			if got := tt.a.HappensBefore(tt.b); got != tt.before {
				t.Errorf("HappensBefore() = %v, want %v", got, tt.before)
			}
			if got := tt.a.Concurrent(tt.b); got != tt.concurrent {
				t.Errorf("Concurrent() = %v, want %v", got, tt.concurrent)
			}
		})
	}
}

// TestVectorClockIncrement tests per-thread ticking.
func TestVectorClockIncrement(t *testing.T) {
	vc := New()
	if got := vc.Increment(3); got != 1 {
		t.Errorf("Increment(3) = %d, want 1", got)
	}
	if got := vc.Increment(3); got != 2 {
		t.Errorf("Increment(3) = %d, want 2", got)
	}
	if vc.Get(0) != 0 || vc.Len() != 4 {
		t.Errorf("after Increment(3): Get(0) = %d, Len() = %d", vc.Get(0), vc.Len())
	}
}

// TestVectorClockString tests the debug format.
func TestVectorClockString(t *testing.T) {
	tests := []struct {
		vc   *VectorClock
		want string
	}{
		{New(), "{}"},
		{clockOf(5), "{0:5}"},
		{clockOf(5, 0, 3), "{0:5, 2:3}"},
	}

	for _, tt := range tests {
		if got := tt.vc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

// BenchmarkVectorClockJoin measures Join on a 64-thread clock.
func BenchmarkVectorClockJoin(b *testing.B) {
	a := New()
	other := New()
	for i := 0; i < 64; i++ {
		a.Set(i, uint32(i))
		other.Set(i, uint32(64-i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Join(other)
	}
}
