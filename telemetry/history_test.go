package telemetry

import "testing"

func TestHistory(t *testing.T) {
	h := NewHistory()
	if _, ok := h.Last(); ok {
		t.Fatal("empty history returned a last sample")
	}

	for tick := 1; tick <= 5; tick++ {
		h.Append(NewSample(tick, Counts{Predators: tick, Prey: 10 - tick, Plants: 3}))
	}

	if h.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", h.Len())
	}
	last, ok := h.Last()
	if !ok || last.Tick != 5 || last.Predators != 5 || last.Prey != 5 {
		t.Errorf("Last() = %+v, %v", last, ok)
	}

	samples := h.Samples()
	samples[0].Prey = 99
	if h.Samples()[0].Prey == 99 {
		t.Error("Samples() returned internal storage")
	}

	since := h.Since(3)
	if len(since) != 2 || since[0].Tick != 4 || since[1].Tick != 5 {
		t.Errorf("Since(3) = %+v", since)
	}
	if got := h.Since(0); len(got) != 5 {
		t.Errorf("Since(0) len = %d, want 5", len(got))
	}
	if got := h.Since(5); len(got) != 0 {
		t.Errorf("Since(5) len = %d, want 0", len(got))
	}

	h.Reset()
	if h.Len() != 0 {
		t.Errorf("Len() after Reset = %d", h.Len())
	}
}

func TestSampleCounts(t *testing.T) {
	c := Counts{Predators: 1, Prey: 2, Plants: 3}
	if got := NewSample(7, c).Counts(); got != c {
		t.Errorf("Counts() = %+v, want %+v", got, c)
	}
}
