// Package telemetry provides population history, windowed ecosystem stats,
// bookmarks, CSV output and compressed world snapshots.
package telemetry

// Counts holds the population of each kind. Plants counts live plants only.
type Counts struct {
	Predators int `json:"predators"`
	Prey      int `json:"prey"`
	Plants    int `json:"plants"`
}

// Sample is one per-tick entry of the population history.
type Sample struct {
	Tick      int `csv:"tick"      json:"tick"`
	Predators int `csv:"predators" json:"predators"`
	Prey      int `csv:"prey"      json:"prey"`
	Plants    int `csv:"plants"    json:"plants"`
}

// NewSample builds a sample from counts.
func NewSample(tick int, c Counts) Sample {
	return Sample{Tick: tick, Predators: c.Predators, Prey: c.Prey, Plants: c.Plants}
}

// Counts returns the population part of the sample.
func (s Sample) Counts() Counts {
	return Counts{Predators: s.Predators, Prey: s.Prey, Plants: s.Plants}
}

// History is the append-only population record of one run.
type History struct {
	samples []Sample
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Append adds a sample.
func (h *History) Append(s Sample) {
	h.samples = append(h.samples, s)
}

// Len returns the number of samples.
func (h *History) Len() int {
	return len(h.samples)
}

// Last returns the most recent sample.
func (h *History) Last() (Sample, bool) {
	if len(h.samples) == 0 {
		return Sample{}, false
	}
	return h.samples[len(h.samples)-1], true
}

// Samples returns a copy of all samples in order.
func (h *History) Samples() []Sample {
	out := make([]Sample, len(h.samples))
	copy(out, h.samples)
	return out
}

// Since returns a copy of the samples with Tick > tick.
func (h *History) Since(tick int) []Sample {
	// Ticks are strictly increasing, so scan back from the end.
	i := len(h.samples)
	for i > 0 && h.samples[i-1].Tick > tick {
		i--
	}
	out := make([]Sample, len(h.samples)-i)
	copy(out, h.samples[i:])
	return out
}

// Reset clears the history.
func (h *History) Reset() {
	h.samples = h.samples[:0]
}
