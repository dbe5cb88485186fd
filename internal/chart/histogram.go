package chart

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Histogram holds equal-width bin counts over [Min, Max].
type Histogram struct {
	Min, Max float64
	Width    float64
	Counts   []int
	Mean     float64
	Median   float64
}

// NewHistogram bins values into n equal-width bins. The last bin is closed so
// the maximum value is counted. A constant input gets a single non-empty bin
// and no input gets a histogram without bins.
func NewHistogram(values []float64, n int) (*Histogram, error) {
	if n <= 0 {
		return nil, fmt.Errorf("bin count must be positive, got %d", n)
	}
	if len(values) == 0 {
		return &Histogram{Counts: []int{}}, nil
	}
	data := stats.Float64Data(values)

	min, err := stats.Min(data)
	if err != nil {
		return nil, fmt.Errorf("histogram min: %w", err)
	}
	max, err := stats.Max(data)
	if err != nil {
		return nil, fmt.Errorf("histogram max: %w", err)
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return nil, fmt.Errorf("histogram mean: %w", err)
	}
	median, err := stats.Median(data)
	if err != nil {
		return nil, fmt.Errorf("histogram median: %w", err)
	}

	h := &Histogram{
		Min:    min,
		Max:    max,
		Width:  (max - min) / float64(n),
		Counts: make([]int, n),
		Mean:   mean,
		Median: median,
	}

	for _, v := range values {
		idx := 0
		if h.Width > 0 {
			idx = int((v - min) / h.Width)
		}
		if idx >= n {
			idx = n - 1
		}
		h.Counts[idx]++
	}
	return h, nil
}

// Labels returns one "lo-hi" label per bin.
func (h *Histogram) Labels() []string {
	labels := make([]string, len(h.Counts))
	for i := range h.Counts {
		lo := h.Min + float64(i)*h.Width
		labels[i] = fmt.Sprintf("%.0f-%.0f", lo, lo+h.Width)
	}
	return labels
}
