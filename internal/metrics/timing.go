package metrics

import (
	"math"
	"time"
)

// Timing tracks the mean, minimum and maximum of a series of durations,
// reported in milliseconds.
type Timing struct {
	name    string
	sum     float64
	min     float64
	max     float64
	samples int
}

func NewTiming(name string) *Timing {
	t := &Timing{name: name}
	t.Reset()
	return t
}

func (t *Timing) Name() string {
	return t.name
}

func (t *Timing) Observe(d time.Duration) {
	ms := float64(d.Nanoseconds()) / 1e6
	t.sum += ms
	t.min = math.Min(t.min, ms)
	t.max = math.Max(t.max, ms)
	t.samples++
}

func (t *Timing) Samples() int { return t.samples }

// Value is the mean in milliseconds.
func (t *Timing) Value() float64 {
	return t.Mean()
}

func (t *Timing) Mean() float64 {
	if t.samples == 0 {
		return 0
	}
	return t.sum / float64(t.samples)
}

func (t *Timing) Min() float64 {
	if t.samples == 0 {
		return 0
	}
	return t.min
}

func (t *Timing) Max() float64 {
	if t.samples == 0 {
		return 0
	}
	return t.max
}

func (t *Timing) Reset() {
	t.sum = 0
	t.min = math.Inf(1)
	t.max = math.Inf(-1)
	t.samples = 0
}
