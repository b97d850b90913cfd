package metrics

import (
	"math"

	"github.com/san-kum/shootbench/internal/dynamo"
)

// ControlEffort is the root mean square of the control norms over the
// observed nodes. Peak keeps the largest single component.
type ControlEffort struct {
	squares float64
	peak    float64
	nodes   int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(u dynamo.Control) {
	for _, v := range u {
		c.squares += v * v
		c.peak = max(c.peak, math.Abs(v))
	}
	c.nodes++
}

func (c *ControlEffort) ObserveAll(us []dynamo.Control) {
	for _, u := range us {
		c.Observe(u)
	}
}

func (c *ControlEffort) Value() float64 {
	if c.nodes == 0 {
		return 0
	}
	return math.Sqrt(c.squares / float64(c.nodes))
}

func (c *ControlEffort) Peak() float64 { return c.peak }

func (c *ControlEffort) Reset() {
	*c = ControlEffort{}
}
