// Package metrics accumulates scalar observations from benchmark runs.
package metrics

type Metric interface {
	Name() string
	Value() float64
	Reset()
}
