package viz

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSparklineWidth(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i % 7)
	}

	stripped := stripANSI(Sparkline(values, 20))
	assert.Equal(t, 20, utf8.RuneCountInString(stripped), "bars in %q", stripped)
}

func TestSparklineEmpty(t *testing.T) {
	assert.Equal(t, "─────", Sparkline(nil, 5))
}

func TestTimingLine(t *testing.T) {
	line := stripANSI(TimingLine("Solver.Solve", 1.5, 1, 2))
	assert.Contains(t, line, "Solver.Solve [ms]: 1.5 (1, 2)")
}

func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape && r == 'm':
			inEscape = false
		case !inEscape:
			b.WriteRune(r)
		}
	}
	return b.String()
}
