package svg

import (
	"fmt"
	"math"
	"strings"
)

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}

// formatCount prints whole numbers without decimals and uses a comma for fractions.
func formatCount(v float64) string {
	if almostEqual(v, math.Round(v)) {
		return fmt.Sprintf("%.0f", v)
	}
	return strings.Replace(fmt.Sprintf("%.1f", v), ".", ",", 1)
}

// niceStep picks an integer tick step so that at most maxTicks gridlines cover maxVal.
func niceStep(maxVal float64, maxTicks int) float64 {
	if maxVal <= float64(maxTicks) {
		return 1
	}
	raw := maxVal / float64(maxTicks)
	magnitude := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5, 10} {
		if step := m * magnitude; step >= raw {
			return math.Ceil(step)
		}
	}
	return math.Ceil(10 * magnitude)
}
