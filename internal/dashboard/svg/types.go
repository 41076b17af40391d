// Package svg renders the dashboard charts as inline SVG.
package svg

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	// Caption prefixes each bar's accessible label, e.g. "Calibrações".
	Caption   string
	Color     string
	AxisColor string
	GridColor string
	Padding   float64
	MaxTicks  int
}

// DoughnutOpts customises the doughnut renderer.
type DoughnutOpts struct {
	Title       string
	Description string
	// Hole is the inner radius as a fraction of the outer one.
	Hole        float64
	BorderColor string
	TextColor   string
}

// Slice is one labelled value of a doughnut.
type Slice struct {
	Label string
	Value float64
}

// Palette is cycled through for doughnut slices.
var Palette = []string{
	"#2563eb", "#dc2626", "#059669", "#d97706",
	"#7c3aed", "#db2777", "#0891b2", "#65a30d",
}

// Defaults for the dashboard charts.
const (
	DefaultWidth    = 640
	DefaultHeight   = 300
	DefaultPadding  = 28.0
	DefaultMaxTicks = 6
	DefaultHole     = 0.55
)
