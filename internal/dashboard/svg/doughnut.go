package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Doughnut renders slices as a ring with a legend underneath. Each legend
// entry shows the value and its share of the total.
func Doughnut(width, height int, slices []Slice, opts DoughnutOpts) (template.HTML, error) {
	if len(slices) == 0 {
		return "", fmt.Errorf("svg: at least one slice required")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	hole := opts.Hole
	if hole <= 0 || hole >= 1 {
		hole = DefaultHole
	}
	border := fallback(opts.BorderColor, "#ffffff")
	textColor := fallback(opts.TextColor, "#475569")

	total := 0.0
	for _, s := range slices {
		if s.Value < 0 {
			return "", fmt.Errorf("svg: negative slice %q", s.Label)
		}
		total += s.Value
	}
	if almostEqual(total, 0) {
		return "", fmt.Errorf("svg: slices sum to zero")
	}

	legendRows := (len(slices) + 1) / 2
	legendHeight := float64(legendRows) * 18
	ringArea := float64(height) - legendHeight - 16
	outer := math.Min(float64(width), ringArea) / 2
	if outer <= 4 {
		return "", fmt.Errorf("svg: viewport too small")
	}
	inner := outer * hole
	cx := float64(width) / 2
	cy := 8 + outer

	titleID := makeID(opts.Title, "doughnut-title")
	descID := makeID(opts.Title, "doughnut-desc")

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(&b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Gráfico de rosca")))
	fmt.Fprintf(&b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Distribuição por categoria")))

	angle := -math.Pi / 2
	for i, s := range slices {
		if almostEqual(s.Value, 0) {
			continue
		}
		color := Palette[i%len(Palette)]
		share := s.Value / total
		label := template.HTMLEscapeString(s.Label)
		tip := fmt.Sprintf("%s: %s (%.1f%%)", label, formatCount(s.Value), share*100)
		if almostEqual(share, 1) {
			// a single full slice cannot be drawn as an arc
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"%s\" stroke-width=\"%.2f\"><title>%s</title></circle>",
				cx, cy, (outer+inner)/2, color, outer-inner, tip)
			angle += 2 * math.Pi
			continue
		}
		end := angle + share*2*math.Pi
		large := 0
		if end-angle > math.Pi {
			large = 1
		}
		x1, y1 := cx+outer*math.Cos(angle), cy+outer*math.Sin(angle)
		x2, y2 := cx+outer*math.Cos(end), cy+outer*math.Sin(end)
		x3, y3 := cx+inner*math.Cos(end), cy+inner*math.Sin(end)
		x4, y4 := cx+inner*math.Cos(angle), cy+inner*math.Sin(angle)
		fmt.Fprintf(&b, "<path d=\"M%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 0 %.2f %.2f Z\" fill=\"%s\" stroke=\"%s\" stroke-width=\"2\"><title>%s</title></path>",
			x1, y1, outer, outer, large, x2, y2, x3, y3, inner, inner, large, x4, y4, color, border, tip)
		angle = end
	}

	legendTop := cy + outer + 20
	colWidth := float64(width) / 2
	for i, s := range slices {
		x := float64(i%2)*colWidth + 12
		y := legendTop + float64(i/2)*18
		fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"5\" fill=\"%s\"></circle>", x, y-4, Palette[i%len(Palette)])
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\">%s (%s)</text>", x+10, y, textColor, template.HTMLEscapeString(s.Label), formatCount(s.Value))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
