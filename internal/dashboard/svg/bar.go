package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Bars renders one series of non-negative counts, one bar per label, with
// integer gridlines starting at zero.
func Bars(width, height int, values []float64, labels []string, opts BarOpts) (template.HTML, error) {
	if len(labels) == 0 {
		return "", fmt.Errorf("svg: labels required")
	}
	if len(values) != len(labels) {
		return "", fmt.Errorf("svg: values length must match labels")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	maxTicks := opts.MaxTicks
	if maxTicks <= 0 {
		maxTicks = DefaultMaxTicks
	}

	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "rgba(0,0,0,0.1)")
	color := fallback(opts.Color, "rgba(37,99,235,0.8)")
	caption := fallback(opts.Caption, "Valor")

	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - 2*padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	maxVal := 0.0
	for _, v := range values {
		if v < 0 {
			return "", fmt.Errorf("svg: negative value %v", v)
		}
		maxVal = math.Max(maxVal, v)
	}
	step := niceStep(maxVal, maxTicks)
	top := math.Max(step, math.Ceil(maxVal/step)*step)
	scale := chartHeight / top
	bottom := padding + chartHeight

	slot := chartWidth / float64(len(labels))
	barWidth := slot * 0.6

	titleID := makeID(opts.Title, "bar-title")
	descID := makeID(opts.Title, "bar-desc")

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(&b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Gráfico de barras")))
	fmt.Fprintf(&b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Valores por categoria")))

	for v := 0.0; v <= top+1e-9; v += step {
		y := bottom - v*scale
		fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" aria-hidden=\"true\"></line>", padding, y, padding+chartWidth, y, gridColor)
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", padding-6, y+4, axisColor, formatCount(v))
	}

	fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"1\"></line>", padding, bottom, padding+chartWidth, bottom, axisColor)

	for i, label := range labels {
		x := padding + float64(i)*slot + (slot-barWidth)/2
		h := values[i] * scale
		escaped := template.HTMLEscapeString(label)
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" rx=\"4\" fill=\"%s\"><title>%s: %s</title></rect>",
			x, bottom-h, barWidth, h, color, template.HTMLEscapeString(caption)+" "+escaped, formatCount(values[i]))
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", x+barWidth/2, bottom+14, axisColor, escaped)
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
