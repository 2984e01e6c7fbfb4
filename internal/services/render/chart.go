package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"

	"CostCast/internal/domain/models"

	"github.com/shopspring/decimal"
)

const ContentTypeSVG = "image/svg+xml"

// ChartOptions controls the rendered canvas.
type ChartOptions struct {
	Width  int
	Height int
	Title  string
	XLabel string
	YLabel string
	Ticks  int
}

// DefaultChartOptions matches a 10x6 inch figure at 100 dpi.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{
		Width:  1000,
		Height: 600,
		Title:  "Product Price Forecast",
		XLabel: "Date",
		YLabel: "Total Product Value",
		Ticks:  5,
	}
}

const (
	marginLeft   = 90.0
	marginRight  = 30.0
	marginTop    = 50.0
	marginBottom = 90.0
)

// LineChart renders points as an SVG line chart with circle markers.
func LineChart(points []models.ProductValuePoint, opts ChartOptions) ([]byte, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no points to plot")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultChartOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}
	if opts.Ticks < 2 {
		opts.Ticks = 5
	}

	lo, hi := valueRange(points)
	plotW := float64(opts.Width) - marginLeft - marginRight
	plotH := float64(opts.Height) - marginTop - marginBottom

	x := func(i int) float64 {
		if len(points) == 1 {
			return marginLeft + plotW/2
		}
		return marginLeft + plotW*float64(i)/float64(len(points)-1)
	}
	y := func(v float64) float64 {
		return marginTop + plotH*(1-(v-lo)/(hi-lo))
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif" font-size="12">`,
		opts.Width, opts.Height, opts.Width, opts.Height)
	b.WriteString(`<rect width="100%" height="100%" fill="white"/>`)

	fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="middle" font-size="16">%s</text>`,
		float64(opts.Width)/2, marginTop/2, escape(opts.Title))

	// y grid and labels
	for t := 0; t < opts.Ticks; t++ {
		v := lo + (hi-lo)*float64(t)/float64(opts.Ticks-1)
		yy := y(v)
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#dddddd"/>`,
			marginLeft, yy, marginLeft+plotW, yy)
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="end" dominant-baseline="middle">%s</text>`,
			marginLeft-8, yy, FormatValue(v))
	}

	// axes
	fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="black"/>`,
		marginLeft, marginTop, marginLeft, marginTop+plotH)
	fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="black"/>`,
		marginLeft, marginTop+plotH, marginLeft+plotW, marginTop+plotH)

	// x labels, rotated like the dates under a monthly series
	step := labelStep(len(points), plotW)
	for i := 0; i < len(points); i += step {
		xx, yy := x(i), marginTop+plotH+14
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="end" transform="rotate(-45 %.1f %.1f)">%s</text>`,
			xx, yy, xx, yy, escape(points[i].DS))
	}

	b.WriteString(`<polyline fill="none" stroke="blue" stroke-width="2" points="`)
	for i, p := range points {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.1f,%.1f", x(i), y(p.TotalProductValue))
	}
	b.WriteString(`"/>`)
	for i, p := range points {
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="3" fill="blue"><title>%s: %s</title></circle>`,
			x(i), y(p.TotalProductValue), escape(p.DS), FormatValue(p.TotalProductValue))
	}

	fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="middle">%s</text>`,
		marginLeft+plotW/2, float64(opts.Height)-10, escape(opts.XLabel))
	fmt.Fprintf(&b, `<text x="20" y="%.1f" text-anchor="middle" transform="rotate(-90 20 %.1f)">%s</text>`,
		marginTop+plotH/2, marginTop+plotH/2, escape(opts.YLabel))

	b.WriteString(`</svg>`)
	return b.Bytes(), nil
}

// FormatValue renders a currency-like label with two decimals.
func FormatValue(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func valueRange(points []models.ProductValuePoint) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		lo = math.Min(lo, p.TotalProductValue)
		hi = math.Max(hi, p.TotalProductValue)
	}
	if hi == lo {
		pad := math.Max(math.Abs(hi)*0.05, 1)
		return lo - pad, hi + pad
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

// labelStep thins x labels so they stay about 40px apart.
func labelStep(n int, width float64) int {
	maxLabels := int(width / 40)
	if maxLabels < 1 || n <= maxLabels {
		return 1
	}
	return int(math.Ceil(float64(n) / float64(maxLabels)))
}

func escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
