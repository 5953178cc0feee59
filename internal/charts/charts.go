package charts

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Size is the rendered chart size in inches
type Size struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// DefaultSize keeps the wide, short aspect of the dashboard panels
func DefaultSize() Size {
	return Size{Width: 6, Height: 2.4}
}

// Options are shared by every chart kind
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Color  string
	Size   Size
}

// Chart is one rendered figure
type Chart struct {
	Title string
	SVG   []byte
}

// DataURI embeds the SVG in an <img src> attribute
func (c *Chart) DataURI() template.URL {
	return template.URL("data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(c.SVG))
}

// Histogram draws binned counts with a Gaussian kernel density curve scaled to
// the same counts.
func Histogram(values []float64, bins int, opts Options) (*Chart, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("histogram %q has no values", opts.Title)
	}
	fill, err := ParseHexColor(opts.Color)
	if err != nil {
		return nil, err
	}

	p := newPlot(opts)
	hist, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return nil, fmt.Errorf("failed to bin %q: %w", opts.Title, err)
	}
	hist.FillColor = withAlpha(fill, 0xb0)
	hist.LineStyle.Color = fill
	hist.LineStyle.Width = vg.Points(0.5)
	p.Add(hist)

	if len(hist.Bins) > 0 {
		binWidth := hist.Bins[0].Max - hist.Bins[0].Min
		if curve := kdeCurve(values, binWidth); curve != nil {
			line, err := plotter.NewLine(curve)
			if err != nil {
				return nil, fmt.Errorf("failed to draw density for %q: %w", opts.Title, err)
			}
			line.LineStyle.Color = fill
			line.LineStyle.Width = vg.Points(1.2)
			p.Add(line)
		}
	}

	return render(p, opts)
}

// BoxPlot draws a vertical box with whiskers and outlier glyphs
func BoxPlot(values []float64, opts Options) (*Chart, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("boxplot %q has no values", opts.Title)
	}
	fill, err := ParseHexColor(opts.Color)
	if err != nil {
		return nil, err
	}

	p := newPlot(opts)
	box, err := plotter.NewBoxPlot(vg.Points(40), 0, plotter.Values(values))
	if err != nil {
		return nil, fmt.Errorf("failed to build boxplot %q: %w", opts.Title, err)
	}
	box.FillColor = fill
	box.GlyphStyle.Shape = draw.CircleGlyph{}
	box.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(box)
	p.NominalX("")

	return render(p, opts)
}

// Scatter places one point per observation
func Scatter(x, y []float64, opts Options) (*Chart, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("scatter %q has %d x values and %d y values", opts.Title, len(x), len(y))
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("scatter %q has no values", opts.Title)
	}
	fill, err := ParseHexColor(opts.Color)
	if err != nil {
		return nil, err
	}

	points := make(plotter.XYs, len(x))
	for i := range x {
		points[i].X = x[i]
		points[i].Y = y[i]
	}

	p := newPlot(opts)
	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return nil, fmt.Errorf("failed to place points for %q: %w", opts.Title, err)
	}
	scatter.GlyphStyle.Color = fill
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter)
	p.Add(plotter.NewGrid())

	return render(p, opts)
}

// Bars draws one bar per label, each in its own palette color
func Bars(labels []string, values []float64, palette []string, opts Options) (*Chart, error) {
	if len(labels) != len(values) {
		return nil, fmt.Errorf("bar chart %q has %d labels and %d values", opts.Title, len(labels), len(values))
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("bar chart %q has no bars", opts.Title)
	}
	if len(palette) == 0 {
		palette = []string{opts.Color}
	}

	p := newPlot(opts)
	for i, v := range values {
		fill, err := ParseHexColor(palette[i%len(palette)])
		if err != nil {
			return nil, err
		}
		bar, err := plotter.NewBarChart(plotter.Values{v}, vg.Points(28))
		if err != nil {
			return nil, fmt.Errorf("failed to draw bar %s: %w", labels[i], err)
		}
		bar.XMin = float64(i)
		bar.Color = fill
		bar.LineStyle.Width = 0
		p.Add(bar)
	}
	p.NominalX(labels...)
	p.Y.Min = 0

	return render(p, opts)
}

func newPlot(opts Options) *plot.Plot {
	p := plot.New()
	p.Title.Text = opts.Title
	p.Title.TextStyle.Font.Size = vg.Points(9)
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.X.Label.TextStyle.Font.Size = vg.Points(8)
	p.Y.Label.TextStyle.Font.Size = vg.Points(8)
	p.X.Tick.Label.Font.Size = vg.Points(6)
	p.Y.Tick.Label.Font.Size = vg.Points(6)
	return p
}

func render(p *plot.Plot, opts Options) (*Chart, error) {
	size := opts.Size
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultSize()
	}

	writer, err := p.WriterTo(vg.Length(size.Width)*vg.Inch, vg.Length(size.Height)*vg.Inch, "svg")
	if err != nil {
		return nil, fmt.Errorf("failed to render %q: %w", opts.Title, err)
	}

	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write %q: %w", opts.Title, err)
	}
	return &Chart{Title: opts.Title, SVG: buf.Bytes()}, nil
}

// kdeCurve evaluates a Gaussian kernel density estimate over the data range,
// scaled by n*binWidth so it overlays raw counts. Scott's rule sets the
// bandwidth; nil is returned when the data has no spread.
func kdeCurve(values []float64, binWidth float64) plotter.XYs {
	n := float64(len(values))
	if n < 2 || binWidth <= 0 {
		return nil
	}
	std := stat.StdDev(values, nil)
	if std == 0 || math.IsNaN(std) {
		return nil
	}
	bandwidth := std * math.Pow(n, -1.0/5.0)

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	const steps = 120
	curve := make(plotter.XYs, steps)
	norm := 1 / (n * bandwidth * math.Sqrt(2*math.Pi))
	for s := 0; s < steps; s++ {
		x := lo + (hi-lo)*float64(s)/float64(steps-1)
		density := 0.0
		for _, v := range values {
			u := (x - v) / bandwidth
			density += math.Exp(-0.5 * u * u)
		}
		curve[s].X = x
		curve[s].Y = density * norm * n * binWidth
	}
	return curve
}

// ParseHexColor parses "#rrggbb" or "#rgb"
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func withAlpha(c color.RGBA, alpha uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: alpha}
}
