package charts

import (
	"encoding/base64"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opts(title string) Options {
	return Options{Title: title, XLabel: "x", YLabel: "y", Color: "#2e7d32"}
}

func TestHistogram(t *testing.T) {
	values := []float64{1.1, 1.3, 1.9, 2.5, 0.9, 1.0, 1.2, 9.4}

	chart, err := Histogram(values, 30, opts("Serum Creatinine"))
	require.NoError(t, err)

	assert.Equal(t, "Serum Creatinine", chart.Title)
	assert.Contains(t, string(chart.SVG), "<svg")
	assert.Contains(t, string(chart.SVG), "Serum Creatinine")
}

func TestHistogram_ConstantValues(t *testing.T) {
	chart, err := Histogram([]float64{38, 38, 38}, 30, opts("Ejection Fraction"))
	require.NoError(t, err)
	assert.NotEmpty(t, chart.SVG)
}

func TestHistogram_Empty(t *testing.T) {
	_, err := Histogram(nil, 30, opts("empty"))
	assert.Error(t, err)
}

func TestBoxPlot(t *testing.T) {
	chart, err := BoxPlot([]float64{150000, 262000, 263000, 265000, 850000}, Options{Title: "Plaquetas", Color: "#4db6ac"})
	require.NoError(t, err)
	assert.Contains(t, string(chart.SVG), "Plaquetas")
}

func TestScatter(t *testing.T) {
	chart, err := Scatter([]float64{75, 55, 65}, []float64{1, 0, 1}, Options{Title: "Edad vs Muerte", Color: "#43a047"})
	require.NoError(t, err)
	assert.Contains(t, string(chart.SVG), "Edad vs Muerte")

	_, err = Scatter([]float64{1}, []float64{1, 2}, opts("mismatch"))
	assert.Error(t, err)
}

func TestBars(t *testing.T) {
	chart, err := Bars([]string{"0", "1", "2"}, []float64{120, 99, 80},
		[]string{"#66c2a5", "#fc8d62", "#8da0cb"},
		Options{Title: "Distribución de Clusters", XLabel: "Cluster", YLabel: "Número de Pacientes"})
	require.NoError(t, err)
	assert.Contains(t, string(chart.SVG), "Cluster")

	_, err = Bars([]string{"0"}, []float64{1, 2}, nil, opts("mismatch"))
	assert.Error(t, err)
}

func TestDataURI(t *testing.T) {
	chart := &Chart{Title: "t", SVG: []byte("<svg/>")}
	uri := string(chart.DataURI())

	require.True(t, strings.HasPrefix(uri, "data:image/svg+xml;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/svg+xml;base64,"))
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(decoded))
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#004d40")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x00, G: 0x4d, B: 0x40, A: 0xff}, c)

	c, err = ParseHexColor("fff")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, c)

	for _, bad := range []string{"", "#12345", "#gggggg", "gray"} {
		_, err := ParseHexColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestKDECurve(t *testing.T) {
	assert.Nil(t, kdeCurve([]float64{5, 5, 5}, 1))
	curve := kdeCurve([]float64{1, 2, 3, 4}, 1)
	require.Len(t, curve, 120)
	assert.Equal(t, 1.0, curve[0].X)
	assert.Equal(t, 4.0, curve[len(curve)-1].X)
}
