package ui

import (
	"context"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"heartdash/domain/patient"
	"heartdash/internal/dashboard"
	"heartdash/internal/errors"
	"heartdash/internal/narrative"
	"heartdash/internal/testkit"
	"heartdash/ui/middleware"
)

type tableSource struct {
	table *patient.Table
	err   error
}

func (s *tableSource) Load(ctx context.Context) (*patient.Table, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.table, nil
}

func (s *tableSource) Describe() string { return "memory" }

func newTestServer(t *testing.T, source *tableSource) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	layout, err := dashboard.DefaultLayout()
	require.NoError(t, err)
	library, err := narrative.Default()
	require.NoError(t, err)
	renderer, err := dashboard.NewRenderer(layout, library)
	require.NoError(t, err)

	server, err := NewServer(renderer, source)
	require.NoError(t, err)
	return server
}

func generatedSource(t *testing.T) *tableSource {
	t.Helper()
	table, err := testkit.NewPatientDataGenerator(testkit.DefaultPatientConfig()).GenerateTable()
	require.NoError(t, err)
	return &tableSource{table: table}
}

func get(t *testing.T, server *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndex_DefaultPage(t *testing.T) {
	server := newTestServer(t, generatedSource(t))

	rec := get(t, server, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, "Dashboard de Decisiones Clínicas")
	assert.Contains(t, body, "1. Variables clínicas relevantes")
	assert.Contains(t, body, "5. Agrupamiento de perfiles clínicos")
	assert.Contains(t, body, `alt="Plaquetas"`)
	assert.Contains(t, body, `alt="Distribución de Clusters"`)
	// html/template escapes the plus sign of the data URI media type
	assert.Contains(t, body, "data:image/svg&#43;xml;base64,")
	assert.Equal(t, 4, strings.Count(html.UnescapeString(body), `src="data:image/svg+xml;base64,`))
	assert.Equal(t, 4, strings.Count(body, `<figure class="chart"`))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(body), "</html>"))
}

func TestIndex_SubmittedEmptySelection(t *testing.T) {
	server := newTestServer(t, generatedSource(t))

	rec := get(t, server, "/?submitted=1")
	require.Equal(t, http.StatusOK, rec.Code)

	// only the cluster chart remains
	assert.Equal(t, 1, strings.Count(rec.Body.String(), `<figure class="chart"`))
}

func TestIndex_SourceFailure(t *testing.T) {
	server := newTestServer(t, &tableSource{err: errors.DataSource("CSV file not found: historiales_clinicos.csv", nil)})

	rec := get(t, server, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "DATA_SOURCE_ERROR")
	assert.Contains(t, rec.Body.String(), "CSV file not found")
	assert.NotContains(t, rec.Body.String(), "<figure")
}

func TestView_Selections(t *testing.T) {
	server := newTestServer(t, generatedSource(t))

	rec := get(t, server, "/api/view?submitted=1&hist=serum_creatinine&hist=serum_sodium&scatter=age")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Equal(t, int64(299), gjson.Get(body, "rows").Int())
	assert.Equal(t, int64(2), gjson.Get(body, `sections.#(id=="hist").charts.#`).Int())
	assert.Equal(t, int64(0), gjson.Get(body, `sections.#(id=="outliers").charts.#`).Int())

	scatter := gjson.Get(body, `sections.#(id=="scatter").charts.0`)
	assert.Equal(t, "Edad vs Muerte", scatter.Get("title").String())
	assert.Equal(t, int64(299), scatter.Get("points").Int())
	assert.Equal(t, "memory", gjson.Get(body, "source").String())
}

func TestView_UnlistedVariable(t *testing.T) {
	server := newTestServer(t, generatedSource(t))

	rec := get(t, server, "/api/view?outliers=age")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Equal(t, errors.CodeInvalidInput, gjson.Get(body, `sections.#(id=="outliers").code`).String())
	assert.Equal(t, int64(1), gjson.Get(body, `sections.#(id=="hist").charts.#`).Int())
}

func TestClusters(t *testing.T) {
	server := newTestServer(t, generatedSource(t))

	first := get(t, server, "/api/clusters")
	require.Equal(t, http.StatusOK, first.Code)
	second := get(t, server, "/api/clusters")
	require.Equal(t, http.StatusOK, second.Code)

	counts := gjson.Get(first.Body.String(), "clusters.counts")
	require.Len(t, counts.Array(), 3)
	total := int64(0)
	for _, c := range counts.Array() {
		total += c.Int()
	}
	assert.Equal(t, int64(299), total)
	assert.Equal(t, counts.Raw, gjson.Get(second.Body.String(), "clusters.counts").Raw)
	assert.Equal(t, int64(42), gjson.Get(first.Body.String(), "clusters.seed").Int())
	assert.Len(t, gjson.Get(first.Body.String(), "clusters.profiles").Array(), 3)
}

func TestLayout(t *testing.T) {
	server := newTestServer(t, generatedSource(t))

	rec := get(t, server, "/api/layout")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Equal(t, int64(6), gjson.Get(body, "sections.#").Int())
	assert.Equal(t, "Plaquetas", gjson.Get(body, `sections.#(id=="outliers").options.#(key=="platelets").title`).String())
	assert.Equal(t, "Edad", gjson.Get(body, `sections.#(id=="scatter").options.0.label`).String())
}

func TestChart(t *testing.T) {
	server := newTestServer(t, generatedSource(t))

	rec := get(t, server, "/api/charts/hist/serum_sodium")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = get(t, server, "/api/charts/clusters/counts")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, server, "/api/charts/hist/platelets")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.CodeNotFound, gjson.Get(rec.Body.String(), "code").String())
}

func TestHealth(t *testing.T) {
	server := newTestServer(t, generatedSource(t))

	rec := get(t, server, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())
}

func TestStatic(t *testing.T) {
	server := newTestServer(t, generatedSource(t))

	rec := get(t, server, "/static/css/dashboard.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "#004d40")
}

func TestRequestID(t *testing.T) {
	server := newTestServer(t, generatedSource(t))

	req := httptest.NewRequest(http.MethodGet, "/api/view", nil)
	req.Header.Set(middleware.RequestIDHeader, "0191B4A2-7C1E-7000-8000-000000000001")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0191b4a2-7c1e-7000-8000-000000000001", rec.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "0191b4a2-7c1e-7000-8000-000000000001", gjson.Get(rec.Body.String(), "render_id").String())

	rec = get(t, server, "/healthz")
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(errors.NotFound("x")))
	assert.Equal(t, http.StatusBadRequest, statusFor(errors.InvalidInput("x")))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.MissingColumn("x")))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

func TestPages_InlineSnapshot(t *testing.T) {
	pages, err := NewPages()
	require.NoError(t, err)

	var buf strings.Builder
	err = pages.Dashboard(&buf, Page{View: &dashboard.View{Title: "Snapshot"}, InlineCSS: true})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<style>")
	assert.Contains(t, buf.String(), "#004d40")
	assert.NotContains(t, buf.String(), `href="/static/css/dashboard.css"`)
}
