package narrative

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heartdash/internal/errors"
)

func TestDefault_EmbeddedDocuments(t *testing.T) {
	lib, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"clusters_intro", "clusters_outro", "intro", "model", "outliers", "scatter"}, lib.Names())

	intro, err := lib.Get("intro")
	require.NoError(t, err)
	assert.Contains(t, intro.Source, "¿Cómo generar alertas tempranas")
	assert.Contains(t, string(intro.HTML), "<h3")
}

func TestDefault_ModelMetricsAreLiteral(t *testing.T) {
	lib, err := Default()
	require.NoError(t, err)

	doc, err := lib.Get("model")
	require.NoError(t, err)

	html := string(doc.HTML)
	for _, want := range []string{"Accuracy: 0.75", "F1-score (muertos): 0.52", "F1-score (muertos): 0.57", "<code>n_estimators=178</code>", "<strong>Random Forest</strong>"} {
		assert.Contains(t, html, want)
	}
}

func TestGet_Unknown(t *testing.T) {
	lib, err := Default()
	require.NoError(t, err)

	_, err = lib.Get("alerts")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestLoad_CustomFS(t *testing.T) {
	fsys := fstest.MapFS{
		"note.md":    {Data: []byte("first line\nsecond line")},
		"ignore.txt": {Data: []byte("not markdown")},
	}

	lib, err := Load(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"note"}, lib.Names())

	doc, err := lib.Get("note")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(doc.HTML), "<br"), "single newlines become line breaks")
}
