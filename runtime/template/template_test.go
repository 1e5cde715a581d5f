package template_test

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmplforge/doctpl/runtime/archive"
	"github.com/tmplforge/doctpl/runtime/template"
)

func buildDoc(t *testing.T, mainXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := map[string]string{
		archive.PartContentTypes:  "<Types/>",
		archive.PartRelationships: "<Relationships/>",
		archive.PartMainDocument:  mainXML,
		"word/styles.xml":         "<w:styles/>",
	}
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	data := buf.Bytes()
	if len(data) < 1000 {
		data = append(data, make([]byte, 1000-len(data))...)
	}
	return data
}

func TestOpenAndRender_SimpleLoop(t *testing.T) {
	doc := buildDoc(t, `<w:p><w:r><w:t>Users:</w:t></w:r></w:p>`+
		`${#each users}<w:p><w:r><w:t>- ${this.name}: ${this.score} points</w:t></w:r></w:p>${/each}`)

	tpl, err := template.Open(doc, template.Config{})
	require.NoError(t, err)

	data := map[string]interface{}{
		"users": []interface{}{
			map[string]interface{}{"name": "Alice", "score": 95},
			map[string]interface{}{"name": "Bob", "score": 87},
		},
	}
	res, err := tpl.Render(doc, data)
	require.NoError(t, err)

	a, err := archive.Open(res.Output)
	require.NoError(t, err)
	main := a.ReadMain()
	assert.Contains(t, main, "- Alice: 95 points")
	assert.Contains(t, main, "- Bob: 87 points")
}

func TestRender_EmptyDataWithNoDirectivesIsIdentity(t *testing.T) {
	doc := buildDoc(t, `<w:p><w:r><w:t>No directives here.</w:t></w:r></w:p>`)
	tpl, err := template.Open(doc, template.Config{})
	require.NoError(t, err)

	res, err := tpl.Render(doc, map[string]interface{}{})
	require.NoError(t, err)

	a, err := archive.Open(res.Output)
	require.NoError(t, err)
	assert.Equal(t, `<w:p><w:r><w:t>No directives here.</w:t></w:r></w:p>`, a.ReadMain())
}

func TestValidate_ReportsDirectiveCount(t *testing.T) {
	doc := buildDoc(t, `${#each items}${this}${/each}`)
	tpl, err := template.Open(doc, template.Config{})
	require.NoError(t, err)

	rep, err := tpl.Validate(doc)
	require.NoError(t, err)
	assert.True(t, rep.Valid)
	assert.Equal(t, 1, rep.Statistics.Loops)
}

func TestRenderBatch_PreservesOrderAndTagsFailuresIndependently(t *testing.T) {
	doc := buildDoc(t, `${name}`)
	tpl, err := template.Open(doc, template.Config{})
	require.NoError(t, err)

	datas := []interface{}{
		map[string]interface{}{"name": "one"},
		map[string]interface{}{"name": "two"},
		map[string]interface{}{"name": "three"},
	}
	results := tpl.RenderBatch(context.Background(), doc, datas, template.BatchOptions{BatchSize: 2})
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.True(t, r.Success)
	}
}

func TestRenderBatch_RespectsBatchDelay(t *testing.T) {
	doc := buildDoc(t, `${name}`)
	tpl, err := template.Open(doc, template.Config{})
	require.NoError(t, err)

	datas := []interface{}{
		map[string]interface{}{"name": "a"},
		map[string]interface{}{"name": "b"},
	}
	start := time.Now()
	results := tpl.RenderBatch(context.Background(), doc, datas, template.BatchOptions{BatchSize: 1, BatchDelay: 20 * time.Millisecond})
	elapsed := time.Since(start)
	require.Len(t, results, 2)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
}

func TestOpen_RejectsTooSmallArchive(t *testing.T) {
	_, err := template.Open([]byte("short"), template.Config{})
	require.Error(t, err)
	var terr *template.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, template.KindArchive, terr.Kind)
}

func TestRender_RejectsNonObjectTopLevelData(t *testing.T) {
	doc := buildDoc(t, `${x}`)
	tpl, err := template.Open(doc, template.Config{})
	require.NoError(t, err)

	_, err = tpl.Render(doc, []interface{}{1, 2, 3})
	require.Error(t, err)
	var terr *template.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, template.KindInputDataInvalid, terr.Kind)
}
