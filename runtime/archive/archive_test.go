package archive_test

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmplforge/doctpl/runtime/archive"
)

// buildContainer assembles a minimal valid container, padded past the
// 1000-byte floor so the size check doesn't interfere with other cases.
func buildContainer(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	data := buf.Bytes()
	if len(data) < 1000 {
		pad := make([]byte, 1000-len(data))
		data = append(data, pad...)
	}
	return data
}

func validParts() map[string]string {
	return map[string]string{
		archive.PartContentTypes:  "<Types/>",
		archive.PartRelationships: "<Relationships/>",
		archive.PartMainDocument:  "<w:document>hello</w:document>",
		"word/styles.xml":         "<w:styles/>",
	}
}

func TestOpen_ValidContainerExposesMainAndPassthroughParts(t *testing.T) {
	data := buildContainer(t, validParts())
	a, err := archive.Open(data)
	require.NoError(t, err)
	assert.Equal(t, "<w:document>hello</w:document>", a.ReadMain())
	styles, ok := a.Part("word/styles.xml")
	require.True(t, ok)
	assert.Equal(t, "<w:styles/>", string(styles))
}

func TestOpen_TooSmallRejected(t *testing.T) {
	_, err := archive.Open([]byte("PK\x03\x04short"))
	require.Error(t, err)
	var aerr *archive.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, archive.ErrTooSmall, aerr.Kind)
}

func TestOpen_MissingMainPartRejected(t *testing.T) {
	parts := map[string]string{
		archive.PartContentTypes:  "<Types/>",
		archive.PartRelationships: "<Relationships/>",
		"word/styles.xml":         "<w:styles/>",
	}
	data := buildContainer(t, parts)
	_, err := archive.Open(data)
	require.Error(t, err)
	var aerr *archive.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, archive.ErrMissingPart, aerr.Kind)
}

func TestOpen_MissingRelationshipsPartRejected(t *testing.T) {
	parts := map[string]string{
		archive.PartContentTypes: "<Types/>",
		archive.PartMainDocument: "<w:document>hello</w:document>",
		"word/styles.xml":        "<w:styles/>",
	}
	data := buildContainer(t, parts)
	_, err := archive.Open(data)
	require.Error(t, err)
	var aerr *archive.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, archive.ErrMissingPart, aerr.Kind)
}

func TestOpen_NotAZipRejected(t *testing.T) {
	junk := append([]byte("not a zip file at all"), make([]byte, 1000)...)
	_, err := archive.Open(junk)
	require.Error(t, err)
	var aerr *archive.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, archive.ErrInvalidContainer, aerr.Kind)
}

func TestWriteMainAndPack_RoundTrips(t *testing.T) {
	data := buildContainer(t, validParts())
	a, err := archive.Open(data)
	require.NoError(t, err)

	a.WriteMain("<w:document>rewritten</w:document>")
	packed, err := a.Pack()
	require.NoError(t, err)

	a2, err := archive.Open(packed)
	require.NoError(t, err)
	assert.Equal(t, "<w:document>rewritten</w:document>", a2.ReadMain())
	styles, ok := a2.Part("word/styles.xml")
	require.True(t, ok)
	assert.True(t, strings.Contains(string(styles), "w:styles"))
}
