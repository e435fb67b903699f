package curling

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMultipartFields(t *testing.T) {
	var p payload
	p.addPart(mimePart{name: "title", value: "hello"})
	p.addPart(mimePart{name: "count", value: "42"})

	body, contentType, err := p.encodeMultipart()
	require.NoError(t, err)

	parts := parseMultipart(t, body, contentType)
	assert.Equal(t, "hello", parts["title"])
	assert.Equal(t, "42", parts["count"])
}

func TestEncodeMultipartFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "upload.txt")
	require.NoError(t, os.WriteFile(path, []byte("file contents"), 0o600))

	var p payload
	p.addPart(mimePart{name: "doc", filePath: path, isFile: true})

	body, contentType, err := p.encodeMultipart()
	require.NoError(t, err)

	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	part, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "doc", part.FormName())
	assert.Equal(t, "upload.txt", part.FileName())

	data, err := io.ReadAll(part)
	require.NoError(t, err)
	assert.Equal(t, "file contents", string(data))
}

func TestEncodeMultipartMissingFile(t *testing.T) {
	var p payload
	p.addPart(mimePart{name: "doc", filePath: filepath.Join(t.TempDir(), "absent.txt"), isFile: true})

	_, _, err := p.encodeMultipart()
	require.Error(t, err)
	assert.True(t, IsErrorType(err, MimeError))
}

func TestPayloadTransitions(t *testing.T) {
	var p payload

	p.setPlain("text")
	assert.Equal(t, payloadPlain, p.kind)
	assert.Equal(t, "text", p.text)

	p.clear()
	assert.Equal(t, payloadEmpty, p.kind)

	p.addPart(mimePart{name: "a", value: "1"})
	assert.Equal(t, payloadMultipart, p.kind)
	assert.Empty(t, p.text)
	assert.Len(t, p.parts, 1)
}

func parseMultipart(t *testing.T, body []byte, contentType string) map[string]string {
	t.Helper()

	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	parts := make(map[string]string)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(part)
		require.NoError(t, err)
		parts[part.FormName()] = string(data)
	}
	return parts
}
