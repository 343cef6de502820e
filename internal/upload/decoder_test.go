package upload

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bodyPart struct {
	name     string
	filename string
	content  string
}

func buildBody(t *testing.T, parts []bodyPart) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		var (
			dst io.Writer
			err error
		)
		if p.filename != "" {
			dst, err = w.CreateFormFile(p.name, p.filename)
		} else {
			dst, err = w.CreateFormField(p.name)
		}
		require.NoError(t, err)
		_, err = io.WriteString(dst, p.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return &buf, w.Boundary()
}

func TestDecoderSequencing(t *testing.T) {
	body, boundary := buildBody(t, []bodyPart{
		{name: "photo", filename: "cat.jpg", content: "fake image bytes"},
		{name: "caption", content: "my cat"},
		{name: "album", content: "pets"},
	})

	d, err := NewDecoder(body, boundary, Options{})
	require.NoError(t, err)

	file, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, KindFile, file.Kind)
	assert.Equal(t, "photo", file.Name)
	assert.Equal(t, "cat.jpg", file.Filename)

	data, err := io.ReadAll(file.Reader)
	require.NoError(t, err)
	assert.Equal(t, "fake image bytes", string(data))

	caption, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, KindField, caption.Kind)
	assert.Equal(t, "caption", caption.Name)
	assert.Equal(t, "my cat", caption.Value)

	album, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, "pets", album.Value)

	_, err = d.Next()
	assert.ErrorIs(t, err, io.EOF)

	// The sequence is single-pass; trying again is a programming error
	_, err = d.Next()
	assert.ErrorIs(t, err, ErrExhausted)
	_, err = d.Next()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestDecoderDiscardsUndrainedFile(t *testing.T) {
	body, boundary := buildBody(t, []bodyPart{
		{name: "photo", filename: "big.bin", content: strings.Repeat("x", 4096)},
		{name: "caption", content: "skipped the file"},
	})

	d, err := NewDecoder(body, boundary, Options{})
	require.NoError(t, err)

	_, err = d.Next()
	require.NoError(t, err)

	// File reader never touched; Next drains it internally
	caption, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, "skipped the file", caption.Value)
}

func TestDecoderFieldTooLarge(t *testing.T) {
	body, boundary := buildBody(t, []bodyPart{
		{name: "comment", content: strings.Repeat("a", 100)},
	})

	d, err := NewDecoder(body, boundary, Options{MaxFieldBytes: 99})
	require.NoError(t, err)

	_, err = d.Next()
	assert.ErrorIs(t, err, ErrFieldTooLarge)
}

func TestDecoderFieldAtLimit(t *testing.T) {
	body, boundary := buildBody(t, []bodyPart{
		{name: "comment", content: strings.Repeat("a", 100)},
	})

	d, err := NewDecoder(body, boundary, Options{MaxFieldBytes: 100})
	require.NoError(t, err)

	part, err := d.Next()
	require.NoError(t, err)
	assert.Len(t, part.Value, 100)
}

func TestDecoderFileTooLarge(t *testing.T) {
	body, boundary := buildBody(t, []bodyPart{
		{name: "photo", filename: "huge.bin", content: strings.Repeat("x", 5000)},
	})

	d, err := NewDecoder(body, boundary, Options{MaxFileBytes: 1000})
	require.NoError(t, err)

	part, err := d.Next()
	require.NoError(t, err)

	_, err = io.Copy(io.Discard, part.Reader)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	// The capped reader stays poisoned
	_, err = part.Reader.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestDecoderOversizedFileDiscardAborts(t *testing.T) {
	body, boundary := buildBody(t, []bodyPart{
		{name: "photo", filename: "huge.bin", content: strings.Repeat("x", 5000)},
		{name: "caption", content: "never reached"},
	})

	d, err := NewDecoder(body, boundary, Options{MaxFileBytes: 1000})
	require.NoError(t, err)

	_, err = d.Next()
	require.NoError(t, err)

	_, err = d.Next()
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestDecoderMalformed(t *testing.T) {
	t.Run("missing boundary", func(t *testing.T) {
		_, err := NewDecoder(strings.NewReader("whatever"), "", Options{})
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("body without boundary marker", func(t *testing.T) {
		d, err := NewDecoder(strings.NewReader("this is not multipart at all"), "expected-boundary", Options{})
		require.NoError(t, err)

		_, err = d.Next()
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestFromRequest(t *testing.T) {
	t.Run("multipart request", func(t *testing.T) {
		body, boundary := buildBody(t, []bodyPart{{name: "caption", content: "hi"}})
		req := httptest.NewRequest("POST", "/api/photos", body)
		req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)

		d, err := FromRequest(req, Options{})
		require.NoError(t, err)

		part, err := d.Next()
		require.NoError(t, err)
		assert.Equal(t, "hi", part.Value)
	})

	t.Run("non-multipart content type", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/photos", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")

		_, err := FromRequest(req, Options{})
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("multipart without boundary param", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/photos", strings.NewReader(""))
		req.Header.Set("Content-Type", "multipart/form-data")

		_, err := FromRequest(req, Options{})
		assert.ErrorIs(t, err, ErrMalformed)
	})
}
