package httpclient

import (
	"io"
	"mime/multipart"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyKindClassification(t *testing.T) {
	tests := []struct {
		name       string
		body       *Body
		kind       BodyKind
		replayable bool
	}{
		{"nil body", nil, BodyNone, true},
		{"none", None(), BodyNone, true},
		{"text", Text("hello"), BodyText, true},
		{"form", Form(url.Values{"a": {"1"}}), BodyForm, true},
		{"json", JSON(map[string]int{"a": 1}), BodyJSON, true},
		{"bytes", Bytes([]byte{1, 2, 3}, ""), BodyBytes, true},
		{"multipart", Multipart(func(*multipart.Writer) error { return nil }), BodyMultipart, true},
		{"reader", Reader(strings.NewReader("x"), ""), BodyReader, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.body.Kind())
			assert.Equal(t, tt.replayable, tt.body.Replayable())
		})
	}
}

func TestTextSnapshot(t *testing.T) {
	prep, err := Text("hello world").snapshot()
	require.NoError(t, err)

	assert.True(t, prep.replayable)
	assert.Equal(t, "hello world", string(prep.data))
	assert.Equal(t, "text/plain;charset=utf-8", prep.contentType)
}

func TestFormSnapshot(t *testing.T) {
	form := url.Values{"name": {"go"}, "tags": {"a", "b"}}
	prep, err := Form(form).snapshot()
	require.NoError(t, err)

	assert.Equal(t, "application/x-www-form-urlencoded", prep.contentType)
	decoded, err := url.ParseQuery(string(prep.data))
	require.NoError(t, err)
	assert.Equal(t, form, decoded)
}

func TestJSONSnapshotDoesNotMutateOriginal(t *testing.T) {
	original := map[string]any{"a": 1, "nested": map[string]any{"b": 2}}
	body := JSON(original)

	prep, err := body.snapshot()
	require.NoError(t, err)

	assert.Equal(t, "application/json;charset=utf-8", prep.contentType)
	assert.JSONEq(t, `{"a":1,"nested":{"b":2}}`, string(prep.data))

	// Mutating the caller's value after the snapshot must not change the
	// frozen bytes.
	original["a"] = 99
	assert.JSONEq(t, `{"a":1,"nested":{"b":2}}`, string(prep.data))
}

func TestJSONSnapshotRejectsUnencodableValue(t *testing.T) {
	_, err := JSON(func() {}).snapshot()
	assert.True(t, IsErrorType(err, ValidationError))
}

func TestBytesSnapshotFreezesCopy(t *testing.T) {
	raw := []byte{1, 2, 3}
	prep, err := Bytes(raw, "application/cbor").snapshot()
	require.NoError(t, err)

	raw[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, prep.data)
	assert.Equal(t, "application/cbor", prep.contentType)
}

func TestBytesSnapshotDefaultContentType(t *testing.T) {
	prep, err := Bytes([]byte("x"), "").snapshot()
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", prep.contentType)
}

func TestMultipartSnapshot(t *testing.T) {
	body := Multipart(func(w *multipart.Writer) error {
		if err := w.WriteField("field", "value"); err != nil {
			return err
		}
		fw, err := w.CreateFormFile("file", "data.txt")
		if err != nil {
			return err
		}
		_, err = fw.Write([]byte("file contents"))
		return err
	})

	prep, err := body.snapshot()
	require.NoError(t, err)
	assert.True(t, prep.replayable)
	assert.Contains(t, prep.contentType, "multipart/form-data; boundary=")
	assert.Contains(t, string(prep.data), "file contents")
	assert.Contains(t, string(prep.data), `name="field"`)
}

func TestReaderSnapshotYieldsReaderExactlyOnce(t *testing.T) {
	prep, err := Reader(strings.NewReader("stream"), "").snapshot()
	require.NoError(t, err)
	assert.False(t, prep.replayable)

	first := prep.newReader()
	require.NotNil(t, first)
	data, err := io.ReadAll(first)
	require.NoError(t, err)
	assert.Equal(t, "stream", string(data))

	assert.Nil(t, prep.newReader())
}

func TestFrozenBodyYieldsFreshReaderPerAttempt(t *testing.T) {
	prep, err := Text("replay me").snapshot()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		data, err := io.ReadAll(prep.newReader())
		require.NoError(t, err)
		assert.Equal(t, "replay me", string(data))
	}
}

func TestEmptyBodies(t *testing.T) {
	prep, err := None().snapshot()
	require.NoError(t, err)
	assert.True(t, prep.empty())

	var nilBody *Body
	prep, err = nilBody.snapshot()
	require.NoError(t, err)
	assert.True(t, prep.empty())
}
