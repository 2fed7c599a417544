package httpclient

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/url"
)

// BodyKind identifies the variant of a request body. The kind is decided
// once when the body is constructed; nothing downstream re-sniffs types.
type BodyKind int

const (
	// BodyNone is the absence of a body.
	BodyNone BodyKind = iota
	// BodyText is a plain text payload.
	BodyText
	// BodyForm is a URL-encoded key/value form.
	BodyForm
	// BodyJSON is a structured value encoded as JSON at snapshot time.
	BodyJSON
	// BodyBytes is a raw byte payload.
	BodyBytes
	// BodyMultipart is a multipart/form-data payload assembled at snapshot time.
	BodyMultipart
	// BodyReader is a live byte stream. It is consumed by its first attempt
	// and cannot be replayed on retries.
	BodyReader
)

// Body is a closed tagged variant of request payloads. Construct one with
// None, Text, Form, JSON, Bytes, Multipart, or Reader.
type Body struct {
	kind        BodyKind
	text        string
	form        url.Values
	value       any
	raw         []byte
	fill        func(*multipart.Writer) error
	reader      io.Reader
	contentType string
}

// None returns the empty body.
func None() *Body {
	return &Body{kind: BodyNone}
}

// Text returns a plain text body.
func Text(s string) *Body {
	return &Body{kind: BodyText, text: s}
}

// Form returns a URL-encoded form body.
func Form(v url.Values) *Body {
	return &Body{kind: BodyForm, form: v}
}

// JSON returns a body holding a structured value. The value is encoded
// exactly once, when the request body is frozen for dispatch; it is never
// mutated.
func JSON(v any) *Body {
	return &Body{kind: BodyJSON, value: v}
}

// Bytes returns a raw byte body. An empty contentType defaults to
// application/octet-stream.
func Bytes(b []byte, contentType string) *Body {
	return &Body{kind: BodyBytes, raw: b, contentType: contentType}
}

// Multipart returns a multipart/form-data body. fill writes the parts; it
// runs once, when the body is frozen.
func Multipart(fill func(w *multipart.Writer) error) *Body {
	return &Body{kind: BodyMultipart, fill: fill}
}

// Reader returns a streaming body. It is not replayable: a request carrying
// one fails with a body_replay error the moment a retry is attempted.
func Reader(r io.Reader, contentType string) *Body {
	return &Body{kind: BodyReader, reader: r, contentType: contentType}
}

// Kind returns the body's variant. A nil body is BodyNone.
func (b *Body) Kind() BodyKind {
	if b == nil {
		return BodyNone
	}
	return b.kind
}

// Replayable reports whether the body can be resubmitted on a retry
// attempt. Only live streams are not replayable.
func (b *Body) Replayable() bool {
	return b.Kind() != BodyReader
}

// preparedBody is the frozen wire form of a Body, produced once per request
// and reused on every attempt. For replayable bodies data holds the exact
// bytes to send; for streams the reader is handed out once.
type preparedBody struct {
	data        []byte
	reader      io.Reader
	contentType string
	replayable  bool
}

// snapshot freezes the body into its wire form. The caller's value is never
// mutated; every retry attempt replays the same frozen bytes.
func (b *Body) snapshot() (*preparedBody, error) {
	switch b.Kind() {
	case BodyNone:
		return &preparedBody{replayable: true}, nil
	case BodyText:
		ct := b.contentType
		if ct == "" {
			ct = "text/plain;charset=utf-8"
		}
		return &preparedBody{data: []byte(b.text), contentType: ct, replayable: true}, nil
	case BodyForm:
		return &preparedBody{
			data:        []byte(b.form.Encode()),
			contentType: "application/x-www-form-urlencoded",
			replayable:  true,
		}, nil
	case BodyJSON:
		data, err := json.Marshal(b.value)
		if err != nil {
			return nil, NewValidationError("request body is not JSON-encodable", "body")
		}
		return &preparedBody{data: data, contentType: "application/json;charset=utf-8", replayable: true}, nil
	case BodyBytes:
		ct := b.contentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		frozen := make([]byte, len(b.raw))
		copy(frozen, b.raw)
		return &preparedBody{data: frozen, contentType: ct, replayable: true}, nil
	case BodyMultipart:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		if err := b.fill(w); err != nil {
			return nil, NewValidationError("failed to assemble multipart body: "+err.Error(), "body")
		}
		if err := w.Close(); err != nil {
			return nil, NewValidationError("failed to finalize multipart body: "+err.Error(), "body")
		}
		return &preparedBody{data: buf.Bytes(), contentType: w.FormDataContentType(), replayable: true}, nil
	case BodyReader:
		ct := b.contentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		return &preparedBody{reader: streamBody{b.reader}, contentType: ct, replayable: false}, nil
	default:
		return nil, NewValidationError("unknown body kind", "body")
	}
}

// streamBody hides the concrete reader type so net/http treats the body as
// an unbounded stream rather than sniffing a Content-Length from it.
type streamBody struct{ io.Reader }

// newReader returns the reader for one attempt. Frozen bodies get a fresh
// reader over the same bytes; a stream body yields its reader exactly once.
func (p *preparedBody) newReader() io.Reader {
	if p.data != nil {
		return bytes.NewReader(p.data)
	}
	if p.reader != nil {
		r := p.reader
		p.reader = nil
		return r
	}
	return nil
}

func (p *preparedBody) empty() bool {
	return p.data == nil && p.reader == nil
}
