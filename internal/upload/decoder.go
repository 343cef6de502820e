package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

var (
	// ErrMalformed means the body does not follow the declared
	// multipart framing (missing or bad boundary, truncated part)
	ErrMalformed = errors.New("malformed multipart body")
	// ErrFieldTooLarge means a text field exceeded MaxFieldBytes
	ErrFieldTooLarge = errors.New("multipart field too large")
	// ErrFileTooLarge means a file part exceeded MaxFileBytes mid-stream
	ErrFileTooLarge = errors.New("multipart file too large")
	// ErrExhausted means Next was called after the stream already
	// finished; the part sequence is single-pass and cannot restart
	ErrExhausted = errors.New("multipart stream already consumed")
)

type PartKind int

const (
	KindField PartKind = iota
	KindFile
)

// Part is one decoded segment of the stream: either a small buffered
// text field or a file whose bytes are read incrementally from Reader.
// A file part's Reader is only valid until the next call to Next.
type Part struct {
	Kind        PartKind
	Name        string
	Filename    string
	ContentType string
	Value       string    // field parts
	Reader      io.Reader // file parts
}

type Options struct {
	MaxFieldBytes int64 // default 64 KiB
	MaxFileBytes  int64 // default 10 MiB
}

func (o *Options) withDefaults() {
	if o.MaxFieldBytes <= 0 {
		o.MaxFieldBytes = 64 << 10
	}
	if o.MaxFileBytes <= 0 {
		o.MaxFileBytes = 10 << 20
	}
}

// Decoder walks a multipart body one part at a time without ever
// buffering the whole stream. Parts share the one underlying network
// stream, so they arrive strictly in order and each file part must be
// drained before the next part becomes readable; Next discards any
// undrained remainder itself.
type Decoder struct {
	reader  *multipart.Reader
	opts    Options
	current *fileReader
	done    bool
}

// NewDecoder wraps a raw body stream with a known boundary.
func NewDecoder(r io.Reader, boundary string, opts Options) (*Decoder, error) {
	if boundary == "" {
		return nil, fmt.Errorf("%w: missing boundary", ErrMalformed)
	}
	opts.withDefaults()

	return &Decoder{reader: multipart.NewReader(r, boundary), opts: opts}, nil
}

// FromRequest builds a decoder from a request declared as multipart,
// taking the boundary from the Content-Type header.
func FromRequest(req *http.Request, opts Options) (*Decoder, error) {
	mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: bad content type: %v", ErrMalformed, err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return nil, fmt.Errorf("%w: content type %q is not multipart", ErrMalformed, mediaType)
	}

	return NewDecoder(req.Body, params["boundary"], opts)
}

// Next yields the next part, io.EOF when the stream is cleanly
// finished, and ErrExhausted on any call after that. Field parts are
// buffered up to MaxFieldBytes; file parts expose a reader capped at
// MaxFileBytes.
func (d *Decoder) Next() (*Part, error) {
	if d.done {
		return nil, ErrExhausted
	}

	// The previous file part owns the stream until fully read
	if d.current != nil {
		if _, err := io.Copy(io.Discard, d.current); err != nil {
			d.done = true
			return nil, err
		}
		d.current = nil
	}

	raw, err := d.reader.NextPart()
	if err != nil {
		d.done = true
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if raw.FileName() == "" {
		return d.readField(raw)
	}
	return d.openFile(raw), nil
}

func (d *Decoder) readField(raw *multipart.Part) (*Part, error) {
	// One extra byte distinguishes "exactly at the cap" from "over it"
	data, err := io.ReadAll(io.LimitReader(raw, d.opts.MaxFieldBytes+1))
	if err != nil {
		d.done = true
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if int64(len(data)) > d.opts.MaxFieldBytes {
		d.done = true
		return nil, ErrFieldTooLarge
	}

	return &Part{Kind: KindField, Name: raw.FormName(), Value: string(data)}, nil
}

func (d *Decoder) openFile(raw *multipart.Part) *Part {
	d.current = &fileReader{part: raw, limit: d.opts.MaxFileBytes}

	return &Part{
		Kind:        KindFile,
		Name:        raw.FormName(),
		Filename:    raw.FileName(),
		ContentType: raw.Header.Get("Content-Type"),
		Reader:      d.current,
	}
}

// fileReader caps a file part's byte stream. Once the cap is crossed
// it returns ErrFileTooLarge and keeps returning it, so neither the
// caller nor Next's discard pass can pull the rest of an oversized
// upload into the process.
type fileReader struct {
	part  io.Reader
	limit int64
	read  int64
	err   error
}

func (f *fileReader) Read(b []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}

	n, err := f.part.Read(b)
	f.read += int64(n)
	if f.read > f.limit {
		f.err = ErrFileTooLarge
		return 0, f.err
	}
	if err != nil && !errors.Is(err, io.EOF) {
		f.err = err
	}

	return n, err
}
