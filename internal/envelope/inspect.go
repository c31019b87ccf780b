package envelope

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/Nivl/otel-kafka-check/internal/errutil"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/valyala/fastjson"
)

// Supported values of the content-encoding header
const (
	EncodingIdentity = "identity"
	EncodingGzip     = "gzip"
	EncodingZstd     = "zstd"
)

// DefaultMaxDecodedSize is the default maximum size of a decompressed
// value
const DefaultMaxDecodedSize = 64 << 20

// Inspector decodes raw record values and analyzes them.
// It is safe for concurrent use.
type Inspector struct {
	parsers        fastjson.ParserPool
	zstd           *zstd.Decoder
	maxDecodedSize int64
}

// InspectorOption configures an Inspector
type InspectorOption func(*Inspector)

// WithMaxDecodedSize sets the maximum size of a decompressed value.
// Bigger values are reported as malformed.
func WithMaxDecodedSize(n int64) InspectorOption {
	return func(i *Inspector) {
		i.maxDecodedSize = n
	}
}

// NewInspector returns a new Inspector. Close must be called to
// release the decompression resources.
func NewInspector(opts ...InspectorOption) (*Inspector, error) {
	i := &Inspector{
		maxDecodedSize: DefaultMaxDecodedSize,
	}
	for _, o := range opts {
		o(i)
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(i.maxDecodedSize)))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	i.zstd = dec
	return i, nil
}

// Close releases the resources held by the inspector
func (i *Inspector) Close() {
	i.zstd.Close()
}

// Inspect decodes raw using the given content encoding and analyzes
// the resulting payload as kind.
//
// An empty value is reported as Unrecognized, since there's nothing to
// analyze. Any decoding problem is reported as ErrMalformedPayload.
func (i *Inspector) Inspect(raw []byte, encoding string, kind Kind) (Summary, error) {
	if len(raw) == 0 {
		return Unrecognized{Reason: "empty value"}, nil
	}

	data, err := i.Decode(raw, encoding)
	if err != nil {
		return nil, err
	}
	return i.Summarize(data, kind)
}

// Decode returns the decompressed version of raw
func (i *Inspector) Decode(raw []byte, encoding string) ([]byte, error) {
	return i.decompress(raw, encoding)
}

// Summarize parses a decompressed payload and analyzes it as kind
func (i *Inspector) Summarize(data []byte, kind Kind) (Summary, error) {
	if len(data) == 0 {
		return Unrecognized{Reason: "empty value"}, nil
	}

	p := i.parsers.Get()
	defer i.parsers.Put(p)

	// The values returned by the parser are only valid until it is
	// reused, so the analysis has to happen before p goes back to the
	// pool. Summaries only contain copies.
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %w", ErrMalformedPayload, err)
	}
	return Analyze(v, kind)
}

func (i *Inspector) decompress(raw []byte, encoding string) (data []byte, err error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingIdentity:
		return raw, nil
	case EncodingZstd:
		data, err = i.zstd.DecodeAll(raw, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrMalformedPayload, err)
		}
		return data, nil
	case EncodingGzip:
		var r *gzip.Reader
		r, err = gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %w", ErrMalformedPayload, err)
		}
		defer errutil.RunAndSetError(r.Close, &err, "close gzip reader")

		data, err = io.ReadAll(io.LimitReader(r, i.maxDecodedSize+1))
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %w", ErrMalformedPayload, err)
		}
		if int64(len(data)) > i.maxDecodedSize {
			return nil, fmt.Errorf("%w: gzip: decoded value larger than %d bytes", ErrMalformedPayload, i.maxDecodedSize)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: unsupported content encoding %q", ErrMalformedPayload, encoding)
	}
}
