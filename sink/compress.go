package sink

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType defines the compression algorithm applied to units.
type CompressionType uint8

const (
	// CompressionNone indicates no compression.
	CompressionNone CompressionType = 0
	// CompressionLZ4 indicates LZ4 frame compression (fast).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD indicates ZSTD frame compression (better ratio).
	CompressionZSTD CompressionType = 2
)

// Encoders are stateful and expensive to build, so they are pooled and
// reset per unit.
var zstdEncoderPool sync.Pool

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	enc.Reset(nil)
	zstdEncoderPool.Put(enc)
}

// Compressed wraps a Sink and compresses unit contents transparently.
// Unit names stay unchanged; units written through the wrapper must be
// opened through it as well. Both algorithms emit standard frames, so the
// files stay readable with stock lz4 and zstd tools.
type Compressed struct {
	inner Sink
	typ   CompressionType
}

// NewCompressed creates a compressing wrapper around inner.
// CompressionNone passes everything through untouched.
func NewCompressed(inner Sink, typ CompressionType) *Compressed {
	return &Compressed{inner: inner, typ: typ}
}

// EnsureDir creates the directory on the wrapped sink.
func (c *Compressed) EnsureDir(ctx context.Context, dir string) error {
	return c.inner.EnsureDir(ctx, dir)
}

// Create opens a unit whose writes pass through a streaming compressor.
func (c *Compressed) Create(ctx context.Context, name string) (Unit, error) {
	u, err := c.inner.Create(ctx, name)
	if err != nil {
		return nil, err
	}

	switch c.typ {
	case CompressionLZ4:
		return &lz4Unit{u: u, zw: lz4.NewWriter(u)}, nil
	case CompressionZSTD:
		enc := getZstdEncoder()
		enc.Reset(u)
		return &zstdUnit{u: u, enc: enc}, nil
	default:
		return u, nil
	}
}

// Put compresses data into a single frame and writes it through.
func (c *Compressed) Put(ctx context.Context, name string, data []byte) error {
	switch c.typ {
	case CompressionLZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		return c.inner.Put(ctx, name, buf.Bytes())
	case CompressionZSTD:
		enc := getZstdEncoder()
		defer putZstdEncoder(enc)
		return c.inner.Put(ctx, name, enc.EncodeAll(data, nil))
	default:
		return c.inner.Put(ctx, name, data)
	}
}

// Open opens a unit and decompresses it while reading.
func (c *Compressed) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	rc, err := c.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	switch c.typ {
	case CompressionLZ4:
		return &decompressReader{r: lz4.NewReader(rc), close: rc.Close}, nil
	case CompressionZSTD:
		dec, err := zstd.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, err
		}
		return &decompressReader{r: dec, close: func() error {
			dec.Close()
			return rc.Close()
		}}, nil
	default:
		return rc, nil
	}
}

// Delete removes a unit on the wrapped sink.
func (c *Compressed) Delete(ctx context.Context, name string) error {
	return c.inner.Delete(ctx, name)
}

// List lists units on the wrapped sink.
func (c *Compressed) List(ctx context.Context, prefix string) ([]string, error) {
	return c.inner.List(ctx, prefix)
}

type decompressReader struct {
	r     io.Reader
	close func() error
}

func (d *decompressReader) Read(p []byte) (int, error) { return d.r.Read(p) }
func (d *decompressReader) Close() error               { return d.close() }

// lz4Unit streams unit writes through an LZ4 frame writer.
type lz4Unit struct {
	u  Unit
	zw *lz4.Writer
}

func (l *lz4Unit) Write(p []byte) (int, error) {
	return l.zw.Write(p)
}

func (l *lz4Unit) Sync() error {
	if err := l.zw.Flush(); err != nil {
		return err
	}
	return l.u.Sync()
}

func (l *lz4Unit) Close() error {
	err := l.zw.Close()
	if cerr := l.u.Close(); err == nil {
		err = cerr
	}
	return err
}

// zstdUnit streams unit writes through a pooled ZSTD encoder.
type zstdUnit struct {
	u   Unit
	enc *zstd.Encoder
}

func (z *zstdUnit) Write(p []byte) (int, error) {
	return z.enc.Write(p)
}

func (z *zstdUnit) Sync() error {
	if err := z.enc.Flush(); err != nil {
		return err
	}
	return z.u.Sync()
}

func (z *zstdUnit) Close() error {
	err := z.enc.Close()
	putZstdEncoder(z.enc)

	if cerr := z.u.Close(); err == nil {
		err = cerr
	}
	return err
}
