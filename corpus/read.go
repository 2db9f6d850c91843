package corpus

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/sync/errgroup"
)

// Compression identifies how an object is encoded.
type Compression uint8

const (
	None Compression = iota
	Zstd
	Gzip
	LZ4
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case Gzip:
		return "gzip"
	case LZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// CompressionOf returns the compression implied by the extension of name.
func CompressionOf(name string) Compression {
	switch strings.ToLower(path.Ext(name)) {
	case ".zst", ".zstd":
		return Zstd
	case ".gz":
		return Gzip
	case ".lz4":
		return LZ4
	default:
		return None
	}
}

// NewReader wraps r with a decoder for c. Closing the result does not close r.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case None:
		return io.NopCloser(r), nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case Gzip:
		return gzip.NewReader(r)
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unsupported compression %d", c)
	}
}

// ReadText opens name, decompresses it according to its extension and
// returns its contents. Invalid UTF-8 sequences are replaced by U+FFFD.
func ReadText(ctx context.Context, src Source, name string) (string, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	dec, err := NewReader(rc, CompressionOf(name))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if !utf8.Valid(data) {
		return strings.ToValidUTF8(string(data), string(utf8.RuneError)), nil
	}
	return string(data), nil
}

// ReadAll reads every named object with up to workers concurrent reads.
// Texts are returned in the order of names.
func ReadAll(ctx context.Context, src Source, names []string, workers int) ([]string, error) {
	if workers <= 0 {
		workers = 1
	}

	texts := make([]string, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		g.Go(func() error {
			text, err := ReadText(gctx, src, name)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}
