package bundle

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the wrapper applied to the TAR stream.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case CompressionNone, "none":
		return CompressionNone, nil
	case CompressionZstd, CompressionLZ4:
		return Compression(s), nil
	default:
		return "", fmt.Errorf("bundle: unknown compression %q (want none, zstd or lz4)", s)
	}
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func compressWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionZstd:
		// One encoder goroutine keeps the output byte-for-byte reproducible.
		return zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("bundle: unknown compression %q", c)
	}
}

type zstdReadCloser struct{ *zstd.Decoder }

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// decompressReader sniffs the stream's magic number and unwraps zstd or lz4.
// Anything else is read as a plain TAR stream.
func decompressReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return nil, err
	}
	switch {
	case bytes.Equal(head, zstdMagic):
		d, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{d}, nil
	case bytes.Equal(head, lz4Magic):
		return io.NopCloser(lz4.NewReader(br)), nil
	default:
		return io.NopCloser(br), nil
	}
}
