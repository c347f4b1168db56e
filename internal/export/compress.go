package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"kernlog/internal/kmsg"
)

const (
	CodecNone = "none"
	CodecGzip = "gzip"
	CodecZstd = "zstd"
)

// NewWriter wraps w with the named codec. Closing the returned writer
// flushes the codec but does not close w.
func NewWriter(w io.Writer, codec string) (io.WriteCloser, error) {
	switch strings.ToLower(strings.TrimSpace(codec)) {
	case "", CodecNone:
		return &flushCloser{bufio.NewWriter(w)}, nil
	case CodecGzip:
		return gzip.NewWriter(w), nil
	case CodecZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %q", kmsg.ErrConfig, codec)
	}
}

// Create opens path for writing, truncating it, and wraps it with codec.
// Closing the returned writer flushes the codec and closes the file.
func Create(path, codec string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", path, err)
	}
	w, err := NewWriter(file, codec)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &fileWriter{WriteCloser: w, file: file}, nil
}

type flushCloser struct {
	*bufio.Writer
}

func (f *flushCloser) Close() error {
	return f.Flush()
}

type fileWriter struct {
	io.WriteCloser
	file *os.File
}

// Flush pushes buffered output to the file without ending the stream.
func (f *fileWriter) Flush() error {
	if fl, ok := f.WriteCloser.(interface{ Flush() error }); ok {
		return fl.Flush()
	}
	return nil
}

func (f *fileWriter) Close() error {
	return errors.Join(f.WriteCloser.Close(), f.file.Close())
}
