package logstream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"

	"kernlog/internal/backend"
	"kernlog/internal/kmsg"
)

// ReadAll performs a one-shot read and returns every retained entry that
// passes opts.Filters. Follow is ignored.
func ReadAll(ctx context.Context, opts Options, logger *slog.Logger) ([]kmsg.Entry, error) {
	opts.Engine.Follow = false
	r, err := Open(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var entries []kmsg.Entry
	for {
		entry, err := r.Next(ctx)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
}

// ReadRaw returns the retained buffer exactly as the backend delivered it,
// one record per line, without parsing. The source is always opened
// non-blocking and reading stops at the first empty or would-block read.
func ReadRaw(opts backend.Options) ([]byte, error) {
	opts.NonBlocking = true
	src, err := backend.Open(opts)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var buf bytes.Buffer
	for {
		records, err := src.Read()
		for _, rec := range records {
			buf.Write(rec)
			if !bytes.HasSuffix(rec, []byte("\n")) {
				buf.WriteByte('\n')
			}
		}
		switch {
		case errors.Is(err, kmsg.ErrWouldBlock):
			return buf.Bytes(), nil
		case errors.Is(err, kmsg.ErrRecordsLost):
			continue
		case err != nil:
			return buf.Bytes(), err
		case len(records) == 0:
			return buf.Bytes(), nil
		}
	}
}
