package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"kernlog/internal/config"
	"kernlog/internal/engine"
	"kernlog/internal/export"
	"kernlog/internal/kmsg"
	"kernlog/internal/logging"
	"kernlog/internal/logstream"
)

const (
	formatText  = "text"
	formatJSON  = "json"
	formatRaw   = "raw"
	formatTable = "table"
)

func runRead(cmd *cobra.Command, cctx *commandContext) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := cctx.ensureConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := cctx.logger(cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if cfg.Backend.Clear {
		unlock, err := acquireClearLock(cfg.Lock.Path)
		if err != nil {
			return err
		}
		defer unlock()
	}

	bopts, err := cfg.BackendOptions(logger)
	if err != nil {
		return err
	}
	eopts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	filters, err := logstream.ParseFilters(cfg.Output.MinLevel, cfg.Output.Facilities)
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	out, err := openOutput(stdout, cfg.Output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	if cfg.Output.Format == formatRaw && !cfg.Follow.Enabled && !filters.Active() {
		raw, err := logstream.ReadRaw(bopts)
		if err != nil {
			return err
		}
		_, err = out.Write(raw)
		return err
	}

	reader, err := logstream.Open(ctx, logstream.Options{Backend: bopts, Engine: eopts, Filters: filters}, logger)
	if err != nil {
		return err
	}
	defer reader.Close()
	release := context.AfterFunc(ctx, func() { reader.Close() })
	defer release()

	logger.Debug("reading kernel log",
		logging.String(logging.FieldEventType, "read_started"),
		logging.String(logging.FieldSessionID, reader.SessionID()),
		logging.String(logging.FieldBackend, reader.Backend().String()),
		logging.String("format", cfg.Output.Format),
		logging.Bool("follow", cfg.Follow.Enabled),
	)

	colorize := cfg.Output.Format == formatText && wantColor(cfg.Output, stdout)
	sink := newSink(cfg.Output, out, reader, colorize)
	var flush func() error
	if cfg.Follow.Enabled {
		if f, ok := out.(interface{ Flush() error }); ok {
			flush = f.Flush
		}
	}

	consumeErr := consume(ctx, reader, eopts.Mode, func(e kmsg.Entry) error {
		if err := sink.Write(e); err != nil {
			return err
		}
		if flush != nil {
			return flush()
		}
		return nil
	})
	return errors.Join(consumeErr, sink.Close())
}

// consume drives the reader until it ends. Blocking mode pulls with Next;
// cooperative mode ranges over All.
func consume(ctx context.Context, r *logstream.Reader, mode engine.Mode, emit func(kmsg.Entry) error) error {
	if mode == engine.ModeBlocking {
		for {
			entry, err := r.Next(ctx)
			if err != nil {
				return endOfStream(ctx, err)
			}
			if err := emit(entry); err != nil {
				return err
			}
		}
	}
	for entry, err := range r.All(ctx) {
		if err != nil {
			return endOfStream(ctx, err)
		}
		if err := emit(entry); err != nil {
			return err
		}
	}
	return nil
}

// endOfStream filters out the terminations that are a normal exit.
func endOfStream(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, logstream.ErrClosed):
		return nil
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return nil
	default:
		return err
	}
}

func openOutput(stdout io.Writer, o config.Output) (io.WriteCloser, error) {
	if o.File == "" || o.File == "-" {
		return export.NewWriter(stdout, o.Codec())
	}
	return export.Create(o.File, o.Codec())
}
