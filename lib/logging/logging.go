// Package logging wraps log/slog with per-level record counters so entry
// points can summarize how many info, warning and error records a run
// produced and map error counts to exit codes.
package logging

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
)

// Recorder owns a slog logger whose handler counts records per level.
type Recorder struct {
	logger *slog.Logger

	infoCount uint64
	warnCount uint64
	errCount  uint64
}

// New builds a recorder writing text records at or above the given level.
func New(w io.Writer, level slog.Level) *Recorder {
	r := new(Recorder)
	base := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	r.logger = slog.New(&countingHandler{next: base, recorder: r})
	return r
}

// Logger returns the counting logger.
func (r *Recorder) Logger() *slog.Logger { return r.logger }

// Counts returns the number of info, warning and error records seen so far.
func (r *Recorder) Counts() (info, warn, errors uint64) {
	return atomic.LoadUint64(&r.infoCount),
		atomic.LoadUint64(&r.warnCount),
		atomic.LoadUint64(&r.errCount)
}

type countingHandler struct {
	next     slog.Handler
	recorder *Recorder
}

func (h *countingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *countingHandler) Handle(ctx context.Context, record slog.Record) error {
	switch {
	case record.Level >= slog.LevelError:
		atomic.AddUint64(&h.recorder.errCount, 1)
	case record.Level >= slog.LevelWarn:
		atomic.AddUint64(&h.recorder.warnCount, 1)
	case record.Level >= slog.LevelInfo:
		atomic.AddUint64(&h.recorder.infoCount, 1)
	}
	return h.next.Handle(ctx, record)
}

func (h *countingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &countingHandler{next: h.next.WithAttrs(attrs), recorder: h.recorder}
}

func (h *countingHandler) WithGroup(name string) slog.Handler {
	return &countingHandler{next: h.next.WithGroup(name), recorder: h.recorder}
}
