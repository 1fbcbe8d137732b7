// Package testutil provides shared test helpers: a logger bound to the test
// and on-disk project fixtures.
package testutil

import (
	"log/slog"
	"testing"

	"github.com/rulesets-dev/rulesets/internal/logging"
)

// NewTestLogger returns a debug-level logfmt logger whose lines go to t.Log,
// so they only show up for failing tests or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(logging.CreateHandler(tbWriter{t}, slog.LevelDebug, logging.FormatLogfmt))
}

// tbWriter adapts testing.TB to io.Writer, one t.Log call per record.
type tbWriter struct {
	tb testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(string(p))
	return len(p), nil
}
