package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestTeeHandlerRoutesByLevel(t *testing.T) {
	var all, errs bytes.Buffer
	tee := teeHandler{
		slog.NewJSONHandler(&all, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	}
	logger := slog.New(tee).With("service", "lsmpricer").WithGroup("lsm")

	logger.Debug("regression degree reduced", "step", 3)
	logger.Error("option pricing failed", "type", "put")

	assert.Contains(t, all.String(), "regression degree reduced")
	assert.Contains(t, all.String(), "option pricing failed")
	assert.NotContains(t, errs.String(), "regression degree reduced")
	assert.Contains(t, errs.String(), `"service":"lsmpricer"`)
	assert.Contains(t, errs.String(), `"lsm":{"type":"put"}`)
	assert.False(t, tee.Enabled(context.Background(), slog.LevelDebug-4))
}

func TestTeeHandlerKeepsWritingAfterFailure(t *testing.T) {
	var buf bytes.Buffer
	ok := slog.NewJSONHandler(&buf, nil)
	tee := teeHandler{failingHandler{ok}, ok}

	err := tee.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "batch priced", 0))
	assert.EqualError(t, err, "disk full")
	assert.Contains(t, buf.String(), "batch priced")
}
