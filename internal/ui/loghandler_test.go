package ui_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ferry/internal/event"
	"github.com/bamsammich/ferry/internal/ui"
)

// cliHandlers mirrors the --log setup: a warn-level text handler for the
// terminal and a debug-level JSON handler for the log file.
func cliHandlers() (text, jsonl *bytes.Buffer, h *ui.MultiHandler) {
	text, jsonl = &bytes.Buffer{}, &bytes.Buffer{}
	h = ui.NewMultiHandler(
		slog.NewTextHandler(text, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(jsonl, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	return text, jsonl, h
}

func jsonRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestMultiHandler_EachHandlerKeepsItsLevel(t *testing.T) {
	t.Parallel()

	text, jsonl, h := cliHandlers()
	logger := slog.New(h)
	logger.Debug("reading", "path", "/proj/a.txt")
	logger.Warn("failed to restore permissions", "source", "/proj/run.sh")

	assert.NotContains(t, text.String(), "reading")
	assert.Contains(t, text.String(), "failed to restore permissions")
	assert.Contains(t, text.String(), "source=/proj/run.sh")

	recs := jsonRecords(t, jsonl)
	require.Len(t, recs, 2)
	assert.Equal(t, "reading", recs[0]["msg"])
	assert.Equal(t, "DEBUG", recs[0]["level"])
	assert.Equal(t, "failed to restore permissions", recs[1]["msg"])
}

func TestMultiHandler_Enabled(t *testing.T) {
	t.Parallel()

	_, _, h := cliHandlers()
	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))

	warnOnly := ui.NewMultiHandler(
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	assert.True(t, warnOnly.Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, warnOnly.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, ui.NewMultiHandler().Enabled(context.Background(), slog.LevelError))
}

func TestMultiHandler_AttrsAndGroupsReachEveryHandler(t *testing.T) {
	t.Parallel()

	text, jsonl, h := cliHandlers()
	logger := slog.New(h).With("pattern", "static").WithGroup("asset")
	logger.Error("copy failed", "dest", "img/logo.png")

	assert.Contains(t, text.String(), "pattern=static")
	assert.Contains(t, text.String(), "asset.dest=img/logo.png")

	recs := jsonRecords(t, jsonl)
	require.Len(t, recs, 1)
	assert.Equal(t, "static", recs[0]["pattern"])
	group, ok := recs[0]["asset"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "img/logo.png", group["dest"])
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("disk full")
}

func TestMultiHandler_HandleJoinsErrors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ok := slog.NewTextHandler(&buf, nil)
	h := ui.NewMultiHandler(ok, failingHandler{Handler: slog.NewTextHandler(&bytes.Buffer{}, nil)})

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "writing", 0)
	err := h.Handle(context.Background(), r)
	require.ErrorContains(t, err, "disk full")
	assert.Contains(t, buf.String(), "writing", "healthy handlers still receive the record")
}

func TestLogEvent_WritesStructuredRecord(t *testing.T) {
	t.Parallel()

	text, jsonl, h := cliHandlers()
	logger := slog.New(h)

	ui.LogEvent(context.Background(), logger, ui.Event{
		Type:    event.FileSkipped,
		Pattern: "static/*.txt",
		Path:    "static/x.txt",
		Dest:    "first/static/x.txt",
		Reason:  "exists",
		Size:    1,
		Error:   errors.New("destination already exists"),
	})
	ui.LogEvent(context.Background(), logger, ui.Event{Type: event.BuildComplete, Total: 3})

	assert.Empty(t, text.String(), "events stay out of a warn-level terminal")

	recs := jsonRecords(t, jsonl)
	require.Len(t, recs, 2)
	assert.Equal(t, ui.EventMessage, recs[0]["msg"])
	assert.Equal(t, "FileSkipped", recs[0]["type"])
	assert.Equal(t, "static/*.txt", recs[0]["pattern"])
	assert.Equal(t, "first/static/x.txt", recs[0]["dest"])
	assert.Equal(t, "exists", recs[0]["reason"])
	assert.Equal(t, "destination already exists", recs[0]["error"])

	assert.Equal(t, "BuildComplete", recs[1]["type"])
	assert.InDelta(t, 3, recs[1]["total"], 0)
	assert.NotContains(t, recs[1], "path")
	assert.NotContains(t, recs[1], "error")
}
