package logging

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
	"go.opentelemetry.io/otel/trace"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		lines = append(lines, entry)
	}
	return lines
}

func TestInfoIncludesServiceFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("parking-test", "production", &buf)

	Info(context.Background(), "vehicle parked", "plate", "ABC123")
	Debug(context.Background(), "hidden outside development")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "vehicle parked", lines[0]["msg"])
	assert.Equal(t, "ABC123", lines[0]["plate"])
	assert.Equal(t, "parking-test", lines[0]["service"])
	assert.Equal(t, "production", lines[0]["environment"])
	assert.NotContains(t, lines[0], "traceId")
}

func TestWithContextAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("parking-test", "development", &buf)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	Debug(ctx, "quote computed")
	Warn(ctx, "overstay detected", "plate", "LATE01")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Equal(t, traceID.String(), line["traceId"])
		assert.Equal(t, spanID.String(), line["spanId"])
	}
	assert.Equal(t, "WARN", lines[1]["level"])
}

func TestForVehicleTagsLines(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("parking-test", "production", &buf)
	ctx := context.Background()

	ForVehicle(ctx, "ABC123", "F1-R1-S01").InfoContext(ctx, "vehicle parked", Ticket("t-1"), Amount(12.346))
	ForVehicle(ctx, "XYZ789", "").WarnContext(ctx, "exit rejected", Err(errors.New("not parked")))
	Info(ctx, "nothing to report", Err(nil))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "ABC123", lines[0][KeyPlate])
	assert.Equal(t, "F1-R1-S01", lines[0][KeySpot])
	assert.Equal(t, "t-1", lines[0][KeyTicket])
	assert.Equal(t, 12.35, lines[0][KeyAmount])

	assert.Equal(t, "XYZ789", lines[1][KeyPlate])
	assert.NotContains(t, lines[1], KeySpot)
	assert.Equal(t, "not parked", lines[1][KeyError])

	assert.NotContains(t, lines[2], KeyError)
}

type failingHandler struct{}

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }
func (h failingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h failingHandler) WithGroup(string) slog.Handler { return h }

func TestMultiHandlerKeepsWritingWhenOneFails(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(&multiHandler{handlers: []slog.Handler{
		failingHandler{},
		slog.NewJSONHandler(&buf, nil),
	}}).With(Plate("ABC123"))

	err := l.Handler().Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "vehicle parked", 0))
	assert.EqualError(t, err, "sink down")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "ABC123", lines[0][KeyPlate])
}
