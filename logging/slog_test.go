package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON_WritesStructuredRecords(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, slog.LevelInfo)

	log.Info(context.Background(), "hello", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "v", rec["k"])
}

func TestNewJSON_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, slog.LevelInfo)

	log.Debug(context.Background(), "too quiet")
	assert.Zero(t, buf.Len())
}

func TestWith_IncludesBoundPairs(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, slog.LevelInfo).With("table", "book")

	log.Warn(context.Background(), "slow query")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "book", rec["table"])
	assert.Equal(t, "WARN", rec["level"])
}

func TestNoopLogger(t *testing.T) {
	log := NewNoopLogger()
	// must not panic and With must still return a usable logger
	log.With("a", 1).Error(context.Background(), "ignored")
}
