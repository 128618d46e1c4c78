// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextCarriesCorrelationIDs(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithRunID(ctx, "run-2")
	ctx = ContextWithMessageID(ctx, "msg-3")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "run-2", RunIDFromContext(ctx))
	assert.Equal(t, "msg-3", MessageIDFromContext(ctx))

	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Empty(t, RunIDFromContext(nil))
}

func TestWithContextEnrichesLogEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := ContextWithRunID(context.Background(), "run-9")
	enriched := WithContext(ctx, logger)
	enriched.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run-9", entry["run_id"])
	_, hasRequest := entry["request_id"]
	assert.False(t, hasRequest, "absent ids must not be logged")
}

func TestWithContextWithoutIDsReturnsLoggerUnchanged(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	plain := WithContext(context.Background(), logger)
	plain.Info().Msg("plain")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, hasRun := entry["run_id"]
	assert.False(t, hasRun)
}
