package main

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftgo/pkg/logging"
)

func TestParseAndSummarize(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	logging.DumpTraces(logger, "CREATE_OBJECT_FAILED send_id:12 index:0", []logging.TraceEntry{
		{SendID: 11, Comment: "SetDataOnSimObject", At: at},
		{SendID: 12, Comment: "AICreateNonATCAircraft", At: at, Object: "DLH123"},
	})
	logging.DumpTraces(logger, "UNRECOGNIZED_ID send_id:20 index:0", []logging.TraceEntry{
		{SendID: 20, Comment: "AIRemoveObject", At: at},
	})
	logging.DumpTraces(logger, "CREATE_OBJECT_FAILED send_id:31 index:0", []logging.TraceEntry{
		{SendID: 31, Comment: "AICreateNonATCAircraft", At: at, Object: "BAW1"},
	})
	logging.DumpTraces(logger, "DATA_ERROR send_id:40 index:2", nil)
	buf.WriteString("not json\n")

	dumps, err := parse(&buf)
	require.NoError(t, err)
	require.Len(t, dumps, 4)
	assert.Equal(t, "CREATE_OBJECT_FAILED", dumps[0].Exception)
	assert.Equal(t, "send_id:12", dumps[0].SendID)
	require.Len(t, dumps[0].Calls, 2)
	assert.Equal(t, "DLH123", dumps[0].Calls[1].Object)
	assert.Equal(t, "(untraced)", dumps[3].Failing())

	assert.Equal(t, []Count{
		{Exception: "CREATE_OBJECT_FAILED", Call: "AICreateNonATCAircraft", N: 2},
		{Exception: "DATA_ERROR", Call: "(untraced)", N: 1},
		{Exception: "UNRECOGNIZED_ID", Call: "AIRemoveObject", N: 1},
	}, summarize(dumps))
}
