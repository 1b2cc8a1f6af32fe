package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{input: "debug", want: DebugLevel},
		{input: "INFO", want: InfoLevel},
		{input: " warn ", want: WarnLevel},
		{input: "error", want: ErrorLevel},
		{input: "", want: InfoLevel},
		{input: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, JSONOutput: true, Output: &buf})

	logger := WithComponent("classifier")
	logger.Info().Str("key", "KEY_UP").Msg("classified")
	logger.Debug().Msg("filtered out")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "classifier", entry["component"])
	assert.Equal(t, "KEY_UP", entry["key"])
	assert.Equal(t, "classified", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestWithSubscriberID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: DebugLevel, JSONOutput: true, Output: &buf})

	logger := WithSubscriberID(7)
	logger.Debug().Msg("connected")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "server", entry["component"])
	assert.EqualValues(t, 7, entry["subscriber_id"])
}
