package logging_test

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/paveg/odataq/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	testCases := map[string]struct {
		format    string
		level     string
		expectErr bool
	}{
		"invalid format":          {format: "xml", level: "info", expectErr: true},
		"invalid level":           {format: logging.FormatJSON, level: "loud", expectErr: true},
		"json info":               {format: logging.FormatJSON, level: "info"},
		"console debug":           {format: logging.FormatConsole, level: "DEBUG"},
		"default format disabled": {format: "", level: ""},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := logging.New(&bytes.Buffer{}, tc.format, tc.level)
			if tc.expectErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNew_WritesStructuredEvents(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.FormatJSON, "debug")
	require.NoError(t, err)

	logger.Debug().Str("op", "ParseFilter").Msg("parsed")

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "debug", event["level"])
	assert.Equal(t, "ParseFilter", event["op"])
	assert.Equal(t, "odataq", event["module"])
	assert.Equal(t, "parsed", event["message"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.FormatJSON, "warn")
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected zerolog.Level
	}{
		{"", zerolog.Disabled},
		{"disabled", zerolog.Disabled},
		{"trace", zerolog.TraceLevel},
		{"Info", zerolog.InfoLevel},
		{"error", zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lvl, err := logging.ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, lvl)
		})
	}
}
