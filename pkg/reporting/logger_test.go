package reporting_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cepgen/cepgen-go/pkg/reporting"
)

func TestInitGlobalLoggerJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	reporting.InitGlobalLogger(reporting.LoggerConfig{
		Level:  reporting.LogLevelWarn,
		Format: reporting.LogFormatJSON,
		Output: &buf,
	})

	log.Info().Msg("warmup starting")
	log.Warn().Msg("chi-square failed to converge")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1 (info should be suppressed below warn)", len(lines))
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not valid JSON: %v", err)
	}
	if entry["message"] != "chi-square failed to converge" {
		t.Fatalf("message = %v, want the warn-level line", entry["message"])
	}
}

func TestInitGlobalLoggerTextFormatIsHumanReadable(t *testing.T) {
	var buf bytes.Buffer
	reporting.InitGlobalLogger(reporting.LoggerConfig{
		Level:  reporting.LogLevelInfo,
		Format: reporting.LogFormatText,
		Output: &buf,
	})

	log.Info().Int64("generated", 1000).Msg("event generation progress")

	out := buf.String()
	if !strings.Contains(out, "event generation progress") {
		t.Fatalf("text output missing message: %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("text format output looks like JSON: %q", out)
	}
}

func TestInitGlobalLoggerDefaultsToInfoLevel(t *testing.T) {
	reporting.InitGlobalLogger(reporting.LoggerConfig{Format: reporting.LogFormatJSON})
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("GlobalLevel() = %v, want InfoLevel for an unset Level", zerolog.GlobalLevel())
	}
}
