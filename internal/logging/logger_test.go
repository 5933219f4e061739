package logging

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// TestFieldHelpers tests the Field constructor functions.
func TestFieldHelpers(t *testing.T) {
	testErr := errors.New("non-finite delta")
	tests := []struct {
		name      string
		field     Field
		wantKey   string
		wantValue any
	}{
		{"String", String("mode", "sweep"), "mode", "sweep"},
		{"Int", Int("index", 2), "index", 2},
		{"Uint64", Uint64("cells", 32761), "cells", uint64(32761)},
		{"Float64", Float64("delta", 1e-3), "delta", 1e-3},
		{"Bool", Bool("converged", true), "converged", true},
		{"Duration", Duration("elapsed", time.Second), "elapsed", time.Second},
		{"Err", Err(testErr), "error", testErr},
		{"Err nil", Err(nil), "error", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field.Key != tt.wantKey {
				t.Errorf("Key = %q, want %q", tt.field.Key, tt.wantKey)
			}
			if tt.field.Value != tt.wantValue {
				t.Errorf("Value = %v, want %v", tt.field.Value, tt.wantValue)
			}
		})
	}
}

// TestNewLogger verifies the component tag and message reach the output.
func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "orchestrator")

	logger.Info("run started", Int("count", 3))
	output := buf.String()

	for _, want := range []string{"orchestrator", "run started", `"count":3`} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q, got: %s", want, output)
		}
	}
}

// TestNewDefaultLogger tests the default logger constructor.
func TestNewDefaultLogger(t *testing.T) {
	if NewDefaultLogger() == nil {
		t.Fatal("NewDefaultLogger returned nil")
	}
}

// TestZerologAdapter_Error tests the Error method.
func TestZerologAdapter_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fields   []Field
		contains []string
	}{
		{
			name:     "with error",
			err:      errors.New("connection closed"),
			contains: []string{"send failed", "connection closed", "error"},
		},
		{
			name:     "with nil error",
			err:      nil,
			contains: []string{"send failed", "error"},
		},
		{
			name:     "with error and fields",
			err:      errors.New("timeout"),
			fields:   []Field{String("transport", "ws"), Int("index", 4)},
			contains: []string{"timeout", "ws", `"index":4`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, "test")
			logger.Error("send failed", tt.err, tt.fields...)

			output := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(output, want) {
					t.Errorf("output should contain %q, got: %s", want, output)
				}
			}
		})
	}
}

// TestZerologAdapter_Debug tests that debug entries respect the logger level.
func TestZerologAdapter_Debug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel))
	logger.Debug("sample recorded", Float64("delta", 0.5))

	if !strings.Contains(buf.String(), "sample recorded") {
		t.Errorf("Debug output should contain message, got: %s", buf.String())
	}

	buf.Reset()
	quiet := NewZerologAdapter(zerolog.New(&buf).Level(zerolog.InfoLevel))
	quiet.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug entry should be filtered at info level, got: %s", buf.String())
	}
}

// TestZerologAdapter_applyFields tests field application with all supported types.
func TestZerologAdapter_applyFields(t *testing.T) {
	tests := []struct {
		name     string
		field    Field
		contains string
	}{
		{"string field", Field{Key: "str", Value: "hello"}, "hello"},
		{"int64 field", Field{Key: "big", Value: int64(9223372036854775807)}, "9223372036854775807"},
		{"float64 field", Field{Key: "tol", Value: 0.001}, "0.001"},
		{"bool field", Field{Key: "converged", Value: false}, "false"},
		{"duration field", Field{Key: "elapsed", Value: 1500 * time.Millisecond}, "1500"},
		{"interface field", Field{Key: "grid", Value: struct{ N int }{N: 21}}, "21"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewLogger(&buf, "test").Info("test", tt.field)
			if !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("applyFields should handle %s, output: %s", tt.name, buf.String())
			}
		})
	}
}

// TestZerologAdapter_PrintfPrintln tests the printf-style helpers.
func TestZerologAdapter_PrintfPrintln(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "test")

	logger.Printf("iteration %d of %d", 10, 5000)
	logger.Println("converged", "early")

	output := buf.String()
	if !strings.Contains(output, "iteration 10 of 5000") {
		t.Errorf("Printf should format message, got: %s", output)
	}
	if !strings.Contains(output, "converged early") {
		t.Errorf("Println should join arguments, got: %s", output)
	}
}

// TestStdLoggerAdapter tests the standard-library backed adapter.
func TestStdLoggerAdapter(t *testing.T) {
	tests := []struct {
		name     string
		log      func(Logger)
		contains []string
	}{
		{
			name:     "info with fields",
			log:      func(l Logger) { l.Info("run complete", String("status", "ok")) },
			contains: []string{"[INFO]", "run complete", "status=ok"},
		},
		{
			name:     "error",
			log:      func(l Logger) { l.Error("simulation failed", errors.New("nan"), Int("index", 1)) },
			contains: []string{"[ERROR]", "simulation failed", "nan", "index=1"},
		},
		{
			name:     "debug",
			log:      func(l Logger) { l.Debug("flush", Int("slots", 5)) },
			contains: []string{"[DEBUG]", "flush", "slots=5"},
		},
		{
			name:     "printf",
			log:      func(l Logger) { l.Printf("value is %d", 123) },
			contains: []string{"value is 123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewStdLoggerAdapter(log.New(&buf, "", 0)))
			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output should contain %q, got: %s", want, buf.String())
				}
			}
		})
	}
}

// TestLoggerInterface verifies every adapter implements the Logger interface.
func TestLoggerInterface(t *testing.T) {
	var buf bytes.Buffer
	var _ Logger = NewLogger(&buf, "test")
	var _ Logger = NewStdLoggerAdapter(log.New(&buf, "", 0))
	var _ Logger = NopLogger{}
}
