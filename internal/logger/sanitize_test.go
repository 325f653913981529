package logger

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap/zapcore"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        string
		maxLength int
		want      string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain", in: "/api/login", maxLength: 100, want: "/api/login"},
		{name: "control characters removed", in: "ab\x00c\x1bd", maxLength: 100, want: "abcd"},
		{name: "newline kept", in: "a\nb", maxLength: 100, want: "a\nb"},
		{name: "invalid utf8 dropped", in: "a\xffb", maxLength: 100, want: "ab"},
		{name: "truncated", in: "abcdef", maxLength: 3, want: "abc..."},
		{name: "truncation keeps two byte rune whole", in: "aaaaé", maxLength: 5, want: "aaaa..."},
		{name: "truncation keeps four byte rune whole", in: "🌶🌶", maxLength: 6, want: "🌶..."},
		{name: "rune inside limit kept", in: "éé", maxLength: 4, want: "éé"},
		{name: "default limit", in: "abc", maxLength: 0, want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SanitizeString(tt.in, tt.maxLength)
			if got != tt.want {
				t.Errorf("SanitizeString(%q, %d) = %q, want %q", tt.in, tt.maxLength, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("SanitizeString(%q, %d) produced invalid UTF-8", tt.in, tt.maxLength)
			}
		})
	}
}

func TestSanitizePath_Truncates(t *testing.T) {
	t.Parallel()

	got := SanitizePath("/" + strings.Repeat("a", MaxPathLength+10))
	if len(got) != MaxPathLength+len("...") {
		t.Errorf("len(SanitizePath()) = %d, want %d", len(got), MaxPathLength+3)
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if got := SanitizeError(nil); got != "" {
		t.Errorf("SanitizeError(nil) = %q", got)
	}
	if got := SanitizeError(errors.New("bad\x00 token")); got != "bad token" {
		t.Errorf("SanitizeError() = %q, want %q", got, "bad token")
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, debug := range []bool{true, false} {
		for _, dev := range []bool{true, false} {
			l, err := New(Options{Service: "hotsauce-api", Environment: "test", Debug: debug, Development: dev})
			if err != nil {
				t.Fatalf("New(debug=%v, dev=%v) error = %v", debug, dev, err)
			}
			if got := l.Core().Enabled(zapcore.DebugLevel); got != debug {
				t.Errorf("New(debug=%v, dev=%v) debug enabled = %v", debug, dev, got)
			}
		}
	}
	if err := Sync(nil); err != nil {
		t.Errorf("Sync(nil) error = %v", err)
	}
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		opts         Options
		wantEncoding string
		wantSampling bool
		wantFields   map[string]interface{}
	}{
		{
			name:         "production stamps service and environment",
			opts:         Options{Service: "hotsauce-api", Environment: "production"},
			wantEncoding: "json",
			wantSampling: true,
			wantFields:   map[string]interface{}{"service": "hotsauce-api", "environment": "production"},
		},
		{
			name:         "development console without sampling",
			opts:         Options{Service: "hotsauce-api", Environment: "development", Development: true},
			wantEncoding: "console",
			wantFields:   map[string]interface{}{"service": "hotsauce-api", "environment": "development"},
		},
		{
			name:         "no fields when unnamed",
			opts:         Options{},
			wantEncoding: "json",
			wantSampling: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := newConfig(tt.opts)
			if cfg.Encoding != tt.wantEncoding {
				t.Errorf("Encoding = %q, want %q", cfg.Encoding, tt.wantEncoding)
			}
			if (cfg.Sampling != nil) != tt.wantSampling {
				t.Errorf("Sampling = %+v, want sampling %v", cfg.Sampling, tt.wantSampling)
			}
			if len(cfg.InitialFields) != len(tt.wantFields) {
				t.Fatalf("InitialFields = %v, want %v", cfg.InitialFields, tt.wantFields)
			}
			for k, v := range tt.wantFields {
				if cfg.InitialFields[k] != v {
					t.Errorf("InitialFields[%s] = %v, want %v", k, cfg.InitialFields[k], v)
				}
			}
		})
	}
}
