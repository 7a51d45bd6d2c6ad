package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		logger, err := New(env, "debug", "json")
		if err != nil {
			t.Fatalf("new %s logger: %v", env, err)
		}
		if !logger.Core().Enabled(zapcore.DebugLevel) {
			t.Fatalf("%s logger should honor debug level", env)
		}
	}
}

func TestEncodingFollowsEnvironment(t *testing.T) {
	cases := []struct {
		env, format, want string
	}{
		{"production", "", "json"},
		{"development", "", "console"},
		{"production", "console", "console"},
		{"development", "json", "json"},
	}
	for _, c := range cases {
		if got := buildConfig(c.env, "info", c.format).Encoding; got != c.want {
			t.Fatalf("env=%s format=%q: encoding %q, want %q", c.env, c.format, got, c.want)
		}
	}
}
