package wdlog

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	l := FromContext(context.Background())
	if l.GetLevel() != zerolog.InfoLevel {
		t.Errorf("default level: got %v", l.GetLevel())
	}
}

func TestInContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.DebugLevel, false)

	ctx := InContext(context.Background(), l)
	got := FromContext(ctx)

	got.Debug().Msg("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("log output missing message: %q", buf.String())
	}
}
