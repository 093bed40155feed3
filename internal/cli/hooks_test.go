package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	h := newLogHooks(newLogger(&buf, log.DebugLevel))

	h.OnViewportChange("0123456789abcdef", "scroll", true)
	h.OnRebuild("0123456789abcdef", 2, "-10px 0px 0px 0px", 3)
	h.OnResync("0123456789abcdef", 2, 1, time.Millisecond, nil)
	h.OnResync("0123456789abcdef", 2, 0, time.Millisecond, errors.New("boom"))
	h.OnDisconnect("0123456789abcdef", 2)
	h.OnRequest(context.Background(), "POST", "/v1/parse")
	h.OnResponse(context.Background(), "POST", "/v1/parse", 200, time.Millisecond)

	out := buf.String()
	for _, want := range []string{"viewport", "rebuild", "resync failed", "boom", "disconnect", "/v1/parse", "01234567"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "0123456789abcdef") {
		t.Error("observer IDs should be shortened")
	}
}

func TestLogHooksQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	h := newLogHooks(newLogger(&buf, log.InfoLevel))
	h.OnRebuild("id", 1, "0px 0px 0px 0px", 0)
	h.OnRequest(context.Background(), "GET", "/healthz")
	if buf.Len() != 0 {
		t.Errorf("debug events logged at info level: %q", buf.String())
	}
}

func TestShort(t *testing.T) {
	if got := short("abc"); got != "abc" {
		t.Errorf("short(abc) = %q, want abc", got)
	}
	if got := short("0123456789"); got != "01234567" {
		t.Errorf("short = %q, want 01234567", got)
	}
}
