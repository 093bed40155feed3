package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/visualobserver/pkg/errors"
	"github.com/matzehuels/visualobserver/pkg/observability"
	"github.com/matzehuels/visualobserver/pkg/scenario"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(log.New(io.Discard)))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, contentType, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, contentType, strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if _, ok := body["build"].(map[string]any); !ok {
		t.Errorf("build field = %v, want object", body["build"])
	}
}

func TestParse(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		want   string
		pixels bool
	}{
		{"shorthand", `{"rootMargin":"10px 5%"}`, 200, "10px 5% 10px 5%", false},
		{"zero", `{"rootMargin":"0"}`, 200, "0px 0px 0px 0px", true},
		{"bad unit", `{"rootMargin":"10em"}`, 400, "", false},
		{"unknown field", `{"margin":"10px"}`, 400, "", false},
		{"not json", `margin`, 400, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, "/v1/parse", "application/json", tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.status != http.StatusOK {
				e := decode[ErrorResponse](t, resp)
				if e.Code == "" || e.Message == "" {
					t.Errorf("error body = %+v, want code and message", e)
				}
				return
			}
			got := decode[ParseResponse](t, resp)
			if got.RootMargin != tt.want {
				t.Errorf("RootMargin = %q, want %q", got.RootMargin, tt.want)
			}
			if got.Pixels != tt.pixels {
				t.Errorf("Pixels = %v, want %v", got.Pixels, tt.pixels)
			}
		})
	}
}

func TestTranslate(t *testing.T) {
	srv := newTestServer(t)

	body := `{
		"viewport": {
			"layout": {"width": 1000, "height": 800},
			"visual": {"offsetLeft": 250, "offsetTop": 200, "width": 500, "height": 400, "scale": 2}
		},
		"rootMargin": "0"
	}`
	resp := post(t, srv, "/v1/translate", "application/json", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	got := decode[TranslateResponse](t, resp)
	if want := "-200px -250px -200px -250px"; got.RootMargin != want {
		t.Errorf("RootMargin = %q, want %q", got.RootMargin, want)
	}
	if got.Visual.Left != 250 || got.Visual.Width != 500 {
		t.Errorf("Visual = %+v", got.Visual)
	}
	if got.Root.Width != 1000 || got.Root.Height != 800 {
		t.Errorf("Root = %+v", got.Root)
	}
	if got.Expanded != got.Visual {
		t.Errorf("Expanded = %+v, want visual rect for a zero margin", got.Expanded)
	}
}

func TestTranslateRejects(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"negative layout", `{"viewport":{"layout":{"width":-1,"height":10}}}`, errors.ErrCodeInvalidGeometry},
		{"bad margin", `{"viewport":{"layout":{"width":10,"height":10}},"rootMargin":"1 2"}`, errors.ErrCodeInvalidMargin},
		{"bad json", `{`, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, "/v1/translate", "application/json", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			if got := decode[ErrorResponse](t, resp).Code; got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestSimulate(t *testing.T) {
	srv := newTestServer(t)

	doc := `
targets = ["a"]
[layout]
width = 1000
height = 800
[[steps]]
action = "zoom"
scale = 2.0
[[steps]]
action = "idle"
`
	resp := post(t, srv, "/v1/simulate", "application/toml", doc)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	report := decode[scenario.Report](t, resp)
	if len(report.Generations) != 2 {
		t.Fatalf("generations = %d, want 2", len(report.Generations))
	}
	if want := "-200px -250px -200px -250px"; report.Generations[1].RootMargin != want {
		t.Errorf("RootMargin = %q, want %q", report.Generations[1].RootMargin, want)
	}

	bad := post(t, srv, "/v1/simulate", "application/toml", "nope = 1")
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid scenario status = %d, want 400", bad.StatusCode)
	}
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/nothing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	requests []string
	statuses []int
}

func (h *recordingHTTPHooks) OnRequest(_ context.Context, method, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, method+" "+path)
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	srv := newTestServer(t)
	post(t, srv, "/v1/parse", "application/json", `{"rootMargin":"bad"}`)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.requests) != 1 || hooks.requests[0] != "POST /v1/parse" {
		t.Errorf("requests = %v, want [POST /v1/parse]", hooks.requests)
	}
	if len(hooks.statuses) != 1 || hooks.statuses[0] != http.StatusBadRequest {
		t.Errorf("statuses = %v, want [400]", hooks.statuses)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidMargin, http.StatusBadRequest},
		{errors.ErrCodeFileNotFound, http.StatusNotFound},
		{errors.ErrCodeUnsupported, http.StatusNotImplemented},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.code); got != tt.want {
			t.Errorf("statusFor(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
