package main

import (
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/marben/buddhabrot"
	"github.com/marben/buddhabrot/generator"
	"github.com/marben/buddhabrot/internal/wire"
)

func newTestServer(t *testing.T) (*httptest.Server, *engineHost) {
	t.Helper()
	a, b := buddhabrot.FullView.Corners()
	props := buddhabrot.Properties{
		Width: 40, Height: 30, CornerA: a, CornerB: b,
		Sampler: buddhabrot.Adaptive, Layers: 1, LayerResolution: 2,
	}
	params := buddhabrot.Parameters{MaxIterations: 32, MinIterations: 1, EscapeNorm: 4}
	runtime := buddhabrot.RuntimeParameters{Threads: 2, ThreadBatchSize: 100}

	h, err := newEngineHost(props, params, runtime,
		generator.WithPollIntervals(time.Millisecond, time.Millisecond))
	if err != nil {
		t.Fatalf("newEngineHost() error = %v", err)
	}
	srv := httptest.NewServer(newMux(h, 5*time.Millisecond))
	t.Cleanup(func() {
		srv.Close()
		h.stop()
	})
	return srv, h
}

func do(t *testing.T, method, url, body string) (int, wire.Snapshot) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var s wire.Snapshot
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
	}
	return resp.StatusCode, s
}

func TestStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	code, s := do(t, http.MethodGet, srv.URL+"/status", "")
	if code != http.StatusOK {
		t.Fatalf("GET /status = %d", code)
	}
	if s.Status != "Paused" {
		t.Errorf("Status = %q, want Paused", s.Status)
	}
	if len(s.Threads) != 2 {
		t.Errorf("len(Threads) = %d, want 2", len(s.Threads))
	}
	if s.Properties.Width != 40 || s.Properties.Sampler != "adaptive" {
		t.Errorf("Properties = %+v", s.Properties)
	}
	if s.Parameters.MaxIterations != 32 {
		t.Errorf("Parameters = %+v", s.Parameters)
	}
}

func TestControl(t *testing.T) {
	srv, _ := newTestServer(t)

	steps := []struct {
		action string
		code   int
		status string
	}{
		{"pause", http.StatusOK, "Paused"},
		{"resume", http.StatusOK, "Running"},
		{"resume", http.StatusOK, "Running"},
		{"pause", http.StatusOK, "Paused"},
		{"stop", http.StatusOK, "Stopped"},
		{"resume", http.StatusOK, "Stopped"},
		{"initiate", http.StatusOK, "Paused"},
		{"explode", http.StatusNotFound, ""},
	}
	for _, st := range steps {
		code, s := do(t, http.MethodPost, srv.URL+"/control/"+st.action, "")
		if code != st.code {
			t.Fatalf("POST /control/%s = %d, want %d", st.action, code, st.code)
		}
		if s.Status != st.status {
			t.Errorf("POST /control/%s: Status = %q, want %q", st.action, s.Status, st.status)
		}
	}
}

func TestControl_Finish(t *testing.T) {
	srv, h := newTestServer(t)

	do(t, http.MethodPost, srv.URL+"/control/resume", "")
	do(t, http.MethodPost, srv.URL+"/control/finish", "")

	deadline := time.Now().Add(10 * time.Second)
	for h.current().Status() != buddhabrot.Paused {
		if time.Now().After(deadline) {
			t.Fatal("generator did not pause after finish")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestParameters(t *testing.T) {
	srv, h := newTestServer(t)

	code, _ := do(t, http.MethodPost, srv.URL+"/parameters", `{"symmetry": true}`)
	if code != http.StatusConflict {
		t.Errorf("POST /parameters while paused = %d, want %d", code, http.StatusConflict)
	}

	do(t, http.MethodPost, srv.URL+"/control/stop", "")
	code, s := do(t, http.MethodPost, srv.URL+"/parameters", `{"symmetry": true}`)
	if code != http.StatusOK {
		t.Fatalf("POST /parameters = %d", code)
	}
	want := buddhabrot.Parameters{MaxIterations: 32, MinIterations: 1, EscapeNorm: 4, Symmetry: true}
	if s.Parameters != want {
		t.Errorf("Parameters = %+v, want %+v", s.Parameters, want)
	}
	if got := h.current().Parameters(); got != want {
		t.Errorf("engine Parameters() = %+v, want %+v", got, want)
	}

	code, _ = do(t, http.MethodPost, srv.URL+"/parameters", `{"max_iterations": 0}`)
	if code != http.StatusBadRequest {
		t.Errorf("POST /parameters with zero iterations = %d, want %d", code, http.StatusBadRequest)
	}
	code, _ = do(t, http.MethodPost, srv.URL+"/parameters", `{`)
	if code != http.StatusBadRequest {
		t.Errorf("POST /parameters with broken json = %d, want %d", code, http.StatusBadRequest)
	}
}

func TestRuntime(t *testing.T) {
	srv, _ := newTestServer(t)

	do(t, http.MethodPost, srv.URL+"/control/stop", "")
	code, s := do(t, http.MethodPost, srv.URL+"/runtime", `{"threads": 3, "points_target": 500}`)
	if code != http.StatusOK {
		t.Fatalf("POST /runtime = %d", code)
	}
	if s.Status != "Paused" {
		t.Errorf("Status = %q, want Paused after the pool restarted", s.Status)
	}
	if len(s.Threads) != 3 {
		t.Errorf("len(Threads) = %d, want 3", len(s.Threads))
	}
	if s.Total.Target != 500 || s.Runtime.ThreadBatchSize != 100 {
		t.Errorf("Runtime = %+v", s.Runtime)
	}

	code, _ = do(t, http.MethodPost, srv.URL+"/runtime", `{"threads": 4}`)
	if code != http.StatusConflict {
		t.Errorf("POST /runtime while paused = %d, want %d", code, http.StatusConflict)
	}
}

func TestNew(t *testing.T) {
	srv, h := newTestServer(t)
	old := h.current()

	code, _ := do(t, http.MethodPost, srv.URL+"/new", `{"width": 20}`)
	if code != http.StatusConflict {
		t.Errorf("POST /new while paused = %d, want %d", code, http.StatusConflict)
	}

	do(t, http.MethodPost, srv.URL+"/control/stop", "")
	code, s := do(t, http.MethodPost, srv.URL+"/new", `{"width": 20, "height": 10, "sampler": "uniform"}`)
	if code != http.StatusOK {
		t.Fatalf("POST /new = %d", code)
	}
	if h.current() == old {
		t.Error("engine was not replaced")
	}
	if s.Status != "Paused" || s.Properties.Width != 20 || s.Properties.Height != 10 || s.Properties.Sampler != "uniform" {
		t.Errorf("snapshot = %+v", s)
	}
	if s.Parameters.MaxIterations != 32 {
		t.Errorf("parameters did not carry over: %+v", s.Parameters)
	}

	do(t, http.MethodPost, srv.URL+"/control/stop", "")
	code, _ = do(t, http.MethodPost, srv.URL+"/new", `{"width": -1}`)
	if code != http.StatusBadRequest {
		t.Errorf("POST /new with negative width = %d, want %d", code, http.StatusBadRequest)
	}
}

func TestImage(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		query string
		w, h  int
	}{
		{"", 40, 30},
		{"?scale=0.5", 20, 15},
		{"?scale=2", 80, 60},
	}
	for _, tt := range tests {
		resp, err := http.Get(srv.URL + "/image.png" + tt.query)
		if err != nil {
			t.Fatal(err)
		}
		img, err := png.Decode(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("png.Decode(%q): %v", tt.query, err)
		}
		if b := img.Bounds(); b.Dx() != tt.w || b.Dy() != tt.h {
			t.Errorf("image%s is %dx%d, want %dx%d", tt.query, b.Dx(), b.Dy(), tt.w, tt.h)
		}
	}

	for _, q := range []string{"?scale=0", "?scale=nope", "?scale=10"} {
		resp, err := http.Get(srv.URL + "/image.png" + q)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("GET /image.png%s = %d, want %d", q, resp.StatusCode, http.StatusBadRequest)
		}
	}
}

func TestWebsocket(t *testing.T) {
	srv, h := newTestServer(t)
	h.current().Resume()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("websocket.Dial: %v", err)
	}
	defer c.CloseNow()

	var first, last wire.Snapshot
	for i := range 3 {
		var s wire.Snapshot
		if err := wsjson.Read(ctx, c, &s); err != nil {
			t.Fatalf("wsjson.Read: %v", err)
		}
		if i == 0 {
			first = s
		}
		last = s
	}
	if first.Viewers != 1 {
		t.Errorf("Viewers = %d, want 1", first.Viewers)
	}
	if last.Status != "Running" {
		t.Errorf("Status = %q, want Running", last.Status)
	}
	if last.Total.Done < first.Total.Done {
		t.Errorf("Total.Done went from %d to %d", first.Total.Done, last.Total.Done)
	}
	c.Close(websocket.StatusNormalClosure, "")
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"buddhabrot_workers", "buddhabrot_server_viewers"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("/metrics does not expose %s", name)
		}
	}
}
