package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/game"
	"github.com/pthm-cable/meadow/telemetry"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Default()
	cfg.Prey.EnergyCost = 0
	cfg.Predator.EnergyCost = 0
	g, err := game.New(cfg, game.Options{Seed: 1, Logger: logger})
	if err != nil {
		t.Fatalf("game.New: %v", err)
	}
	r := game.NewRunner(g)
	srv := New(g, r, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
		g.Close()
	})
	return ts
}

func post(t *testing.T, ts *httptest.Server, cmd string) (int, Result) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/commands", "application/json", bytes.NewBufferString(cmd))
	if err != nil {
		t.Fatalf("post %s: %v", cmd, err)
	}
	defer resp.Body.Close()
	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return resp.StatusCode, res
}

func TestCommandsAndState(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		cmd    string
		status int
	}{
		{`{"type":"add","kind":"wolves","count":2}`, http.StatusOK},
		{`{"type":"add","kind":"sheep","count":-1}`, http.StatusUnprocessableEntity},
		{`{"type":"add","kind":"dragons","count":1}`, http.StatusUnprocessableEntity},
		{`{"type":"zone","kind":"pollution","x":10,"y":10}`, http.StatusOK},
		{`{"type":"zone","kind":"pollution","x":10,"y":10,"radius":-3}`, http.StatusUnprocessableEntity},
		{`{"type":"weather","weather":"storm"}`, http.StatusOK},
		{`{"type":"speed","speed":2e9}`, http.StatusUnprocessableEntity},
		{`{"type":"speed","speed":1e-12}`, http.StatusUnprocessableEntity},
		{`{"type":"speed","speed":10}`, http.StatusOK},
		{`{"type":"fly"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		status, res := post(t, ts, tt.cmd)
		if status != tt.status {
			t.Errorf("%s: status %d, want %d (%+v)", tt.cmd, status, tt.status, res)
		}
		if res.OK != (tt.status == http.StatusOK) {
			t.Errorf("%s: ok = %v", tt.cmd, res.OK)
		}
	}

	resp, err := http.Get(ts.URL + "/v1/state")
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	defer resp.Body.Close()
	var st State
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode state: %v", err)
	}

	if st.Counts.Predators != 2 || len(st.Entities) != 2 {
		t.Errorf("state counts = %+v with %d entities", st.Counts, len(st.Entities))
	}
	if len(st.Zones) != 1 || st.Zones[0].Radius != config.Default().Zones.DefaultRadius {
		t.Errorf("zones = %+v, want one with the default radius", st.Zones)
	}
	if st.Environment.Weather.String() != "storm" || st.State != game.StateIdle {
		t.Errorf("state = %+v", st)
	}
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/commands", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed command: status %d", resp.StatusCode)
	}

	for path, want := range map[string]int{
		"/v1/history?since=x": http.StatusBadRequest,
		"/v1/history?run=1":   http.StatusNotFound,
		"/v1/runs":            http.StatusNotFound,
	} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("GET %s: status %d, want %d", path, resp.StatusCode, want)
		}
	}
}

func readEvent(t *testing.T, conn *websocket.Conn, typ string) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("waiting for %s event: %v", typ, err)
		}
		if ev.Type == typ {
			return ev
		}
	}
}

func TestWebsocketSession(t *testing.T) {
	ts := newTestServer(t)
	post(t, ts, `{"type":"add","kind":"plants","count":5}`)
	post(t, ts, `{"type":"add","kind":"sheep","count":3}`)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ev := readEvent(t, conn, "state")
	if ev.State == nil || ev.State.Counts.Prey != 3 {
		t.Fatalf("initial state = %+v", ev.State)
	}

	if err := conn.WriteJSON(Command{Type: CmdTemperature, Temperature: 99}); err != nil {
		t.Fatal(err)
	}
	ev = readEvent(t, conn, "result")
	if !ev.Result.OK || ev.Result.Temperature == nil || *ev.Result.Temperature != 50 {
		t.Errorf("temperature result = %+v", ev.Result)
	}

	for _, cmd := range []Command{{Type: CmdSpeed, Speed: 500}, {Type: CmdStart}} {
		if err := conn.WriteJSON(cmd); err != nil {
			t.Fatal(err)
		}
		if ev := readEvent(t, conn, "result"); !ev.Result.OK {
			t.Fatalf("%s failed: %s", cmd.Type, ev.Result.Error)
		}
	}

	ev = readEvent(t, conn, "tick")
	if ev.Tick == nil || ev.Tick.Tick < 1 || ev.Tick.State != game.StateRunning {
		t.Errorf("tick event = %+v", ev.Tick)
	}

	resp, err := http.Get(ts.URL + "/v1/history?since=0")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var hist []telemetry.Sample
	if err := json.NewDecoder(resp.Body).Decode(&hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist) == 0 || hist[0].Tick != 1 {
		t.Errorf("history = %+v", hist)
	}
}
