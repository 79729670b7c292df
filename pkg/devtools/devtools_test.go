package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/signalscope/pkg/loop"
	"github.com/vango-dev/signalscope/pkg/metrics"
	"github.com/vango-dev/signalscope/pkg/scope"
)

func TestFeedHistory(t *testing.T) {
	feed := NewFeed(4, nil)
	tr := scope.NewTracker(scope.WithObserver(feed))

	outer := tr.NewScope(scope.ManagedComponent)
	outer.Start()
	tr.NewScope(scope.Unmanaged).Start()
	outer.Finish()

	counts := feed.Counts()
	if counts["started"] != 1 || counts["folded"] != 1 || counts["finished"] != 1 {
		t.Errorf("Counts() = %v", counts)
	}

	recent := feed.Recent()
	if len(recent) != 3 {
		t.Fatalf("len(Recent()) = %d, want 3", len(recent))
	}
	if recent[0].Action != "begin new" {
		t.Errorf("first action = %q", recent[0].Action)
	}
	if recent[1].Action != "fold into active" {
		t.Errorf("fold action = %q", recent[1].Action)
	}
	if recent[2].Action != "" {
		t.Errorf("finish should carry no action, got %q", recent[2].Action)
	}
	for i, msg := range recent {
		if msg.Seq != uint64(i+1) {
			t.Errorf("recent[%d].Seq = %d", i, msg.Seq)
		}
	}
}

func TestFeedHistoryIsBounded(t *testing.T) {
	feed := NewFeed(1, nil)
	for i := 0; i < recentEvents+10; i++ {
		feed.Observe(scope.Event{Kind: scope.EventNotified, ScopeID: uint64(i)})
	}
	recent := feed.Recent()
	if len(recent) != recentEvents {
		t.Fatalf("len(Recent()) = %d, want %d", len(recent), recentEvents)
	}
	if recent[len(recent)-1].ScopeID != recentEvents+9 {
		t.Errorf("newest event = %d", recent[len(recent)-1].ScopeID)
	}
}

func TestScopesEndpoint(t *testing.T) {
	l := loop.New()
	feed := NewFeed(8, nil)
	tr := scope.NewTracker(scope.WithScheduler(l), scope.WithObserver(feed))

	var leaked *scope.Scope
	if err := l.Turn(func() {
		leaked = tr.NewScope(scope.Unmanaged)
		leaked.Start()
	}); err != nil {
		t.Fatal(err)
	}

	srv := NewServer(feed, WithInspector(TrackerInspector(tr, l.Do)), WithGatherer(prometheus.NewRegistry()))
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/debug/scopes")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body ScopesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Tracker == nil {
		t.Fatal("tracker state missing")
	}
	if body.Tracker.ActiveScope != 0 || body.Tracker.Reaped != 1 {
		t.Errorf("tracker = %+v, want no active scope and one reaped", *body.Tracker)
	}
	if body.Counts["reaped"] != 1 {
		t.Errorf("counts = %v", body.Counts)
	}
	if leaked.Tracking() {
		t.Error("leaked scope should have been finished by the reaper")
	}
}

func TestScopesEndpointInspectorError(t *testing.T) {
	srv := NewServer(NewFeed(1, nil), WithInspector(func() (TrackerState, error) {
		return TrackerState{}, errors.New("loop terminated")
	}), WithGatherer(prometheus.NewRegistry()))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/scopes", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.New(metrics.WithRegistry(reg))
	feed := NewFeed(1, nil)

	tr := scope.NewTracker(scope.WithObserver(scope.Observers(collector, feed)))
	s := tr.NewScope(scope.ManagedHook)
	s.Start()
	s.Finish()

	srv := NewServer(feed, WithGatherer(reg))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `signalscope_scope_events_total{event="started",mode="managed-hook"} 1`) {
		t.Errorf("metrics output missing started counter:\n%s", body)
	}
}

func TestWebSocketFeed(t *testing.T) {
	feed := NewFeed(8, nil)
	srv := NewServer(feed, WithGatherer(prometheus.NewRegistry()))
	ts := httptest.NewServer(srv)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for feed.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	feed.Observe(scope.Event{Kind: scope.EventNotified, ScopeID: 42, Mode: scope.ManagedComponent, Version: 3})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Kind != "notified" || msg.ScopeID != 42 || msg.Version != 3 || msg.Mode != "managed-component" {
		t.Errorf("msg = %+v", msg)
	}

	conn.Close()
	for feed.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	srv := NewServer(NewFeed(1, nil), WithGatherer(prometheus.NewRegistry()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/debug/scopes")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestCompileFilter(t *testing.T) {
	prog, err := CompileFilter(`Kind == "reaped" && Mode == "unmanaged"`)
	if err != nil {
		t.Fatalf("CompileFilter error: %v", err)
	}
	c := &client{filter: prog}
	if !c.wants(EventMessage{Kind: "reaped", Mode: "unmanaged"}) {
		t.Error("reaped unmanaged event should pass")
	}
	if c.wants(EventMessage{Kind: "started", Mode: "unmanaged"}) {
		t.Error("started event should be filtered out")
	}

	for _, src := range []string{`Kind ==`, `ScopeID + 1`, `Nope == 1`} {
		if _, err := CompileFilter(src); err == nil {
			t.Errorf("CompileFilter(%q) should fail", src)
		}
	}
}

func TestWebSocketFilter(t *testing.T) {
	feed := NewFeed(8, nil)
	ts := httptest.NewServer(NewServer(feed, WithGatherer(prometheus.NewRegistry())))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ws?filter=" + url.QueryEscape("Kind =="))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad filter status = %d, want 400", resp.StatusCode)
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?filter=" + url.QueryEscape(`Kind == "reaped"`)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for feed.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	feed.Observe(scope.Event{Kind: scope.EventStarted, ScopeID: 1})
	feed.Observe(scope.Event{Kind: scope.EventReaped, ScopeID: 2})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Kind != "reaped" || msg.ScopeID != 2 {
		t.Errorf("msg = %+v, want the reaped event only", msg)
	}
}
