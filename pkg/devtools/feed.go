package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/signalscope/internal/errors"
	"github.com/vango-dev/signalscope/pkg/scope"
)

const (
	recentEvents = 32
	writeTimeout = 5 * time.Second
)

// EventMessage is one scope event as sent to feed clients.
type EventMessage struct {
	Kind     string `json:"kind"`
	ScopeID  uint64 `json:"scopeId"`
	Mode     string `json:"mode"`
	Version  int32  `json:"version"`
	Action   string `json:"action,omitempty"`
	Restored uint64 `json:"restored,omitempty"`
	Seq      uint64 `json:"seq"`
}

func newEventMessage(ev scope.Event, seq uint64) EventMessage {
	msg := EventMessage{
		Kind:     ev.Kind.String(),
		ScopeID:  ev.ScopeID,
		Mode:     ev.Mode.String(),
		Version:  ev.Version,
		Restored: ev.Restored,
		Seq:      seq,
	}
	if ev.Kind == scope.EventStarted || ev.Kind == scope.EventFolded {
		msg.Action = ev.Action.String()
	}
	return msg
}

type client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	filter  *vm.Program
	dropped uint64
}

// CompileFilter compiles a boolean expression over EventMessage fields,
// for example `Kind == "reaped" || Mode == "unmanaged"`.
func CompileFilter(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(EventMessage{}), expr.AsBool())
}

func (c *client) wants(msg EventMessage) bool {
	if c.filter == nil {
		return true
	}
	out, err := expr.Run(c.filter, msg)
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}

// Feed fans scope events out to websocket clients and keeps a short history.
type Feed struct {
	mu      sync.Mutex
	clients map[string]*client
	counts  map[string]uint64
	recent  []EventMessage
	seq     uint64

	buffer   int
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewFeed creates a feed with the given per-client buffer size.
func NewFeed(buffer int, logger *slog.Logger) *Feed {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		clients: make(map[string]*client),
		counts:  make(map[string]uint64),
		buffer:  buffer,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // local tooling
			},
		},
	}
}

// Observe implements scope.Observer.
func (f *Feed) Observe(ev scope.Event) {
	f.mu.Lock()
	f.seq++
	msg := newEventMessage(ev, f.seq)
	f.counts[msg.Kind]++
	f.recent = append(f.recent, msg)
	if len(f.recent) > recentEvents {
		f.recent = f.recent[len(f.recent)-recentEvents:]
	}

	data, err := json.Marshal(msg)
	if err != nil {
		f.mu.Unlock()
		return
	}
	for _, c := range f.clients {
		if !c.wants(msg) {
			continue
		}
		select {
		case c.send <- data:
		default:
			c.dropped++
		}
	}
	f.mu.Unlock()
}

// Counts returns the number of events seen per kind.
func (f *Feed) Counts() map[string]uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]uint64, len(f.counts))
	for k, v := range f.counts {
		out[k] = v
	}
	return out
}

// Recent returns the most recent events, oldest first.
func (f *Feed) Recent() []EventMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]EventMessage(nil), f.recent...)
}

// ClientCount returns the number of connected clients.
func (f *Feed) ClientCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// ServeHTTP upgrades the connection and streams events until the client
// disconnects. An optional filter query parameter selects which events the
// client receives.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var filter *vm.Program
	if src := r.URL.Query().Get("filter"); src != "" {
		prog, err := CompileFilter(src)
		if err != nil {
			http.Error(w, errors.New("S022").Wrap(err).Error(), http.StatusBadRequest)
			return
		}
		filter = prog
	}

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("devtools websocket upgrade failed", "error", errors.New("S021").Wrap(err))
		return
	}

	c := &client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, f.buffer),
		filter: filter,
	}

	f.mu.Lock()
	f.clients[c.id] = c
	f.mu.Unlock()
	f.logger.Debug("devtools client connected", "client_id", c.id)

	done := make(chan struct{})
	go f.writeLoop(c, done)

	// Read until the client goes away; incoming frames are ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	f.mu.Lock()
	delete(f.clients, c.id)
	dropped := c.dropped
	f.mu.Unlock()
	close(done)
	conn.Close()

	f.logger.Debug("devtools client disconnected", "client_id", c.id, "dropped", dropped)
}

func (f *Feed) writeLoop(c *client, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

// Close disconnects every client.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.clients {
		c.conn.Close()
		delete(f.clients, id)
	}
}
