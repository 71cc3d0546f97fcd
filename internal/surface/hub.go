package surface

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/SoarinFerret/TabWarden/internal/activity"
	"github.com/SoarinFerret/TabWarden/internal/domain"
	"github.com/SoarinFerret/TabWarden/internal/idle"
)

const (
	sendQueueSize = 16
	writeTimeout  = 5 * time.Second
)

// Handler receives the events surfaces report. Calls for one connection are
// made sequentially from its read loop.
type Handler interface {
	SurfaceFocused(ctx context.Context)
	FocusLost(ctx context.Context)
	IdleStateChanged(ctx context.Context, state idle.State)
	CheckLimit(ctx context.Context, surfaceID string, d domain.Domain)
	UserContinued(ctx context.Context, surfaceID string, d domain.Domain)
	CloseRequested(ctx context.Context, surfaceID string)
}

type client struct {
	id   string
	conn *websocket.Conn
	out  chan Message
}

type entry struct {
	client *client
	local  string
	url    string
}

// Status summarizes the hub for status queries.
type Status struct {
	Clients  int    `json:"clients"`
	Surfaces int    `json:"surfaces"`
	Active   string `json:"active,omitempty"`
	Idle     string `json:"idle"`
}

// Hub accepts WebSocket connections from browser extensions and keeps track
// of their surfaces and which of them has focus.
type Hub struct {
	handler        Handler
	originPatterns []string

	mu       sync.RWMutex
	clients  map[string]*client
	surfaces map[string]*entry
	active   string
	idle     idle.State
	// idleThreshold is announced to every client; zero until the first query.
	idleThreshold time.Duration
}

// NewHub creates a hub. allowedOrigins are origins such as
// "chrome-extension://*"; only their host part is matched.
func NewHub(handler Handler, allowedOrigins []string) *Hub {
	patterns := make([]string, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if i := strings.Index(o, "://"); i >= 0 {
			o = o[i+3:]
		}
		patterns = append(patterns, o)
	}
	return &Hub{
		handler:        handler,
		originPatterns: patterns,
		clients:        make(map[string]*client),
		surfaces:       make(map[string]*entry),
		idle:           idle.Active,
	}
}

// SetHandler replaces the event handler. It must be called before the hub
// serves its first connection.
func (h *Hub) SetHandler(handler Handler) {
	h.handler = handler
}

func surfaceKey(clientID, local string) string {
	return clientID + ":" + local
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		log.Println("surface: websocket accept failed:", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		out:  make(chan Message, sendQueueSize),
	}
	h.mu.Lock()
	h.clients[c.id] = c
	threshold := h.idleThreshold
	h.mu.Unlock()
	log.Printf("surface: client %s connected from %s", c.id, r.RemoteAddr)
	if threshold > 0 {
		c.out <- idleConfig(threshold)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.writeLoop(ctx, c)

	defer func() {
		h.drop(r.Context(), c)
		conn.Close(websocket.StatusNormalClosure, "")
		log.Printf("surface: client %s disconnected", c.id)
	}()

	for {
		var msg Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				log.Printf("surface: read from %s failed: %v", c.id, err)
			}
			return
		}
		h.handle(ctx, c, msg)
	}
}

func (h *Hub) writeLoop(ctx context.Context, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.out:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c.conn, msg)
			cancel()
			if err != nil {
				log.Printf("surface: write %s to %s failed: %v", msg.Type, c.id, err)
			}
		}
	}
}

// drop forgets a disconnected client and its surfaces.
func (h *Hub) drop(ctx context.Context, c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	lostFocus := false
	for key, e := range h.surfaces {
		if e.client == c {
			delete(h.surfaces, key)
			if key == h.active {
				h.active = ""
				lostFocus = true
			}
		}
	}
	h.mu.Unlock()

	if lostFocus {
		h.handler.FocusLost(ctx)
	}
}

func (h *Hub) handle(ctx context.Context, c *client, msg Message) {
	key := surfaceKey(c.id, msg.Surface)

	switch msg.Type {
	case TypeSurfaceActivated:
		if msg.Surface == "" {
			return
		}
		h.mu.Lock()
		h.upsert(c, msg.Surface, msg.URL)
		h.active = key
		h.mu.Unlock()
		h.handler.SurfaceFocused(ctx)

	case TypeSurfaceUpdated:
		if msg.Surface == "" {
			return
		}
		h.mu.Lock()
		h.upsert(c, msg.Surface, msg.URL)
		isActive := h.active == key
		h.mu.Unlock()
		if isActive && msg.Status == StatusComplete {
			h.handler.SurfaceFocused(ctx)
		}

	case TypeSurfaceRemoved:
		h.mu.Lock()
		delete(h.surfaces, key)
		wasActive := h.active == key
		if wasActive {
			h.active = ""
		}
		h.mu.Unlock()
		if wasActive {
			h.handler.FocusLost(ctx)
		}

	case TypeFocusChanged:
		if msg.Focused == nil || !*msg.Focused {
			h.mu.Lock()
			h.active = ""
			h.mu.Unlock()
			h.handler.FocusLost(ctx)
			return
		}
		if msg.Surface != "" {
			h.mu.Lock()
			h.upsert(c, msg.Surface, msg.URL)
			h.active = key
			h.mu.Unlock()
		}
		h.handler.SurfaceFocused(ctx)

	case TypeIdleState:
		state, err := idle.ParseState(msg.State)
		if err != nil {
			log.Printf("surface: %s sent %v", c.id, err)
			return
		}
		h.mu.Lock()
		h.idle = state
		h.mu.Unlock()
		h.handler.IdleStateChanged(ctx, state)

	case TypeCheckLimit:
		d, ok := h.domainFor(key, msg.Domain)
		if !ok {
			return
		}
		h.handler.CheckLimit(ctx, key, d)

	case TypeUserContinued:
		d, _ := h.domainFor(key, msg.Domain)
		h.handler.UserContinued(ctx, key, d)

	case TypeCloseTab:
		h.handler.CloseRequested(ctx, key)

	default:
		log.Printf("surface: ignoring unknown message type %q from %s", msg.Type, c.id)
	}
}

// upsert must be called with h.mu held.
func (h *Hub) upsert(c *client, local, url string) {
	key := surfaceKey(c.id, local)
	e, ok := h.surfaces[key]
	if !ok {
		e = &entry{client: c, local: local}
		h.surfaces[key] = e
	}
	if url != "" {
		e.url = url
	}
}

// domainFor prefers the domain a surface names itself and falls back to the
// one derived from its last known URL.
func (h *Hub) domainFor(key, reported string) (domain.Domain, bool) {
	if d, ok := domain.Normalize(reported); ok {
		return d, true
	}
	h.mu.RLock()
	e, ok := h.surfaces[key]
	h.mu.RUnlock()
	if !ok {
		return "", false
	}
	return domain.Resolve(e.url)
}

// ActiveSurface returns the focused surface.
func (h *Hub) ActiveSurface(ctx context.Context) (activity.Surface, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.active == "" {
		return activity.Surface{}, ErrNoActiveSurface
	}
	e, ok := h.surfaces[h.active]
	if !ok {
		return activity.Surface{}, ErrNoActiveSurface
	}
	return activity.Surface{ID: h.active, URL: e.url}, nil
}

// Send queues msg for the surface. It never blocks on the network.
func (h *Hub) Send(ctx context.Context, surfaceID string, msg Message) error {
	h.mu.RLock()
	e, ok := h.surfaces[surfaceID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSurface, surfaceID)
	}

	msg.Surface = e.local
	select {
	case e.client.out <- msg:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrSendQueueFull, surfaceID)
	}
}

// QueryState reports the idle state the browser last announced. The browser
// does the detection itself, so a new threshold is pushed to every client
// and applies to the reports that follow.
func (h *Hub) QueryState(ctx context.Context, threshold time.Duration) (idle.State, error) {
	h.mu.Lock()
	state := h.idle
	var notify []*client
	if threshold > 0 && threshold != h.idleThreshold {
		h.idleThreshold = threshold
		for _, c := range h.clients {
			notify = append(notify, c)
		}
	}
	h.mu.Unlock()

	msg := idleConfig(threshold)
	for _, c := range notify {
		select {
		case c.out <- msg:
		default:
			log.Printf("surface: %v: idle config for %s", ErrSendQueueFull, c.id)
		}
	}
	return state, nil
}

func idleConfig(threshold time.Duration) Message {
	return Message{Type: TypeIdleConfig, IdleSeconds: int64(threshold / time.Second)}
}

func (h *Hub) Status() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Status{
		Clients:  len(h.clients),
		Surfaces: len(h.surfaces),
		Active:   h.active,
		Idle:     string(h.idle),
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}
