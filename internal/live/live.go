// Package live hosts list screens over a websocket. Each connection owns one
// list controller; keystrokes are debounced on the server and every change
// pushes the re-rendered table together with the canonical URL.
package live

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/equip-manager/equip-console/internal/backend"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 10
	eventBuffer    = 16
)

// Screen is a list the channel can drive.
type Screen interface {
	Init(ctx context.Context, query url.Values)
	Search(ctx context.Context, term string) url.Values
	SetFilter(ctx context.Context, name, value string) url.Values
	GoToPage(ctx context.Context, n int) url.Values
	Type(term string, deliver func(term string))
	Close()
	Render(out io.Writer) error
	URL() string
}

// Factory builds a fresh screen for one connection.
type Factory func() Screen

// Tracker is told when connections open and close.
type Tracker interface {
	LiveOpened(section string)
	LiveClosed(section string)
}

// Handler upgrades /live/{section} requests.
type Handler struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader
	tracker  Tracker
	closing  context.Context
	shutdown context.CancelFunc

	mu      sync.RWMutex
	screens map[string]Factory
}

// NewHandler constructs a Handler. tracker may be nil.
func NewHandler(logger *slog.Logger, tracker Tracker) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	closing, shutdown := context.WithCancel(context.Background())
	return &Handler{
		logger: logger.With(slog.String("component", "live")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 << 10,
		},
		tracker:  tracker,
		closing:  closing,
		shutdown: shutdown,
		screens:  make(map[string]Factory),
	}
}

// Shutdown closes every open connection. Hijacked connections are not
// tracked by http.Server, so register this with RegisterOnShutdown.
func (h *Handler) Shutdown() {
	h.shutdown()
}

// Register makes section reachable at /live/{section}.
func (h *Handler) Register(section string, factory Factory) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.screens[section] = factory
}

// MountRoutes registers the websocket route on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/live/{section}", h.serve)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")
	h.mu.RLock()
	factory, ok := h.screens[section]
	h.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already answered with an error status
		h.logger.Warn("websocket upgrade failed", slog.String("section", section), slog.Any("error", err))
		return
	}
	if h.tracker != nil {
		h.tracker.LiveOpened(section)
		defer h.tracker.LiveClosed(section)
	}
	h.logger.Debug("live connection opened", slog.String("section", section))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(h.closing, cancel)
	defer stop()

	c := newConn(ws, factory(), h.logger.With(slog.String("section", section)))
	c.run(ctx)
	h.logger.Debug("live connection closed", slog.String("section", section))
}

type eventKind int

const (
	eventFrame eventKind = iota
	eventDebounced
)

type event struct {
	kind  eventKind
	frame ClientFrame
	term  string
}

// conn serves one websocket. Only the run goroutine writes to ws and
// touches the screen; the reader and debounce timers feed events.
type conn struct {
	ws     *websocket.Conn
	screen Screen
	logger *slog.Logger

	events      chan event
	done        chan struct{}
	initialized bool
	inflight    int
}

func newConn(ws *websocket.Conn, screen Screen, logger *slog.Logger) *conn {
	return &conn{
		ws:     ws,
		screen: screen,
		logger: logger,
		events: make(chan event, eventBuffer),
		done:   make(chan struct{}),
	}
}

func (c *conn) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	ctx = backend.WithNotifier(ctx, backend.NotifierFunc(c.toast))
	ctx = backend.WithObserver(ctx, c)

	readerDone := make(chan struct{})
	go c.read(readerDone)

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		c.screen.Close()
		_ = c.ws.Close()
		<-readerDone
	}()

	for {
		select {
		case <-readerDone:
			return
		case <-ctx.Done():
			c.closeWith(websocket.CloseGoingAway, "")
			return
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case ev := <-c.events:
			if err := c.handle(ctx, ev); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					c.logger.Debug("live write failed", slog.Any("error", err))
				}
				return
			}
		}
	}
}

func (c *conn) read(readerDone chan<- struct{}) {
	defer close(readerDone)
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var frame ClientFrame
		if err := c.ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("live read failed", slog.Any("error", err))
			}
			return
		}
		if !c.enqueue(event{kind: eventFrame, frame: frame}) {
			return
		}
	}
}

// enqueue hands ev to the run loop; false once the connection is gone.
func (c *conn) enqueue(ev event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

func (c *conn) handle(ctx context.Context, ev event) error {
	if ev.kind == eventDebounced {
		c.screen.Search(ctx, ev.term)
		return c.render()
	}

	frame := ev.frame
	if frame.Type == FrameInit {
		query, err := url.ParseQuery(strings.TrimPrefix(frame.Query, "?"))
		if err != nil {
			query = url.Values{}
		}
		c.initialized = true
		c.screen.Init(ctx, query)
		return c.render()
	}
	if !c.initialized {
		c.initialized = true
		c.screen.Init(ctx, url.Values{})
	}

	switch frame.Type {
	case FrameType:
		// rendered when the debounced search fires
		c.screen.Type(frame.Value, func(term string) {
			c.enqueue(event{kind: eventDebounced, term: term})
		})
		return nil
	case FrameSearch:
		c.screen.Search(ctx, frame.Value)
	case FrameFilter:
		c.screen.SetFilter(ctx, frame.Name, frame.Value)
	case FramePage:
		c.screen.GoToPage(ctx, frame.Page)
	default:
		c.logger.Debug("unknown live frame", slog.String("type", frame.Type))
		return nil
	}
	return c.render()
}

func (c *conn) render() error {
	var buf bytes.Buffer
	if err := c.screen.Render(&buf); err != nil {
		c.logger.Error("render live fragment", slog.Any("error", err))
		return c.send(ServerFrame{Type: FrameToast, Kind: backend.KindError, Message: backend.FallbackMessage})
	}
	return c.send(ServerFrame{Type: FrameRender, HTML: buf.String(), URL: c.screen.URL()})
}

// toast forwards notifications raised during a backend call. It runs on the
// run goroutine because every screen call does.
func (c *conn) toast(_ context.Context, n backend.Notification) {
	if err := c.send(ServerFrame{Type: FrameToast, Kind: n.Kind, Message: n.Message}); err != nil {
		c.logger.Debug("live toast dropped", slog.Any("error", err))
	}
}

// RequestStarted implements backend.Observer.
func (c *conn) RequestStarted(context.Context, backend.RequestInfo) {
	c.inflight++
	if c.inflight == 1 {
		_ = c.send(loadingFrame(true))
	}
}

// RequestFinished implements backend.Observer.
func (c *conn) RequestFinished(context.Context, backend.RequestInfo) {
	if c.inflight == 0 {
		return
	}
	c.inflight--
	if c.inflight == 0 {
		_ = c.send(loadingFrame(false))
	}
}

func (c *conn) send(frame ServerFrame) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(frame)
}

func (c *conn) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(messageType, data)
}

func (c *conn) closeWith(code int, text string) {
	_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
}
