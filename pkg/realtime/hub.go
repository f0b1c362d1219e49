// Package realtime pushes live store snapshots and toasts to connected browsers over websockets.
package realtime

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/andrescris/storefront/pkg/models"
	"github.com/andrescris/storefront/pkg/notify"
	"github.com/andrescris/storefront/pkg/state"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

// Event types sent to clients.
const (
	EventSnapshot = "snapshot"
	EventToast    = "toast"
	EventOpen     = "open"
)

// Topics of snapshot events.
const (
	TopicConfig     = "config"
	TopicBanners    = "banners"
	TopicProducts   = "products"
	TopicCategories = "categories"
	TopicLoading    = "loading"
)

// ErrNoClient is returned by Open when no browser is listening for the cart.
var ErrNoClient = errors.New("realtime: no client connected for cart")

// Event is the message written to the socket as JSON.
type Event struct {
	Type  string      `json:"type"`
	Topic string      `json:"topic,omitempty"`
	Data  interface{} `json:"data"`
}

type client struct {
	cartID   string
	audience []string
	conn     *websocket.Conn
	send   chan Event
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans out app snapshots to every connected client and toasts to the clients in their
// audience.
type Hub struct {
	mu       sync.RWMutex
	app      *state.App
	toasts   *notify.Hub
	log      *logrus.Logger
	upgrader websocket.Upgrader
	clients  map[*client]struct{}
	unsub    []func()
}

func NewHub(app *state.App, toasts *notify.Hub, log *logrus.Logger, checkOrigin func(*http.Request) bool) *Hub {
	return &Hub{
		app:    app,
		toasts: toasts,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		clients: make(map[*client]struct{}),
	}
}

// Start subscribes the hub to the app documents and the toast hub.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unsub != nil {
		return
	}
	h.unsub = []func(){
		h.app.Config.Subscribe(func(v models.StoreConfig) { h.Broadcast(Event{Type: EventSnapshot, Topic: TopicConfig, Data: v}) }),
		h.app.Banners.Subscribe(func(v models.BannerList) { h.Broadcast(Event{Type: EventSnapshot, Topic: TopicBanners, Data: v.List}) }),
		h.app.Products.Subscribe(func(v models.ProductList) { h.Broadcast(Event{Type: EventSnapshot, Topic: TopicProducts, Data: v.List}) }),
		h.app.Categories.Subscribe(func(v models.CategoryList) {
			h.Broadcast(Event{Type: EventSnapshot, Topic: TopicCategories, Data: v.List})
		}),
	}
	if h.toasts != nil {
		h.unsub = append(h.unsub, h.toasts.Subscribe(func(t notify.Toast) {
			h.deliver(Event{Type: EventToast, Data: t}, func(c *client) bool { return t.VisibleTo(c.audience) })
		}))
	}
}

// Close unsubscribes from the app and disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	unsub := h.unsub
	h.unsub = nil
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, fn := range unsub {
		fn()
	}
	for c := range clients {
		c.close()
	}
}

// Clients returns how many sockets are connected.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues ev for every client. Slow clients are dropped.
func (h *Hub) Broadcast(ev Event) {
	h.deliver(ev, func(*client) bool { return true })
}

// Open asks the browsers of cartID to open link.
func (h *Hub) Open(_ context.Context, cartID, link string) error {
	n := h.deliver(Event{Type: EventOpen, Data: map[string]string{"url": link}}, func(c *client) bool {
		return cartID != "" && c.cartID == cartID
	})
	if n == 0 {
		return ErrNoClient
	}
	return nil
}

func (h *Hub) deliver(ev Event, match func(*client) bool) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for c := range h.clients {
		if !match(c) {
			continue
		}
		select {
		case c.send <- ev:
			n++
		default:
			h.log.WithField("cart", c.cartID).Warn("dropping slow websocket client")
			delete(h.clients, c)
			c.close()
		}
	}
	return n
}

func (h *Hub) snapshot() []Event {
	return []Event{
		{Type: EventSnapshot, Topic: TopicLoading, Data: h.app.Loading()},
		{Type: EventSnapshot, Topic: TopicConfig, Data: h.app.Config.Get()},
		{Type: EventSnapshot, Topic: TopicBanners, Data: h.app.Banners.Get().List},
		{Type: EventSnapshot, Topic: TopicProducts, Data: h.app.Products.Get().List},
		{Type: EventSnapshot, Topic: TopicCategories, Data: h.app.Categories.Get().List},
	}
}

// ServeWS upgrades the request and streams events until the client goes away. cartID and
// sessionID decide which toasts the client receives; either may be empty.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, cartID, sessionID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	audience := notify.AudienceFrom(notify.WithAudience(r.Context(), notify.CartAudience(cartID), notify.SessionAudience(sessionID)))
	c := &client{cartID: cartID, audience: audience, conn: conn, send: make(chan Event, sendBuffer)}
	for _, ev := range h.snapshot() {
		c.send <- ev
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// readPump only handles control frames; clients do not send commands over the socket.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).Debug("websocket closed")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				h.log.WithError(err).Debug("websocket write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
