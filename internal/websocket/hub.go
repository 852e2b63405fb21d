package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"backoffice/internal/auth"
	"backoffice/internal/logger"
	"backoffice/internal/model"
	"backoffice/internal/permission"
	"backoffice/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Notification types understood by the front end toasts
const (
	TypeSuccess = "success"
	TypeInfo    = "info"
	TypeWarning = "warning"
)

// Notification is a toast-style message pushed to connected clients
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
	// Capability limits delivery to clients whose user holds the key
	Capability string `json:"-"`
}

// UserLoader reloads the user behind a websocket token
type UserLoader interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
}

type message struct {
	payload    []byte
	capability string
}

// Client represents a single connected WebSocket client. User is loaded once
// when the socket connects.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
	User *model.User
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	upgrader   websocket.Upgrader
	mu         sync.Mutex
	log        *zap.Logger
}

// NewHub initializes a new WS Hub instance. Browser upgrades are accepted
// from allowedOrigins or from the server's own host.
func NewHub(log *zap.Logger, allowedOrigins []string) *Hub {
	h := &Hub{
		broadcast:  make(chan message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		log:        log.Named("ws"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// originChecker accepts requests without an Origin header (non-browser
// clients), same-host origins and the configured ones.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	_, wildcard := set["*"]

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || wildcard {
			return true
		}
		if _, ok := set[origin]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// Run starts the core dispatch loop for WebSocket events. It returns when
// ctx is cancelled; clients are then closed and later registrations refused.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("client connected", zap.Uint("user_id", client.User.ID))
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.log.Debug("client disconnected", zap.Uint("user_id", client.User.ID))
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if msg.capability != "" && !permission.Authorize(client.User, msg.capability) {
					continue
				}
				select {
				case client.Send <- msg.payload:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Notify queues n for the clients allowed to see it. It never blocks the
// caller: when the broadcast queue is full the notification is dropped.
func (h *Hub) Notify(ctx context.Context, n Notification) {
	if n.Type == "" {
		n.Type = TypeSuccess
	}
	payload, err := json.Marshal(n)
	if err != nil {
		logger.FromContext(ctx).Warn("failed to encode notification", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- message{payload: payload, capability: n.Capability}:
	default:
		logger.FromContext(ctx).Warn("notification dropped: broadcast queue full", zap.String("title", n.Title))
	}
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		w, err := c.Conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		_, _ = w.Write(message)

		// Fast track writing queued messages
		n := len(c.Send)
		for i := 0; i < n; i++ {
			_, _ = w.Write([]byte{'\n'})
			_, _ = w.Write(<-c.Send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		_ = c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("unexpected close", zap.Error(err))
			}
			break
		}
	}
}

// ServeWs upgrades an authenticated request. The token travels in the
// "token" query parameter since browsers cannot set headers on websockets.
func ServeWs(hub *Hub, c *gin.Context, secret []byte, users UserLoader) {
	log := logger.GetGinLogger(c)

	select {
	case <-hub.done:
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	default:
	}

	tokenString := c.Query("token")
	if tokenString == "" {
		log.Warn("websocket rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	claims, err := auth.Parse(tokenString, secret)
	if err != nil {
		log.Warn("websocket rejected: invalid token", zap.Error(err))
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if !permission.ValidLevel(claims.Level) {
		log.Warn("websocket rejected: unknown level", zap.String("level", claims.Level))
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	user, err := users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if repository.IsNotFound(err) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		log.Error("websocket rejected: failed to load user", zap.Uint("user_id", userID), zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	conn, err := hub.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256), User: user}

	select {
	case hub.register <- client:
	case <-hub.done:
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
