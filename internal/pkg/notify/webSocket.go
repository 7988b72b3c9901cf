package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

var (
	//ErrConnClosed is returned when writing to a closed connection
	ErrConnClosed = errors.New("Connection closed")
	//ErrSlowConnection is returned when the connection send buffer is full
	ErrSlowConnection = errors.New("Connection send buffer is full")
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16
)

//UserHeader is set by the upstream auth layer
const UserHeader = "X-User-Id"

//WebSocketHandler upgrades requests to websocket and registers them on the bus
type WebSocketHandler struct {
	Hub      *Hub
	Bus      *Bus
	Upgrader websocket.Upgrader
}

//NewWebSocketHandler creates handler accepting any origin
func NewWebSocketHandler(hub *Hub, bus *Bus) *WebSocketHandler {
	return &WebSocketHandler{Hub: hub, Bus: bus, Upgrader: websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		}}}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := userFromRequest(r)
	if userID == "" {
		http.Error(w, "No user", http.StatusUnauthorized)
		cmdapp.Log.Error("No user for ws connection")
		return
	}
	c, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		cmdapp.Log.Error(errors.Wrap(err, "Can't init ws connection"))
		return
	}
	conn := newWsConn(c)
	cmdapp.Log.Infof("ws connection %s from %s, user %s", conn.id, r.RemoteAddr, userID)
	go conn.writeLoop()
	h.Hub.Connect(conn)
	h.Bus.RegisterConnection(userID, conn)
	h.handleConnection(conn)
}

func (h *WebSocketHandler) handleConnection(conn *wsConn) {
	defer conn.Close()
	defer h.Hub.Disconnect(conn)
	defer h.Bus.UnregisterConnection(conn)

	conn.conn.SetReadLimit(maxMessageSize)
	_ = conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// clients do not send anything meaningful, the loop detects disconnects
		if _, _, err := conn.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cmdapp.Log.Warnf("ws %s: %v", conn.id, err)
			}
			break
		}
	}
	cmdapp.Log.Infof("ws connection %s finished", conn.id)
}

func userFromRequest(r *http.Request) string {
	if res := r.Header.Get(UserHeader); res != "" {
		return res
	}
	return r.URL.Query().Get("userId")
}

type wsConn struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newWsConn(c *websocket.Conn) *wsConn {
	return &wsConn{id: uuid.New().String(), conn: c, send: make(chan []byte, sendBuffer), done: make(chan struct{})}
}

//WriteJSON queues the message, it never blocks
func (c *wsConn) WriteJSON(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "Can't marshal")
	}
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- b:
		return nil
	default:
		return ErrSlowConnection
	}
}

func (c *wsConn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				cmdapp.Log.Warnf("ws %s write: %v", c.id, err)
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
