package notify

import (
	"sync"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"github.com/pkg/errors"
)

//ErrNotConnected is returned when joining a room with a connection unknown to the hub
var ErrNotConnected = errors.New("Connection is not connected")

//Conn is a live client connection
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

//Server is a connection server delivering envelopes to rooms
type Server interface {
	Join(conn Conn, room string) error
	Leave(conn Conn, room string) error
	EmitToRoom(room string, env *Envelope) error
	EmitToAll(env *Envelope) error
}

//Hub keeps live connections of this process and their rooms
type Hub struct {
	lock  sync.RWMutex
	conns map[Conn]map[string]bool
	rooms map[string]map[Conn]bool
}

//NewHub creates empty hub
func NewHub() *Hub {
	return &Hub{conns: make(map[Conn]map[string]bool), rooms: make(map[string]map[Conn]bool)}
}

//Connect adds connection to the hub
func (h *Hub) Connect(conn Conn) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if _, found := h.conns[conn]; !found {
		h.conns[conn] = make(map[string]bool)
		connectionsGauge.Inc()
	}
	cmdapp.Log.Debugf("Connected, total: %d", len(h.conns))
}

//Disconnect removes connection from the hub and all its rooms
func (h *Hub) Disconnect(conn Conn) {
	h.lock.Lock()
	defer h.lock.Unlock()
	rooms, found := h.conns[conn]
	if !found {
		return
	}
	for r := range rooms {
		h.leaveNoSync(conn, r)
	}
	delete(h.conns, conn)
	connectionsGauge.Dec()
	cmdapp.Log.Debugf("Disconnected, total: %d", len(h.conns))
}

//Join adds connection to the room
func (h *Hub) Join(conn Conn, room string) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	rooms, found := h.conns[conn]
	if !found {
		return ErrNotConnected
	}
	rooms[room] = true
	conns, found := h.rooms[room]
	if !found {
		conns = make(map[Conn]bool)
		h.rooms[room] = conns
	}
	conns[conn] = true
	return nil
}

//Leave removes connection from the room, no-op for unknown connection
func (h *Hub) Leave(conn Conn, room string) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.leaveNoSync(conn, room)
	return nil
}

func (h *Hub) leaveNoSync(conn Conn, room string) {
	if rooms, found := h.conns[conn]; found {
		delete(rooms, room)
	}
	if conns, found := h.rooms[room]; found {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, room)
		}
	}
}

//EmitToRoom writes envelope to every connection in the room.
//No connections in the room is not an error
func (h *Hub) EmitToRoom(room string, env *Envelope) error {
	h.lock.RLock()
	conns := make([]Conn, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		conns = append(conns, c)
	}
	h.lock.RUnlock()
	return write(conns, env)
}

//EmitToAll writes envelope to every connection of the hub
func (h *Hub) EmitToAll(env *Envelope) error {
	h.lock.RLock()
	conns := make([]Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.lock.RUnlock()
	return write(conns, env)
}

//Count returns number of connections in the room
func (h *Hub) Count(room string) int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.rooms[room])
}

func write(conns []Conn, env *Envelope) error {
	var lastErr error
	failed := 0
	for _, c := range conns {
		if err := c.WriteJSON(env); err != nil {
			failed++
			lastErr = err
		}
	}
	if lastErr != nil {
		return errors.Wrapf(lastErr, "Can't write '%s' to %d of %d connections", env.Event, failed, len(conns))
	}
	return nil
}
