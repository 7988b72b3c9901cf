package notify

import (
	"sync"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
)

//Bus delivers notifications to the connections of a user.
//Every operation is best-effort: failures are logged and never returned
type Bus struct {
	server Server

	lock  sync.Mutex
	users map[Conn]string
}

//NewBus creates bus over the connection server.
//A bus with nil server logs every call and does nothing
func NewBus(server Server) *Bus {
	if server == nil {
		cmdapp.Log.Warn("Notification bus: server not set")
	}
	return &Bus{server: server, users: make(map[Conn]string)}
}

//RoomName returns room of user's connections
func RoomName(userID string) string {
	return "user:" + userID
}

func (b *Bus) ready(op string) bool {
	if b == nil || b.server == nil {
		cmdapp.Log.Warnf("Can't %s: server not set", op)
		failedCounter.WithLabelValues(op).Inc()
		return false
	}
	return true
}

//RegisterConnection joins the connection to the user's room
func (b *Bus) RegisterConnection(userID string, conn Conn) {
	if !b.ready("register") {
		return
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	if old, found := b.users[conn]; found && old != userID {
		b.logIf("register", b.server.Leave(conn, RoomName(old)))
	}
	if err := b.server.Join(conn, RoomName(userID)); err != nil {
		b.logIf("register", err)
		return
	}
	b.users[conn] = userID
	cmdapp.Log.Infof("Registered connection for user %s", userID)
}

//UnregisterConnection leaves the room the connection was registered to.
//No-op for never registered connection
func (b *Bus) UnregisterConnection(conn Conn) {
	if !b.ready("unregister") {
		return
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	userID, found := b.users[conn]
	if !found {
		return
	}
	delete(b.users, conn)
	b.logIf("unregister", b.server.Leave(conn, RoomName(userID)))
	cmdapp.Log.Infof("Unregistered connection for user %s", userID)
}

//Kick sends auth:kick to every connection of the user
func (b *Bus) Kick(userID, message string) {
	b.EmitToUser(userID, Kick{Message: message})
}

//EmitToUser sends notification to every connection of the user
func (b *Bus) EmitToUser(userID string, n Notification) {
	if !b.ready("emit") || !checkNotification(n) {
		return
	}
	emittedCounter.WithLabelValues(n.Event(), "user").Inc()
	cmdapp.Log.Debugf("Emit %s to user %s", n.Event(), userID)
	b.logIf("emit", b.server.EmitToRoom(RoomName(userID), NewEnvelope(n)))
}

//EmitToAll sends notification to every connection of the server
func (b *Bus) EmitToAll(n Notification) {
	if !b.ready("emit") || !checkNotification(n) {
		return
	}
	emittedCounter.WithLabelValues(n.Event(), "all").Inc()
	cmdapp.Log.Debugf("Emit %s to all", n.Event())
	b.logIf("emit", b.server.EmitToAll(NewEnvelope(n)))
}

func checkNotification(n Notification) bool {
	if n == nil {
		cmdapp.Log.Warn("Can't emit: no notification")
		failedCounter.WithLabelValues("emit").Inc()
		return false
	}
	return true
}

func (b *Bus) logIf(op string, err error) {
	if err != nil {
		failedCounter.WithLabelValues(op).Inc()
		cmdapp.Log.Errorf("Notification %s failed: %v", op, err)
	}
}
