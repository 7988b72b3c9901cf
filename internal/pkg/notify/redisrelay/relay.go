package redisrelay

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"bitbucket.org/airenas/maiebridge/internal/pkg/notify"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

//DefaultChannel is a redis pub/sub channel for notifications
const DefaultChannel = "maiebridge:notify"

const publishTimeout = 5 * time.Second

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type message struct {
	Room  string          `json:"room,omitempty"`
	All   bool            `json:"all,omitempty"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

//Relay is a notify.Server spreading emissions over redis pub/sub.
//Every instance subscribed with Run delivers them to its local hub
type Relay struct {
	hub     *notify.Hub
	pub     publisher
	rdb     *redis.Client
	channel string
}

//NewClient creates redis client from redis.url config value
func NewClient() (*redis.Client, error) {
	url := cmdapp.Config.GetString("redis.url")
	if url == "" {
		return nil, errors.New("No redis.url")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't parse redis url")
	}
	cmdapp.Log.Infof("Redis: %s", opt.Addr)
	return redis.NewClient(opt), nil
}

//NewRelay creates relay, hub may be nil for publish only instances
func NewRelay(rdb *redis.Client, hub *notify.Hub) *Relay {
	if hub == nil {
		hub = notify.NewHub()
	}
	return &Relay{hub: hub, pub: rdb, rdb: rdb, channel: DefaultChannel}
}

//Join is local, connections live in this process
func (r *Relay) Join(conn notify.Conn, room string) error {
	return r.hub.Join(conn, room)
}

//Leave is local
func (r *Relay) Leave(conn notify.Conn, room string) error {
	return r.hub.Leave(conn, room)
}

//EmitToRoom publishes envelope for the room
func (r *Relay) EmitToRoom(room string, env *notify.Envelope) error {
	return r.publish(message{Room: room}, env)
}

//EmitToAll publishes envelope for all connections
func (r *Relay) EmitToAll(env *notify.Envelope) error {
	return r.publish(message{All: true}, env)
}

func (r *Relay) publish(msg message, env *notify.Envelope) error {
	var err error
	msg.Event = env.Event
	if msg.Data, err = json.Marshal(env.Data); err != nil {
		return errors.Wrap(err, "Can't marshal data")
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "Can't marshal")
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.pub.Publish(ctx, r.channel, b).Err(); err != nil {
		return errors.Wrapf(err, "Can't publish '%s'", env.Event)
	}
	return nil
}

//Run listens for published messages until ctx is done
func (r *Relay) Run(ctx context.Context) error {
	pubsub := r.rdb.Subscribe(ctx, r.channel)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return errors.Wrapf(err, "Can't subscribe to %s", r.channel)
	}
	cmdapp.Log.Infof("Listening redis channel %s", r.channel)
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			cmdapp.Log.Info("Relay stopped")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("Redis pubsub channel closed")
			}
			if err := r.dispatch(msg.Payload); err != nil {
				cmdapp.Log.Warn(err)
			}
		}
	}
}

func (r *Relay) dispatch(payload string) error {
	var msg message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return errors.Wrap(err, "Can't decode relay message")
	}
	if msg.Event == "" {
		return errors.New("No event in relay message")
	}
	env := &notify.Envelope{Event: msg.Event, Data: msg.Data}
	if msg.All {
		return r.hub.EmitToAll(env)
	}
	return r.hub.EmitToRoom(msg.Room, env)
}

//Healthy pings redis
func (r *Relay) Healthy() error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return r.rdb.Ping(ctx).Err()
}
