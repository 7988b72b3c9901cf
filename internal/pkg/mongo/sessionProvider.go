package mongo

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultTimeout = 10 * time.Second

//IndexData keeps index creation data
type IndexData struct {
	Table  string
	Field  string
	Unique bool
}

func newIndexData(table string, field string, unique bool) IndexData {
	return IndexData{Table: table, Field: field, Unique: unique}
}

//SessionProvider connects and provides session for mongo DB
type SessionProvider struct {
	client  *mongo.Client
	URL     string
	indexes []IndexData
	m       sync.Mutex // struct field mutex
}

//NewSessionProvider creates Mongo session provider
func NewSessionProvider() (*SessionProvider, error) {
	url := cmdapp.Config.GetString("mongo.url")
	if url == "" {
		return nil, errors.New("No Mongo url provided")
	}
	return &SessionProvider{URL: url, indexes: indexData}, nil
}

//Close disconnects from mongo
func (sp *SessionProvider) Close() {
	sp.m.Lock()
	defer sp.m.Unlock()
	if sp.client != nil {
		ctx, cancel := mongoContext(context.Background())
		defer cancel()
		cmdapp.LogIf(sp.client.Disconnect(ctx))
		sp.client = nil
	}
}

//NewSession creates mongo session, connects on the first call
func (sp *SessionProvider) NewSession() (mongo.Session, error) {
	sp.m.Lock()
	defer sp.m.Unlock()

	if sp.client == nil {
		cmdapp.Log.Info("Dial mongo: " + hidePass(sp.URL))
		ctx, cancel := mongoContext(context.Background())
		defer cancel()
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(sp.URL))
		if err != nil {
			return nil, errors.Wrap(err, "Can't dial to mongo")
		}
		if err := checkIndexes(ctx, client, sp.indexes); err != nil {
			cmdapp.LogIf(client.Disconnect(ctx))
			return nil, err
		}
		sp.client = client
	}
	return sp.client.StartSession()
}

//Healthy pings mongo
func (sp *SessionProvider) Healthy() error {
	session, err := sp.NewSession()
	if err != nil {
		return err
	}
	defer session.EndSession(context.Background())
	ctx, cancel := mongoContext(context.Background())
	defer cancel()
	return session.Client().Ping(ctx, readpref.Primary())
}

func checkIndexes(ctx context.Context, client *mongo.Client, indexes []IndexData) error {
	for _, index := range indexes {
		if err := checkIndex(ctx, client, index); err != nil {
			return errors.Wrap(err, "Can't create index: "+index.Table+":"+index.Field)
		}
	}
	return nil
}

func checkIndex(ctx context.Context, client *mongo.Client, indexData IndexData) error {
	c := client.Database(store).Collection(indexData.Table)
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: indexData.Field, Value: 1}},
		Options: options.Index().SetUnique(indexData.Unique),
	}
	_, err := c.Indexes().CreateOne(ctx, index)
	return err
}

func mongoContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultTimeout)
}

//sanitize drops operator prefixes from values coming from requests
func sanitize(s string) string {
	return strings.TrimLeft(strings.TrimSpace(s), "$")
}

func hidePass(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		cmdapp.Log.Warn("Can't parse mongo url.")
		return ""
	}
	_, ps := u.User.Password()
	if ps {
		u.User = url.UserPassword(u.User.Username(), "----")
	}
	return u.String()
}
