package mongo

import (
	"context"
	"time"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"bitbucket.org/airenas/maiebridge/internal/pkg/persistence"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

//ErrNotFound is returned when task is not in db
var ErrNotFound = errors.New("Task not found")

//TaskStore keeps submitted MAIE tasks
type TaskStore struct {
	SessionProvider *SessionProvider

	collFunc func() (*mongo.Collection, func(), error)
}

//NewTaskStore creates TaskStore instance
func NewTaskStore(sessionProvider *SessionProvider) (*TaskStore, error) {
	if sessionProvider == nil {
		return nil, errors.New("No session provider")
	}
	res := &TaskStore{SessionProvider: sessionProvider}
	res.collFunc = res.sessionColl
	return res, nil
}

func (ts *TaskStore) coll() (*mongo.Collection, func(), error) {
	return ts.collFunc()
}

func (ts *TaskStore) sessionColl() (*mongo.Collection, func(), error) {
	session, err := ts.SessionProvider.NewSession()
	if err != nil {
		return nil, nil, err
	}
	return session.Client().Database(store).Collection(taskTable),
		func() { session.EndSession(context.Background()) }, nil
}

//Save inserts new task
func (ts *TaskStore) Save(ctx context.Context, t *persistence.Task) error {
	cmdapp.Log.Infof("Saving task %s, user %s", t.ID, t.UserID)
	ctx, cancel := mongoContext(ctx)
	defer cancel()
	c, end, err := ts.coll()
	if err != nil {
		return err
	}
	defer end()

	now := time.Now()
	t.Created, t.Updated = now, now
	_, err = c.InsertOne(ctx, t)
	return errors.Wrapf(err, "Can't save task %s", t.ID)
}

//Get returns task by ID
func (ts *TaskStore) Get(ctx context.Context, id string) (*persistence.Task, error) {
	ctx, cancel := mongoContext(ctx)
	defer cancel()
	c, end, err := ts.coll()
	if err != nil {
		return nil, err
	}
	defer end()

	var res persistence.Task
	err = c.FindOne(ctx, bson.M{"ID": sanitize(id)}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Can't get task %s", id)
	}
	return &res, nil
}

//ListActive returns not finished tasks, the oldest updated first
func (ts *TaskStore) ListActive(ctx context.Context, limit int64) ([]*persistence.Task, error) {
	ctx, cancel := mongoContext(ctx)
	defer cancel()
	c, end, err := ts.coll()
	if err != nil {
		return nil, err
	}
	defer end()

	cursor, err := c.Find(ctx, bson.M{"done": false},
		options.Find().SetSort(bson.D{{Key: "updated", Value: 1}}).SetLimit(limit))
	if err != nil {
		return nil, errors.Wrap(err, "Can't list tasks")
	}
	var res []*persistence.Task
	if err := cursor.All(ctx, &res); err != nil {
		return nil, errors.Wrap(err, "Can't decode tasks")
	}
	return res, nil
}

//UpdateStatus saves observed MAIE status of the task
func (ts *TaskStore) UpdateStatus(ctx context.Context, t *persistence.Task) error {
	ctx, cancel := mongoContext(ctx)
	defer cancel()
	c, end, err := ts.coll()
	if err != nil {
		return err
	}
	defer end()

	t.Updated = time.Now()
	res, err := c.UpdateOne(ctx, bson.M{"ID": sanitize(t.ID)},
		bson.M{"$set": bson.M{"status": t.Status, "stage": t.Stage, "progress": t.Progress,
			"error": t.Error, "errorCode": t.ErrorCode, "done": t.Done, "updated": t.Updated}})
	if err != nil {
		return errors.Wrapf(err, "Can't update task %s", t.ID)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
