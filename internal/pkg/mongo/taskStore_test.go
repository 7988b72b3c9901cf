package mongo

import (
	"context"
	"testing"

	"bitbucket.org/airenas/maiebridge/internal/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const testNS = "maiebridge.tasks"

func newTestStore(mt *mtest.T) *TaskStore {
	return &TaskStore{collFunc: func() (*mongo.Collection, func(), error) {
		return mt.Coll, func() {}, nil
	}}
}

type findCmd struct {
	Filter bson.M         `bson:"filter"`
	Sort   map[string]int `bson:"sort"`
	Limit  int64          `bson:"limit"`
}

func startedFind(mt *mtest.T) findCmd {
	evt := mt.GetStartedEvent()
	require.NotNil(mt, evt)
	require.Equal(mt, "find", evt.CommandName)
	var res findCmd
	require.Nil(mt, bson.Unmarshal(evt.Command, &res))
	return res
}

func TestListActive(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("returns not done tasks, oldest first", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch,
			bson.D{{Key: "ID", Value: "t1"}, {Key: "userID", Value: "u1"}, {Key: "status", Value: "PENDING"}},
			bson.D{{Key: "ID", Value: "t2"}, {Key: "userID", Value: "u2"}, {Key: "status", Value: "PROCESSING_ASR"}}))

		res, err := newTestStore(mt).ListActive(context.Background(), 10)

		require.Nil(mt, err)
		require.Equal(mt, 2, len(res))
		assert.Equal(mt, "t1", res[0].ID)
		assert.Equal(mt, "u2", res[1].UserID)
		assert.Equal(mt, "PROCESSING_ASR", res[1].Status)
		cmd := startedFind(mt)
		assert.Equal(mt, false, cmd.Filter["done"])
		assert.Equal(mt, 1, len(cmd.Filter))
		assert.Equal(mt, map[string]int{"updated": 1}, cmd.Sort)
		assert.Equal(mt, int64(10), cmd.Limit)
	})
	mt.Run("empty", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch))

		res, err := newTestStore(mt).ListActive(context.Background(), 10)

		assert.Nil(mt, err)
		assert.Equal(mt, 0, len(res))
	})
	mt.Run("fails", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 1, Message: "olia"}))

		_, err := newTestStore(mt).ListActive(context.Background(), 10)

		assert.NotNil(mt, err)
	})
}

func TestGet(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch,
			bson.D{{Key: "ID", Value: "t1"}, {Key: "userID", Value: "u1"}, {Key: "done", Value: true}}))

		res, err := newTestStore(mt).Get(context.Background(), " $t1")

		require.Nil(mt, err)
		assert.Equal(mt, "u1", res.UserID)
		assert.True(mt, res.Done)
		assert.Equal(mt, "t1", startedFind(mt).Filter["ID"])
	})
	mt.Run("not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch))

		res, err := newTestStore(mt).Get(context.Background(), "t1")

		assert.Nil(mt, res)
		assert.Equal(mt, ErrNotFound, err)
	})
}

func TestUpdateStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("updated", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1}))
		task := &persistence.Task{ID: "t1", Status: "COMPLETE", Done: true}

		err := newTestStore(mt).UpdateStatus(context.Background(), task)

		assert.Nil(mt, err)
		assert.False(mt, task.Updated.IsZero())
		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "update", evt.CommandName)
	})
	mt.Run("no task", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0}))

		err := newTestStore(mt).UpdateStatus(context.Background(), &persistence.Task{ID: "t1"})

		assert.Equal(mt, ErrNotFound, err)
	})
	mt.Run("fails", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 1, Message: "olia"}))

		err := newTestStore(mt).UpdateStatus(context.Background(), &persistence.Task{ID: "t1"})

		assert.NotNil(mt, err)
		assert.NotEqual(mt, ErrNotFound, err)
	})
}

func TestSave(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("saves", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		task := &persistence.Task{ID: "t1", UserID: "u1"}

		err := newTestStore(mt).Save(context.Background(), task)

		assert.Nil(mt, err)
		assert.False(mt, task.Created.IsZero())
		assert.Equal(mt, task.Created, task.Updated)
	})
}
