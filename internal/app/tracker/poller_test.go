package tracker

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/airenas/maiebridge/internal/pkg/maie"
	"bitbucket.org/airenas/maiebridge/internal/pkg/maie/api"
	"bitbucket.org/airenas/maiebridge/internal/pkg/notify"
	"bitbucket.org/airenas/maiebridge/internal/pkg/persistence"
	"bitbucket.org/airenas/maiebridge/internal/pkg/test/mocks"
	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testData struct {
	poller   *Poller
	maie     *mocks.MAIE
	store    *mocks.TaskStore
	notifier *mocks.Notifier
}

type noBackOffProvider struct {
}

func (bp *noBackOffProvider) Get() backoff.BackOff {
	return &backoff.StopBackOff{}
}

type retryBackOffProvider struct {
}

func (bp *retryBackOffProvider) Get() backoff.BackOff {
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
}

func initTest(t *testing.T) *testData {
	t.Helper()
	res := &testData{maie: &mocks.MAIE{}, store: &mocks.TaskStore{}, notifier: &mocks.Notifier{}}
	var err error
	res.poller, err = NewPoller(res.maie, res.store, res.notifier, &noBackOffProvider{}, time.Second)
	require.Nil(t, err)
	return res
}

func strPtr(s string) *string {
	return &s
}

func newTask() *persistence.Task {
	return &persistence.Task{ID: "id1", UserID: "u1", Status: "PENDING"}
}

func TestNewPoller_Fail(t *testing.T) {
	_, err := NewPoller(nil, &mocks.TaskStore{}, &mocks.Notifier{}, &noBackOffProvider{}, 0)
	assert.NotNil(t, err)
	_, err = NewPoller(&mocks.MAIE{}, &mocks.TaskStore{}, &mocks.Notifier{}, nil, 0)
	assert.NotNil(t, err)
}

func TestPoll_Progress(t *testing.T) {
	td := initTest(t)
	td.maie.On("GetStatus", "id1").Return(&api.TaskStatus{Status: "PROCESSING_ASR", Stage: strPtr("asr")}, nil)
	td.store.On("UpdateStatus", mock.Anything).Return(nil)
	td.notifier.On("EmitToUser", "u1", notify.TaskProgress{TaskID: "id1", Status: "PROCESSING_ASR", Stage: "asr", Progress: 40}).Return()
	task := newTask()

	err := td.poller.Poll(context.Background(), task)

	assert.Nil(t, err)
	assert.Equal(t, int32(40), task.Progress)
	assert.False(t, task.Done)
	td.store.AssertExpectations(t)
	td.notifier.AssertExpectations(t)
}

func TestPoll_NoChange(t *testing.T) {
	td := initTest(t)
	td.maie.On("GetStatus", "id1").Return(&api.TaskStatus{Status: "PENDING"}, nil)

	assert.Nil(t, td.poller.Poll(context.Background(), newTask()))

	td.store.AssertNotCalled(t, "UpdateStatus", mock.Anything)
	td.notifier.AssertNotCalled(t, "EmitToUser", mock.Anything, mock.Anything)
}

func TestPoll_Complete(t *testing.T) {
	td := initTest(t)
	results := &api.Results{CleanTranscript: strPtr("olia")}
	td.maie.On("GetStatus", "id1").Return(&api.TaskStatus{Status: "COMPLETE", Results: results}, nil)
	td.store.On("UpdateStatus", mock.Anything).Return(nil)
	td.notifier.On("EmitToUser", "u1", notify.TaskProgress{TaskID: "id1", Status: "COMPLETE", Progress: 100}).Return()
	td.notifier.On("EmitToUser", "u1", notify.TaskCompleted{TaskID: "id1", Results: results}).Return()
	task := newTask()

	assert.Nil(t, td.poller.Poll(context.Background(), task))

	assert.True(t, task.Done)
	td.notifier.AssertExpectations(t)
}

func TestPoll_Failed(t *testing.T) {
	td := initTest(t)
	td.maie.On("GetStatus", "id1").Return(&api.TaskStatus{Status: "FAILED", Error: strPtr("bad audio"),
		ErrorCode: strPtr("AUDIO_DECODE"), Stage: strPtr("preprocessing")}, nil)
	td.store.On("UpdateStatus", mock.Anything).Return(nil)
	td.notifier.On("EmitToUser", "u1", mock.AnythingOfType("notify.TaskProgress")).Return()
	td.notifier.On("EmitToUser", "u1", notify.TaskFailed{TaskID: "id1", Error: "bad audio",
		ErrorCode: "AUDIO_DECODE", Stage: "preprocessing"}).Return()
	task := newTask()

	assert.Nil(t, td.poller.Poll(context.Background(), task))

	assert.True(t, task.Done)
	assert.Equal(t, int32(100), task.Progress)
	assert.Equal(t, "AUDIO_DECODE", task.ErrorCode)
	td.notifier.AssertExpectations(t)
}

func TestPoll_FailedWithoutError(t *testing.T) {
	td := initTest(t)
	td.maie.On("GetStatus", "id1").Return(&api.TaskStatus{Status: "FAILED"}, nil)
	td.store.On("UpdateStatus", mock.Anything).Return(nil)
	td.notifier.On("EmitToUser", "u1", mock.AnythingOfType("notify.TaskProgress")).Return()
	td.notifier.On("EmitToUser", "u1", notify.TaskFailed{TaskID: "id1"}).Return()

	assert.Nil(t, td.poller.Poll(context.Background(), newTask()))

	td.notifier.AssertExpectations(t)
}

func TestPoll_Lost(t *testing.T) {
	td := initTest(t)
	td.maie.On("GetStatus", "id1").Return(nil, &maie.HTTPError{Code: 404, Status: "404 Not Found"})
	td.store.On("UpdateStatus", mock.Anything).Return(nil)
	td.notifier.On("EmitToUser", "u1", notify.TaskFailed{TaskID: "id1", Error: ErrTaskLost}).Return()
	task := newTask()

	assert.Nil(t, td.poller.Poll(context.Background(), task))

	assert.True(t, task.Done)
	assert.Equal(t, "FAILED", task.Status)
	td.notifier.AssertExpectations(t)
}

func TestPoll_WrongID_Lost(t *testing.T) {
	td := initTest(t)
	td.poller.bp = &retryBackOffProvider{}
	td.maie.On("GetStatus", "..").Return(nil, errors.Wrap(maie.ErrWrongTaskID, "'..'"))
	td.store.On("UpdateStatus", mock.Anything).Return(nil)
	td.notifier.On("EmitToUser", "u1", notify.TaskFailed{TaskID: "..", Error: ErrTaskLost}).Return()
	task := newTask()
	task.ID = ".."

	assert.Nil(t, td.poller.Poll(context.Background(), task))

	assert.True(t, task.Done)
	td.maie.AssertNumberOfCalls(t, "GetStatus", 1)
	td.notifier.AssertExpectations(t)
}

func TestPoll_GetFails(t *testing.T) {
	td := initTest(t)
	td.maie.On("GetStatus", "id1").Return(nil, errors.New("olia"))

	assert.NotNil(t, td.poller.Poll(context.Background(), newTask()))

	td.store.AssertNotCalled(t, "UpdateStatus", mock.Anything)
}

func TestPoll_SaveFails(t *testing.T) {
	td := initTest(t)
	td.maie.On("GetStatus", "id1").Return(&api.TaskStatus{Status: "PREPROCESSING"}, nil)
	td.store.On("UpdateStatus", mock.Anything).Return(errors.New("olia"))

	assert.NotNil(t, td.poller.Poll(context.Background(), newTask()))

	td.notifier.AssertNotCalled(t, "EmitToUser", mock.Anything, mock.Anything)
}

func TestPoll_Retries(t *testing.T) {
	td := initTest(t)
	td.poller.bp = &retryBackOffProvider{}
	td.maie.On("GetStatus", "id1").Return(nil, errors.New("olia")).Once()
	td.maie.On("GetStatus", "id1").Return(&api.TaskStatus{Status: "PENDING"}, nil).Once()

	assert.Nil(t, td.poller.Poll(context.Background(), newTask()))

	td.maie.AssertNumberOfCalls(t, "GetStatus", 2)
}

func TestPoll_NoRetryWithoutKey(t *testing.T) {
	td := initTest(t)
	td.poller.bp = &retryBackOffProvider{}
	td.maie.On("GetStatus", "id1").Return(nil, maie.ErrNoAPIKey)

	assert.NotNil(t, td.poller.Poll(context.Background(), newTask()))

	td.maie.AssertNumberOfCalls(t, "GetStatus", 1)
}

func TestPoll_SkipsInFlight(t *testing.T) {
	td := initTest(t)
	require.True(t, td.poller.start("id1"))

	assert.Nil(t, td.poller.Poll(context.Background(), newTask()))

	td.maie.AssertNotCalled(t, "GetStatus", mock.Anything)
	td.poller.finish("id1")
	assert.True(t, td.poller.start("id1"))
}
