package tracker

import (
	"testing"
	"time"

	"bitbucket.org/airenas/maiebridge/internal/pkg/maie/api"
	"bitbucket.org/airenas/maiebridge/internal/pkg/persistence"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTimerData(td *testData) *timerServiceData {
	return &timerServiceData{runEvery: time.Hour, poller: td.poller, store: td.store,
		qChan: make(chan struct{}), workWaitChan: make(chan struct{})}
}

func TestSweep(t *testing.T) {
	td := initTest(t)
	td.store.On("ListActive", int64(sweepLimit)).Return([]*persistence.Task{{ID: "id1", Status: "PENDING"},
		{ID: "id2", Status: "PENDING"}}, nil)
	td.maie.On("GetStatus", "id1").Return(nil, errors.New("olia"))
	td.maie.On("GetStatus", "id2").Return(&api.TaskStatus{Status: "PENDING"}, nil)

	sweep(newTimerData(td))

	td.maie.AssertNumberOfCalls(t, "GetStatus", 2)
}

func TestSweep_ListFails(t *testing.T) {
	td := initTest(t)
	td.store.On("ListActive", mock.Anything).Return(nil, errors.New("olia"))

	sweep(newTimerData(td))

	td.maie.AssertNotCalled(t, "GetStatus", mock.Anything)
}

func TestServiceLoop_RunsOnStartAndStops(t *testing.T) {
	td := initTest(t)
	called := make(chan struct{}, 1)
	td.store.On("ListActive", mock.Anything).Return(nil, nil).Run(func(mock.Arguments) {
		select {
		case called <- struct{}{}:
		default:
		}
	})
	data := newTimerData(td)

	startTimer(data)
	select {
	case <-called:
	case <-time.After(time.Second):
		assert.Fail(t, "sweep did not run")
	}
	close(data.qChan)

	select {
	case <-data.workWaitChan:
	case <-time.After(time.Second):
		assert.Fail(t, "timer did not stop")
	}
}
