package tracker

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"bitbucket.org/airenas/maiebridge/internal/pkg/maie"
	"bitbucket.org/airenas/maiebridge/internal/pkg/maie/api"
	"bitbucket.org/airenas/maiebridge/internal/pkg/notify"
	"bitbucket.org/airenas/maiebridge/internal/pkg/persistence"
	"bitbucket.org/airenas/maiebridge/internal/pkg/progress"
	"bitbucket.org/airenas/maiebridge/internal/pkg/status"
	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
)

//ErrTaskLost is reported when MAIE does not know the task anymore
const ErrTaskLost = "Task not found in MAIE"

//Poller reads MAIE status of a task and tells the owner about changes
type Poller struct {
	maie        StatusGetter
	store       TaskStore
	notifier    Notifier
	bp          backoffProvider
	pollTimeout time.Duration

	lock     sync.Mutex
	inFlight map[string]bool
}

//NewPoller creates poller
func NewPoller(maie StatusGetter, store TaskStore, notifier Notifier, bp backoffProvider, pollTimeout time.Duration) (*Poller, error) {
	if maie == nil || store == nil || notifier == nil {
		return nil, errors.New("No MAIE, store or notifier")
	}
	if bp == nil {
		return nil, errors.New("No BackOff provider set")
	}
	return &Poller{maie: maie, store: store, notifier: notifier, bp: bp, pollTimeout: pollTimeout,
		inFlight: make(map[string]bool)}, nil
}

//Poll checks the task once, a task already being polled is skipped
func (p *Poller) Poll(ctx context.Context, t *persistence.Task) error {
	if !p.start(t.ID) {
		cmdapp.Log.Debugf("Task %s is being polled", t.ID)
		return nil
	}
	defer p.finish(t.ID)

	st, err := p.getStatus(ctx, t.ID)
	if err != nil {
		if maie.IsHTTPCode(err, http.StatusNotFound) || errors.Is(err, maie.ErrWrongTaskID) {
			return p.lost(ctx, t)
		}
		return errors.Wrapf(err, "Can't get status %s", t.ID)
	}
	if !progress.Known(st.Status) {
		cmdapp.Log.Warnf("Unknown status '%s' of %s", st.Status, t.ID)
	}
	if !changed(t, st) {
		return nil
	}
	cmdapp.Log.Infof("Task %s: %s -> %s", t.ID, t.Status, st.Status)
	t.Status = st.Status
	t.Stage = api.StrValue(st.Stage)
	t.Progress = progress.Convert(st.Status)
	t.Error = api.StrValue(st.Error)
	t.ErrorCode = api.StrValue(st.ErrorCode)
	t.Done = status.IsFinal(st.Status)
	if err := p.store.UpdateStatus(ctx, t); err != nil {
		return errors.Wrapf(err, "Can't save status %s", t.ID)
	}
	p.emit(t, st)
	return nil
}

func (p *Poller) getStatus(ctx context.Context, id string) (*api.TaskStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	defer cancel()
	var res *api.TaskStatus
	op := func() error {
		var err error
		res, err = p.maie.GetStatus(ctx, id)
		if err != nil && (errors.Is(err, maie.ErrNoAPIKey) || errors.Is(err, maie.ErrWrongTaskID) ||
			maie.IsHTTPCode(err, http.StatusNotFound)) {
			return backoff.Permanent(err)
		}
		return err
	}
	err := backoff.Retry(op, backoff.WithContext(p.bp.Get(), ctx))
	return res, err
}

func (p *Poller) lost(ctx context.Context, t *persistence.Task) error {
	cmdapp.Log.Warnf("Task %s not found in MAIE", t.ID)
	t.Status = status.Name(status.Failed)
	t.Progress = progress.Convert(t.Status)
	t.Error = ErrTaskLost
	t.Done = true
	if err := p.store.UpdateStatus(ctx, t); err != nil {
		return errors.Wrapf(err, "Can't save status %s", t.ID)
	}
	p.notifier.EmitToUser(t.UserID, notify.TaskFailed{TaskID: t.ID, Error: t.Error})
	return nil
}

func (p *Poller) emit(t *persistence.Task, st *api.TaskStatus) {
	p.notifier.EmitToUser(t.UserID, notify.TaskProgress{TaskID: t.ID, Status: t.Status, Stage: t.Stage, Progress: t.Progress})
	switch status.From(st.Status) {
	case status.Complete:
		p.notifier.EmitToUser(t.UserID, notify.TaskCompleted{TaskID: t.ID, Results: st.Results, Metrics: st.Metrics})
	case status.Failed:
		p.notifier.EmitToUser(t.UserID, notify.TaskFailed{TaskID: t.ID, Error: t.Error, ErrorCode: t.ErrorCode, Stage: t.Stage})
	}
}

func changed(t *persistence.Task, st *api.TaskStatus) bool {
	return t.Status != st.Status || t.Stage != api.StrValue(st.Stage) || status.IsFinal(st.Status)
}

func (p *Poller) start(id string) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.inFlight[id] {
		return false
	}
	p.inFlight[id] = true
	return true
}

func (p *Poller) finish(id string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	delete(p.inFlight, id)
}
