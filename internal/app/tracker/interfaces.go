package tracker

import (
	"context"

	"bitbucket.org/airenas/maiebridge/internal/pkg/maie/api"
	"bitbucket.org/airenas/maiebridge/internal/pkg/notify"
	"bitbucket.org/airenas/maiebridge/internal/pkg/persistence"
	"github.com/cenkalti/backoff"
)

//StatusGetter reads MAIE task status
type StatusGetter interface {
	GetStatus(ctx context.Context, ID string) (*api.TaskStatus, error)
}

//TaskStore keeps tracked tasks
type TaskStore interface {
	Get(ctx context.Context, id string) (*persistence.Task, error)
	ListActive(ctx context.Context, limit int64) ([]*persistence.Task, error)
	UpdateStatus(ctx context.Context, t *persistence.Task) error
}

//Notifier delivers events to user's connections
type Notifier interface {
	EmitToUser(userID string, n notify.Notification)
}

type backoffProvider interface {
	Get() backoff.BackOff
}
