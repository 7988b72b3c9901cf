package tracker

import (
	"context"
	"time"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
)

const sweepLimit = 500

type timerServiceData struct {
	runEvery     time.Duration
	poller       *Poller
	store        TaskStore
	qChan        chan struct{}
	workWaitChan chan struct{}
}

func startTimer(data *timerServiceData) {
	cmdapp.Log.Infof("Starting timer service every %v", data.runEvery)
	go serviceLoop(data)
}

func serviceLoop(data *timerServiceData) {
	ticker := time.NewTicker(data.runEvery)
	// run on startup
	sweep(data)
mainloop:
	for {
		select {
		case <-ticker.C:
			sweep(data)
		case <-data.qChan:
			ticker.Stop()
			break mainloop
		}
	}
	cmdapp.Log.Infof("Stopped timer service")
	close(data.workWaitChan)
}

func sweep(data *timerServiceData) {
	ctx := context.Background()
	tasks, err := data.store.ListActive(ctx, sweepLimit)
	if err != nil {
		cmdapp.Log.Error(err)
		return
	}
	cmdapp.Log.Debugf("Got %d active tasks", len(tasks))
	for _, t := range tasks {
		select {
		case <-data.qChan:
			return
		default:
		}
		if err := data.poller.Poll(ctx, t); err != nil {
			cmdapp.Log.Error(err)
		}
	}
}
