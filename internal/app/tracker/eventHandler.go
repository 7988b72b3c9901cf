package tracker

import (
	"context"
	"time"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"bitbucket.org/airenas/maiebridge/internal/pkg/mongo"
	"bitbucket.org/airenas/maiebridge/internal/pkg/rabbit"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

type eventChannelFunc func() (<-chan amqp.Delivery, error)

type queueData struct {
	eventChannelFunc eventChannelFunc
	poller           *Poller
	store            TaskStore
}

func listenQueue(channel <-chan amqp.Delivery, data *queueData, fc chan<- bool) {
	for d := range channel {
		err := processMsg(&d, data)
		if err != nil {
			cmdapp.Log.Errorf("Can't process message %s\n%s", d.MessageId, string(d.Body))
			cmdapp.Log.Error(err)
		}
		// status is polled again by the timer, redelivery gives nothing
		cmdapp.LogIf(d.Ack(false))
	}
	cmdapp.Log.Infof("Stopped listening queue")
	close(fc)
}

func registerQueue(data *queueData, quitChan <-chan struct{}, initialWait time.Duration) {
	wait := initialWait
	for {
		select {
		case <-quitChan:
			cmdapp.Log.Infof("Quit listening queue")
			return
		default:
			fc := make(chan bool)
			cmdapp.Log.Infof("Trying listening queue")
			msgs, err := data.eventChannelFunc()
			if err != nil {
				cmdapp.Log.Error(err)
				wait = wait * 2
				if wait > time.Minute {
					wait = time.Minute
				}
				cmdapp.Log.Infof("Wait before reconnect %d s", wait/time.Second)
				select {
				case <-time.After(wait):
				case <-quitChan:
				}
				continue
			}
			wait = initialWait
			go listenQueue(msgs, data, fc)
			select {
			case <-fc:
			case <-quitChan:
				cmdapp.Log.Infof("Quit listening queue")
				return
			}
		}
	}
}

func processMsg(d *amqp.Delivery, data *queueData) error {
	msg, err := rabbit.ParseMessage(d.Body)
	if err != nil {
		return err
	}
	cmdapp.Log.Infof("processMsg event %s", msg.ID)
	ctx := context.Background()
	t, err := data.store.Get(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			cmdapp.Log.Warnf("No task %s", msg.ID)
			return nil
		}
		return errors.Wrapf(err, "Can't load task %s", msg.ID)
	}
	if t.Done {
		cmdapp.Log.Infof("Task %s is finished", msg.ID)
		return nil
	}
	return errors.Wrapf(data.poller.Poll(ctx, t), "Can't poll %s", t.ID)
}
