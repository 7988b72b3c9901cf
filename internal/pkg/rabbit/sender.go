package rabbit

import (
	"encoding/json"
	"sync"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"bitbucket.org/airenas/maiebridge/internal/pkg/messages"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

//Sender performs messages sending using rabbit mq broker
type Sender struct {
	ChannelProvider *ChannelProvider
	declared        map[string]bool
	m               sync.Mutex
}

//NewSender initializes rabbit sender
func NewSender(provider *ChannelProvider) *Sender {
	return &Sender{ChannelProvider: provider, declared: make(map[string]bool)}
}

//Send sends the message, declares the queue on the first use
func (sender *Sender) Send(message *messages.QueueMessage, queue string) error {
	qName := sender.ChannelProvider.QueueName(queue)
	cmdapp.Log.Infof("Sending message %s(%s)", qName, message.ID)
	msgBytes, err := getBytes(message)
	if err != nil {
		return err
	}
	err = sender.ChannelProvider.RunOnChannelWithRetry(func(ch *amqp.Channel) error {
		if err := sender.declare(ch, qName); err != nil {
			return err
		}
		return ch.Publish(
			"", // exchange
			qName,
			false, // mandatory
			false,
			amqp.Publishing{
				DeliveryMode: amqp.Persistent,
				ContentType:  "application/json",
				Body:         msgBytes,
			})
	})
	if err != nil {
		return errors.Wrap(err, "Can't send message")
	}
	return nil
}

func (sender *Sender) declare(ch *amqp.Channel, qName string) error {
	sender.m.Lock()
	defer sender.m.Unlock()
	if sender.declared[qName] {
		return nil
	}
	if _, err := Declare(ch, qName); err != nil {
		return errors.Wrapf(err, "Can't declare %s", qName)
	}
	sender.declared[qName] = true
	return nil
}

func getBytes(message *messages.QueueMessage) ([]byte, error) {
	res, err := json.Marshal(message)
	if err != nil {
		return nil, errors.Wrap(err, "Can't marshal message")
	}
	return res, nil
}
