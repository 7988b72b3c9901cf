package rabbit

import (
	"encoding/json"

	"bitbucket.org/airenas/maiebridge/internal/pkg/messages"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

//Declare declares durable queue
func Declare(ch *amqp.Channel, qName string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		qName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

//NewChannelFunc returns a function starting consumption of the queue
func NewChannelFunc(provider *ChannelProvider, queue string) func() (<-chan amqp.Delivery, error) {
	return func() (<-chan amqp.Delivery, error) {
		qName := provider.QueueName(queue)
		var res <-chan amqp.Delivery
		err := provider.RunOnChannelWithRetry(func(ch *amqp.Channel) error {
			if _, err := Declare(ch, qName); err != nil {
				return errors.Wrapf(err, "Can't declare %s", qName)
			}
			var err error
			res, err = ch.Consume(qName, "", false, false, false, false, nil)
			return errors.Wrapf(err, "Can't consume %s", qName)
		})
		return res, err
	}
}

//ParseMessage decodes broker message body
func ParseMessage(body []byte) (*messages.QueueMessage, error) {
	var res messages.QueueMessage
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, errors.Wrap(err, "Can't decode message")
	}
	if res.ID == "" {
		return nil, errors.New("No ID in message")
	}
	return &res, nil
}
