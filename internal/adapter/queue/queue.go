package queue

import (
	"fmt"

	"go.uber.org/zap"
)

// Driver names accepted by New.
const (
	DriverNATS     = "nats"
	DriverRabbitMQ = "rabbitmq"
)

// MessageQueue carries transaction lifecycle events between services.
// Subjects are dotted event names, e.g. "transaction.deleted".
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}

// New builds the queue adapter selected by driver.
func New(driver, url string, log *zap.Logger) (MessageQueue, error) {
	switch driver {
	case DriverNATS:
		return NewNATSQueue(url, log)
	case DriverRabbitMQ:
		return NewRabbitMQQueue(url, log)
	default:
		return nil, fmt.Errorf("unknown queue driver %q", driver)
	}
}
