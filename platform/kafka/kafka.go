package kafka

import (
	"context"
)

// HeaderEventType names the event carried by a message.
const HeaderEventType = "event-type"

type (
	Middleware     func(next MessageHandler) MessageHandler
	MessageHandler func(ctx context.Context, msg Message) error
)

type Consumer interface {
	Consume(ctx context.Context, handler MessageHandler) error
}

type Producer interface {
	Send(ctx context.Context, key, value []byte, headers map[string]string) error
}
