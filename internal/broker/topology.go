package broker

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"folder-explorer/internal/event"
)

type binding struct {
	exchange   string
	kind       string
	queue      string
	routingKey string
}

// The fixed topology: one durable exchange and queue per domain, bound by a
// wildcard routing key. The cache exchange is fanout so its binding key is
// ignored by the broker. Topic `*` matches exactly one dot-word: folder and
// file keys are two words (`folder.created`), but search keys carry an
// action and an entity (`search.index.folder`), so the search binding must
// use `#` or search events are unroutable and silently dropped.
var topology = []binding{
	{exchange: event.ExchangeFolder, kind: "topic", queue: event.QueueFolder, routingKey: "folder.*"},
	{exchange: event.ExchangeFile, kind: "topic", queue: event.QueueFile, routingKey: "file.*"},
	{exchange: event.ExchangeCache, kind: "fanout", queue: event.QueueCache, routingKey: ""},
	{exchange: event.ExchangeSearch, kind: "topic", queue: event.QueueSearch, routingKey: "search.#"},
}

// DeclareTopology creates every exchange, queue and binding. Declarations
// are idempotent; running it on both the server and the worker is safe.
func DeclareTopology(ch *amqp.Channel) error {
	for _, b := range topology {
		if err := ch.ExchangeDeclare(b.exchange, b.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", b.exchange, err)
		}
		if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.queue, err)
		}
		if err := ch.QueueBind(b.queue, b.routingKey, b.exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s to %s: %w", b.queue, b.exchange, err)
		}
	}
	return nil
}
