// Package nats carries domain events over a JetStream work queue. Every
// event lands on the EVENTS stream under an events.<TYPE> subject, so one
// durable consumer with a wildcard filter sees registration, ingestion and
// deletion alike.
package nats

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/pkg/errors"
)

const (
	streamName    = "EVENTS"
	subjectPrefix = "events."
	wildcard      = subjectPrefix + ">"
)

func connect(url string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect to nats")
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, errors.Wrap(err, "create jetstream context")
	}
	return nc, js, nil
}
