package main

import (
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// transport subscribes to one NATS subject per symbol and forwards raw
// payloads into that symbol's record channel. Nothing about the wire
// format here is NATS-specific; NATS is also used for the connection
// (main.go) and for snapshot requests (snapshot.go).
type transport struct {
	conn *nats.Conn
	log  *zap.Logger
	subs []*nats.Subscription
}

func newTransport(conn *nats.Conn, log *zap.Logger) *transport {
	return &transport{conn: conn, log: log}
}

// Subscribe wires subject "mdfeed.ticks.<symbol>" to records, delivered
// in the order NATS's client dispatches them to this subscription.
func (t *transport) Subscribe(symbol string, records chan<- []byte) error {
	subject := "mdfeed.ticks." + symbol
	sub, err := t.conn.Subscribe(subject, func(msg *nats.Msg) {
		records <- msg.Data
	})
	if err != nil {
		return err
	}
	t.subs = append(t.subs, sub)
	t.log.Info("subscribed", zap.String("subject", subject))
	return nil
}

func (t *transport) Close() {
	for _, sub := range t.subs {
		if err := sub.Unsubscribe(); err != nil {
			t.log.Warn("unsubscribe failed", zap.Error(err))
		}
	}
}
