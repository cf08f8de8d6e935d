package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSChannel publishes submissions to a subject so downstream consumers
// (CRM sync, analytics) can process them asynchronously.
type NATSChannel struct {
	conn    *nats.Conn
	subject string
}

// NewNATSChannel connects to the NATS server and returns a publishing
// channel.
func NewNATSChannel(url, subject string) (*NATSChannel, error) {
	conn, err := nats.Connect(url,
		nats.Name("formgate"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSChannel{conn: conn, subject: subject}, nil
}

func (n *NATSChannel) Type() string {
	return "nats"
}

func (n *NATSChannel) Send(ctx context.Context, sub *Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish submission: %w", err)
	}

	// Flush so delivery failures surface here rather than silently later.
	if err := n.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("flush submission: %w", err)
	}

	return nil
}

// Close drains the connection.
func (n *NATSChannel) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
