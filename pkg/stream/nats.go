// Package stream fans snapshots out over NATS so other processes can follow
// a session without polling the monitor.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/HatiCode/pulsewatch/pkg/storage"
)

// DefaultSubjectPrefix is prepended to the device ID of every subject.
const DefaultSubjectPrefix = "pulsewatch.snapshot"

// Connect dials NATS with unlimited reconnects. name identifies the client
// in server monitoring.
func Connect(url, name string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
}

type conn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// Publisher publishes snapshots as JSON on <prefix>.<device>.
type Publisher struct {
	conn   conn
	prefix string
}

// NewPublisher wraps an established connection. An empty prefix selects
// DefaultSubjectPrefix.
func NewPublisher(nc *nats.Conn, prefix string) *Publisher {
	return newPublisher(nc, prefix)
}

func newPublisher(c conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{conn: c, prefix: prefix}
}

// Publish sends snap on its device subject.
func (p *Publisher) Publish(snap storage.Snapshot) error {
	if snap.Device == "" {
		return errors.New("snapshot device is empty")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := p.conn.Publish(Subject(p.prefix, snap.Device), data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}

// Subject returns the subject for device. Characters that NATS treats as
// tokens or wildcards are replaced with '_'.
func Subject(prefix, device string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, device)
	return prefix + "." + clean
}
