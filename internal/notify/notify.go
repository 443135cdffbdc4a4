package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ad2m/missions/internal/mission"
)

// publisher is the part of *nats.Conn used here.
type publisher interface {
	Publish(subj string, data []byte) error
}

// NATS publishes every committed transition as JSON on <prefix>.<action>.
type NATS struct {
	conn   publisher
	prefix string
}

func NewNATS(conn publisher, prefix string) *NATS {
	return &NATS{conn: conn, prefix: prefix}
}

// Connect dials the server at url. The returned close func drains pending messages.
func Connect(url, prefix string) (*NATS, func(), error) {
	conn, err := nats.Connect(url, nats.Name("missions"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	closeFn := func() {
		_ = conn.Drain()
		conn.Close()
	}

	return NewNATS(conn, prefix), closeFn, nil
}

type message struct {
	MissionID   string    `json:"mission_id"`
	RequesterID string    `json:"requester_id"`
	ActorID     string    `json:"actor_id"`
	Action      string    `json:"action"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	At          time.Time `json:"at"`
}

func (n *NATS) Subject(action mission.Action) string {
	return n.prefix + "." + string(action)
}

func (n *NATS) MissionChanged(_ context.Context, e mission.Event) error {
	data, err := json.Marshal(message{
		MissionID:   e.MissionID.String(),
		RequesterID: e.RequesterID.String(),
		ActorID:     e.ActorID.String(),
		Action:      string(e.Action),
		From:        string(e.From),
		To:          string(e.To),
		At:          e.At.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	if err := n.conn.Publish(n.Subject(e.Action), data); err != nil {
		return fmt.Errorf("publishing %s: %w", e.Action, err)
	}

	return nil
}

// Fanout forwards each event to every notifier and joins their errors.
type Fanout []mission.Notifier

func (f Fanout) MissionChanged(ctx context.Context, e mission.Event) error {
	var errs []error

	for _, n := range f {
		if err := n.MissionChanged(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
