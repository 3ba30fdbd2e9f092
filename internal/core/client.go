package core

import "time"

// Client is a live connection as seen by the core layer. Commands are
// consumed by the router's per-connection dispatcher; Events are drained by
// the transport's write loop. Both channels are buffered so a stalled peer
// never blocks the core.
type Client struct {
	ID          string
	Identity    Identity
	Commands    chan *Command
	Events      chan *Event
	ConnectedAt time.Time
}

// NewClient constructs a client with initialized channels. An identity with
// an empty user id is replaced by an anonymous placeholder derived from the
// connection id.
func NewClient(id string, identity Identity) *Client {
	if identity.UserID == "" {
		identity = AnonymousIdentity(id)
	}
	if identity.Name == "" {
		identity.Name = identity.UserID
	}
	return &Client{
		ID:          id,
		Identity:    identity,
		Commands:    make(chan *Command, 8),
		Events:      make(chan *Event, 32),
		ConnectedAt: time.Now(),
	}
}

// send delivers an event without blocking. Slow consumers lose events
// rather than stalling fan-out to other recipients.
func (c *Client) send(ev *Event) {
	select {
	case c.Events <- ev:
	default:
	}
}
