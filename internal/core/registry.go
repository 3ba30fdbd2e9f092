package core

import (
	"fmt"
	"sync"
)

// Registry tracks every live connection and its current room memberships.
// It owns nothing about rooms themselves; membership bookkeeping here
// mirrors the room store's member sets so a disconnect knows the exact set
// of rooms to leave on the connection's behalf.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]struct{} // connection id -> joined room ids
}

// NewRegistry constructs an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]struct{}),
	}
}

// Register inserts a new connection with empty membership. A duplicate id
// is an invariant violation in the transport contract and is rejected.
func (r *Registry) Register(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[c.ID]; exists {
		return fmt.Errorf("register %s: %w", c.ID, ErrDuplicateConnection)
	}
	r.clients[c.ID] = c
	r.rooms[c.ID] = make(map[string]struct{})
	return nil
}

// Lookup returns the client for a connection id.
func (r *Registry) Lookup(connID string) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[connID]
	if !ok {
		return nil, ErrConnectionNotFound
	}
	return c, nil
}

// Deregister atomically removes the connection and returns the room ids it
// belonged to, handing cleanup to the caller. Idempotent: deregistering an
// unknown id returns an empty set, since a connection may disconnect before
// finishing registration.
func (r *Registry) Deregister(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	memberships, ok := r.rooms[connID]
	if !ok {
		return nil
	}
	delete(r.clients, connID)
	delete(r.rooms, connID)

	roomIDs := make([]string, 0, len(memberships))
	for roomID := range memberships {
		roomIDs = append(roomIDs, roomID)
	}
	return roomIDs
}

// trackJoin records a room membership for a registered connection. It
// reports false when the connection is no longer registered, so the caller
// can undo a room mutation that committed after deregistration.
func (r *Registry) trackJoin(connID, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	memberships, ok := r.rooms[connID]
	if !ok {
		return false
	}
	memberships[roomID] = struct{}{}
	return true
}

// trackLeave forgets a room membership for a registered connection.
func (r *Registry) trackLeave(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if memberships, ok := r.rooms[connID]; ok {
		delete(memberships, roomID)
	}
}

// resolve maps connection ids to live clients, silently skipping ids that
// disconnected since the set was captured.
func (r *Registry) resolve(connIDs []string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(connIDs))
	for _, id := range connIDs {
		if c, ok := r.clients[id]; ok {
			clients = append(clients, c)
		}
	}
	return clients
}
