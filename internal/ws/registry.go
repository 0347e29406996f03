package ws

import (
	"sync"

	"github.com/rs/zerolog/log"

	"campus-chat/internal/observability"
)

// Registry is the live session registry: user id -> open channels. It is
// created at process start and closed on shutdown.
type Registry struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	users   map[int64]map[*Client]struct{}
	closed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[*Client]struct{}),
		users:   make(map[int64]map[*Client]struct{}),
	}
}

// Register tracks a freshly opened channel. It returns false after Close.
func (r *Registry) Register(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// Bind associates the channel with a user. Re-binding moves it.
func (r *Registry) Bind(c *Client, userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	if _, ok := r.clients[c]; !ok {
		return false
	}
	r.unbindLocked(c)
	c.userID.Store(userID)
	if _, ok := r.users[userID]; !ok {
		r.users[userID] = make(map[*Client]struct{})
	}
	r.users[userID][c] = struct{}{}
	observability.SetWSBoundUsers(len(r.users))
	return true
}

// Unregister removes the channel from every index.
func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
	r.unbindLocked(c)
	observability.SetWSBoundUsers(len(r.users))
}

func (r *Registry) unbindLocked(c *Client) {
	userID := c.UserID()
	if userID == 0 {
		return
	}
	if conns, ok := r.users[userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(r.users, userID)
		}
	}
}

// SendToUser queues payload on every channel of the user and returns how many
// accepted it. A channel whose buffer is full is closed and dropped.
func (r *Registry) SendToUser(userID int64, payload []byte) int {
	r.mu.RLock()
	targets := make([]*Client, 0, len(r.users[userID]))
	for c := range r.users[userID] {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.enqueue(payload) {
			delivered++
			continue
		}
		log.Warn().Int64("user_id", userID).Str("conn_id", c.info.ConnID).Msg("dropping slow realtime client")
		observability.IncWSEvent("ws_slow_consumer")
		c.Close()
		r.Unregister(c)
	}
	return delivered
}

// Connections returns the number of channels bound to the user.
func (r *Registry) Connections(userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID])
}

// Close closes every channel and refuses new ones.
func (r *Registry) Close() {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	r.clients = make(map[*Client]struct{})
	r.users = make(map[int64]map[*Client]struct{})
	r.closed = true
	r.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	observability.SetWSBoundUsers(0)
	log.Info().Int("clients", len(clients)).Msg("realtime registry closed")
}
