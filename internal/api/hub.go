package api

import (
	"encoding/json"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"
	"old-maid-server/internal/entities"
	"sync"
)

// sendBuffer is the number of frames queued per socket before it is
// considered too slow and frames start being dropped.
const sendBuffer = 64

// Mirror receives a copy of every broadcast.
type Mirror interface {
	Publish(group, event string, payload any)
}

func gameGroup(id entities.GameID) string {
	return "game:" + string(id)
}

func playerGroup(id entities.PlayerID) string {
	return "player:" + string(id)
}

type outFrame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// client is one socket. send is never closed; done signals the write pump
// to stop.
type client struct {
	id   string
	send chan []byte
	done chan struct{}
	once sync.Once
	// groups is guarded by the hub mutex.
	groups map[string]struct{}
}

func newClient(id string) *client {
	return &client{
		id:     id,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		groups: map[string]struct{}{},
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub tracks which sockets listen to which groups.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	groups  map[string]map[*client]struct{}
	mirror  Mirror
	log     zerolog.Logger
}

func NewHub(mirror Mirror, logger zerolog.Logger) *Hub {
	return &Hub{
		clients: map[*client]struct{}{},
		groups:  map[string]map[*client]struct{}{},
		mirror:  mirror,
		log:     logger.With().Str("component", "hub").Logger(),
	}
}

func (h *Hub) join(c *client, groups ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, g := range groups {
		members, ok := h.groups[g]
		if !ok {
			members = map[*client]struct{}{}
			h.groups[g] = members
		}
		members[c] = struct{}{}
		c.groups[g] = struct{}{}
	}
}

func (h *Hub) leave(c *client, groups ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, g := range groups {
		h.remove(c, g)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// unregister drops c from the hub and from every group it joined.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for g := range c.groups {
		h.remove(c, g)
	}
	delete(h.clients, c)
}

// remove must be called with the lock held.
func (h *Hub) remove(c *client, group string) {
	delete(c.groups, group)
	members := h.groups[group]
	delete(members, c)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

// evict removes every socket listening to from from each of groups.
func (h *Hub) evict(from string, groups ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.groups[from] {
		for _, g := range groups {
			h.remove(c, g)
		}
	}
}

// dissolve removes every socket from group and forgets it.
func (h *Hub) dissolve(group string) {
	h.evict(group, group)
}

func (h *Hub) groupsOf(c *client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	groups := make([]string, 0, len(c.groups))
	for g := range c.groups {
		groups = append(groups, g)
	}
	return groups
}

func (h *Hub) members(group string) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := make([]*client, 0, len(h.groups[group]))
	for c := range h.groups[group] {
		members = append(members, c)
	}
	return members
}

// Broadcast sends event to every socket in group except the sender.
func (h *Hub) Broadcast(group, event string, payload any, except *client) {
	h.BroadcastMany([]string{group}, event, payload, except)
}

// BroadcastMany sends event once to every socket found in any of groups.
func (h *Hub) BroadcastMany(groups []string, event string, payload any, except *client) {
	frame, err := json.Marshal(outFrame{Event: event, Payload: payload})
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("encode broadcast")
		return
	}

	seen := map[*client]struct{}{}
	var targets []*client
	for _, g := range groups {
		for _, c := range h.members(g) {
			if _, dup := seen[c]; dup || c == except {
				continue
			}
			seen[c] = struct{}{}
			targets = append(targets, c)
		}
		if h.mirror != nil {
			h.mirror.Publish(g, event, payload)
		}
	}

	iter.ForEach(targets, func(c **client) {
		h.deliver(*c, frame)
	})
}

func (h *Hub) deliver(c *client, frame []byte) {
	select {
	case <-c.done:
	case c.send <- frame:
	default:
		h.log.Warn().Str("client", c.id).Msg("send buffer full, dropping frame")
	}
}

// Close asks every connected socket to close.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.close()
	}
}
