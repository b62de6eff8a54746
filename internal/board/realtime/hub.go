package realtime

import (
	"log/slog"
	"sync"
)

const publishBacklog = 256

type groupEvent struct {
	group string
	event Event
}

// Hub fans events out to group members. A single dispatch goroutine drains
// the publish queue, so events from one publisher reach each connection in
// the order they were published.
type Hub struct {
	logger *slog.Logger

	mu     sync.Mutex
	groups map[string]map[*Client]struct{}

	publish chan groupEvent
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With(slog.String("component", "realtime")),
		groups:  make(map[string]map[*Client]struct{}),
		publish: make(chan groupEvent, publishBacklog),
		done:    make(chan struct{}),
	}
}

// Start launches the dispatch loop.
func (h *Hub) Start() {
	h.wg.Add(1)
	go h.run()
}

// Stop drains nothing: queued events are discarded, members are detached.
func (h *Hub) Stop() {
	close(h.done)
	h.wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	for group, members := range h.groups {
		for c := range members {
			c.detach()
		}
		delete(h.groups, group)
	}
}

// Join registers the client in the group. Membership lasts until Leave.
func (h *Hub) Join(group string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.groups[group]
	if !ok {
		members = make(map[*Client]struct{})
		h.groups[group] = members
	}
	members[c] = struct{}{}
}

// Leave removes the client. Safe to call more than once and for clients
// that never joined.
func (h *Hub) Leave(group string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

// Count reports current group membership.
func (h *Hub) Count(group string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[group])
}

// Publish queues an event for everyone currently in the group. Delivery is
// at most once per live connection; there is no replay. Publish never
// blocks: if the queue is full the event is dropped and logged.
func (h *Hub) Publish(group string, e Event) {
	select {
	case h.publish <- groupEvent{group: group, event: e}:
	case <-h.done:
	default:
		h.logger.Warn("publish queue full, dropping event",
			slog.String("group", group),
			slog.String("activity_id", e.ActivityID))
	}
}

func (h *Hub) run() {
	defer h.wg.Done()

	for {
		select {
		case ge := <-h.publish:
			h.dispatch(ge.group, ge.event)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) dispatch(group string, e Event) {
	h.mu.Lock()
	members := make([]*Client, 0, len(h.groups[group]))
	for c := range h.groups[group] {
		members = append(members, c)
	}
	h.mu.Unlock()

	for _, c := range members {
		if !c.enqueue(e) {
			// Slow consumer: sever it rather than stall the loop.
			h.logger.Warn("dropping slow feed connection",
				slog.String("group", group))
			h.Leave(group, c)
			c.detach()
		}
	}
}
