package websocket

import (
	"context"
	"sync"
)

type opKind int

const (
	opRegister opKind = iota
	opUnregister
	opSubscribe
)

type hubOp struct {
	kind    opKind
	client  *Client
	channel string
	done    chan struct{}
}

// Hub tracks live chat connections and which conversation channel each one
// listens on. Membership changes go through one queue so they apply in the
// order they were requested, and each call returns once its change is live.
type Hub struct {
	mu sync.RWMutex

	clients map[string]*Client

	// channel name -> subscribed clients
	channels map[string]map[*Client]struct{}

	ops     chan hubOp
	stopped chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		channels: make(map[string]map[*Client]struct{}),
		ops:      make(chan hubOp, 1024),
		stopped:  make(chan struct{}),
	}
}

// Run processes membership changes until ctx is cancelled. Calls made after
// Run returned are dropped.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-h.ops:
			switch op.kind {
			case opRegister:
				h.addClient(op.client)
			case opUnregister:
				h.removeClient(op.client)
			case opSubscribe:
				h.subscribeToChannel(op.client, op.channel)
			}
			close(op.done)
		}
	}
}

// Register adds client and returns once it is tracked.
func (h *Hub) Register(client *Client) {
	h.apply(hubOp{kind: opRegister, client: client})
}

// Unregister drops every subscription of client and closes its send queue.
func (h *Hub) Unregister(client *Client) {
	h.apply(hubOp{kind: opUnregister, client: client})
}

// Subscribe returns once broadcasts on channel reach client.
func (h *Hub) Subscribe(client *Client, channel string) {
	h.apply(hubOp{kind: opSubscribe, client: client, channel: channel})
}

func (h *Hub) apply(op hubOp) {
	op.done = make(chan struct{})
	select {
	case h.ops <- op:
	case <-h.stopped:
		return
	}
	select {
	case <-op.done:
	case <-h.stopped:
	}
}

// Broadcast queues payload on every client subscribed to channel. Slow
// clients whose queue is full miss the frame.
func (h *Hub) Broadcast(channel string, payload []byte) {
	h.mu.RLock()
	for c := range h.channels[channel] {
		c.SendMessage(payload)
	}
	h.mu.RUnlock()
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) ChannelSubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	for _, channel := range client.Channels() {
		if subscribers, ok := h.channels[channel]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.channels, channel)
			}
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) subscribeToChannel(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*Client]struct{})
	}
	h.channels[channel][client] = struct{}{}
	client.subscribe(channel)
}
