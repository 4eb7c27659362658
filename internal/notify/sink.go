package notify

import (
	"sync"

	"dbd/internal/models"
	"dbd/internal/providers"
	"dbd/internal/structures"
)

const (
	EventNewPost    = "new_post"
	EventNewComment = "new_comment"
	EventEditPost   = "edit_post"
	EventDeletePost = "delete_post"
)

// Event is one ledger mutation fanned out to listeners. The ledger
// writer emits exactly one event per accepted mutation, after durable
// persistence, never for rejected ones.
type Event struct {
	Type    string          `json:"type"`
	Tenant  string          `json:"tenant"`
	Post    *models.Post    `json:"post,omitempty"`
	Comment *models.Comment `json:"comment,omitempty"`
	PostId  uint64          `json:"post_id,omitempty"`
}

// SinkInterface is the boundary to the transport layer. Channel-aware
// filtering of who receives an event is the transport's concern.
type SinkInterface interface {
	Broadcast(tenant string, event *Event)
}

// LocalHub fans events out to in-process subscribers, one buffered
// channel per listener, filtered by tenant. Slow listeners drop events
// instead of blocking the write path.
type LocalHub struct {
	mu     sync.Mutex
	nextId int
	subs   map[string]map[int]chan *Event
	logger providers.Logger
}

func NewLocalHub(logger providers.Logger) *LocalHub {
	return &LocalHub{
		subs:   make(map[string]map[int]chan *Event),
		logger: logger,
	}
}

func (h *LocalHub) Broadcast(tenant string, event *Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs[tenant] {
		select {
		case ch <- event:
		default:
			h.logger.Warnf(providers.TypeApp, "listener %d for %s is lagging, event dropped", id, tenant)
		}
	}
}

// Subscribe registers a listener for one tenant. The returned cancel
// func removes the listener and closes its channel.
func (h *LocalHub) Subscribe(tenant string) (<-chan *Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[tenant] == nil {
		h.subs[tenant] = make(map[int]chan *Event)
	}
	id := h.nextId
	h.nextId++
	ch := make(chan *Event, 32)
	h.subs[tenant][id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[tenant][id]; ok {
			delete(h.subs[tenant], id)
			close(sub)
		}
	}
}

// NewSink picks the transport: redis pub/sub when an address is
// configured, otherwise the in-process hub.
func NewSink(conf *structures.Config, logger providers.Logger) SinkInterface {
	if conf.Notify.RedisAddr != "" {
		return NewRedisSink(conf, logger)
	}
	return NewLocalHub(logger)
}
