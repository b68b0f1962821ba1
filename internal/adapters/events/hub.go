package events

import (
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/phenrril/skinstore/internal/domain"
)

// Filter decides whether a subscriber sees a snapshot. nil lets everything through.
type Filter func(domain.Snapshot) bool

type subscriber struct {
	collection string
	filter     Filter
	ch         chan domain.Snapshot
}

// Hub fans committed changes out to live subscribers. A subscriber that does
// not keep up loses snapshots instead of stalling the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: map[*subscriber]struct{}{}, buffer: buffer}
}

// Subscribe returns a channel of snapshots for one collection and a cancel
// func that closes it. Cancel is safe to call more than once.
func (h *Hub) Subscribe(collection string, filter Filter) (<-chan domain.Snapshot, func()) {
	s := &subscriber{collection: collection, filter: filter, ch: make(chan domain.Snapshot, h.buffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, s)
			h.mu.Unlock()
			close(s.ch)
		})
	}
}

func (h *Hub) Publish(snap domain.Snapshot) {
	if snap.At.IsZero() {
		snap.At = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		if s.collection != snap.Collection {
			continue
		}
		if s.filter != nil && !s.filter(snap) {
			continue
		}
		select {
		case s.ch <- snap:
		default:
			zlog.Warn().Str("collection", snap.Collection).Str("id", snap.ID).Msg("stream subscriber lagging, snapshot dropped")
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
