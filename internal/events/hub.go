// Package events fans out organization scoped change notifications to live
// subscribers such as websocket clients.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/observability/metrics"
)

// Type names what happened to a resource.
type Type string

const (
	Created     Type = "created"
	Updated     Type = "updated"
	Deleted     Type = "deleted"
	Published   Type = "published"
	Deactivated Type = "deactivated"
)

// Event describes a mutation. Data carries the resource as returned by the API.
type Event struct {
	Type           Type      `json:"type"`
	Resource       string    `json:"resource"`
	ResourceID     string    `json:"resourceId"`
	OrganizationID string    `json:"organizationId"`
	ActorID        string    `json:"actorId,omitempty"`
	Time           time.Time `json:"time"`
	Data           any       `json:"data,omitempty"`
}

const subscriberBuffer = 32

type subscriber struct {
	orgID string
	ch    chan Event
}

// Hub delivers events to subscribers of the event's organization. A
// subscriber registered with an empty organization id receives every event.
// Publish never blocks: events are dropped for subscribers whose buffer is full.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*subscriber]struct{}
	logger  *slog.Logger
	now     func() time.Time
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{subs: make(map[*subscriber]struct{}), logger: logger, now: time.Now}
}

func (h *Hub) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = h.now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		if s.orgID != "" && s.orgID != e.OrganizationID {
			continue
		}
		select {
		case s.ch <- e:
		default:
			h.logger.Warn("dropping event for slow subscriber",
				slog.String("resource", e.Resource),
				slog.String("organization_id", e.OrganizationID),
			)
		}
	}
}

// Subscribe registers a subscriber. cancel unregisters it and closes the
// channel; it is safe to call more than once.
func (h *Hub) Subscribe(orgID string) (<-chan Event, func()) {
	s := &subscriber{orgID: orgID, ch: make(chan Event, subscriberBuffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	metrics.AddEventSubscribers(1)

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, s)
			h.mu.Unlock()
			close(s.ch)
			metrics.AddEventSubscribers(-1)
		})
	}
}

// Subscribers reports the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
