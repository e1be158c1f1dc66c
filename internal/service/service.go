// Package service holds the business operations behind the HTTP API. Every
// method receives the acting principal and enforces the authorization policy
// before it touches storage.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/events"
	"github.com/aryan0dhankhar/tenantcms/pkg/cache"
)

// Publisher receives change notifications. *events.Hub implements it.
type Publisher interface {
	Publish(events.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}

// Listing is one page of results plus the total matching count.
type Listing[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func newListing[T any](items []T, total int, p domain.Page) Listing[T] {
	p = p.Normalize()
	if items == nil {
		items = []T{}
	}
	return Listing[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit}
}

// HasMore reports whether another page follows this one.
func (l Listing[T]) HasMore() bool {
	return l.Page*l.Limit < l.Total
}

// ContentCachePrefix is the key prefix of an organization's authenticated content reads.
func ContentCachePrefix(orgID string) string {
	return cache.Key("content", orgID) + ":"
}

// PublicCachePrefix is the key prefix of an organization's public API reads.
func PublicCachePrefix(orgID string) string {
	return cache.Key("public", orgID) + ":"
}

// changes drops cached reads of an organization and announces a mutation.
// Cache failures are logged: a stale entry expires on its own.
type changes struct {
	cache  cache.Store
	events Publisher
	logger *slog.Logger
}

func newChanges(store cache.Store, pub Publisher, logger *slog.Logger) changes {
	if pub == nil {
		pub = nopPublisher{}
	}
	return changes{cache: store, events: pub, logger: logger}
}

func (c changes) record(ctx context.Context, p domain.Principal, orgID string, typ events.Type, resource, id string, data any) {
	if c.cache != nil {
		for _, prefix := range []string{ContentCachePrefix(orgID), PublicCachePrefix(orgID)} {
			if err := c.cache.Invalidate(ctx, prefix); err != nil {
				c.logger.WarnContext(ctx, "cache invalidation failed",
					slog.String("prefix", prefix),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	c.events.Publish(events.Event{
		Type:           typ,
		Resource:       resource,
		ResourceID:     id,
		OrganizationID: orgID,
		ActorID:        p.UserID,
		Data:           data,
	})
}

func now() time.Time {
	return time.Now().UTC()
}
