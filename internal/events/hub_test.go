package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishScopesByOrganization(t *testing.T) {
	h := NewHub(nil)
	org1, cancel1 := h.Subscribe("org-1")
	defer cancel1()
	all, cancelAll := h.Subscribe("")
	defer cancelAll()

	h.Publish(Event{Type: Created, Resource: "content", OrganizationID: "org-2"})
	h.Publish(Event{Type: Published, Resource: "content", OrganizationID: "org-1"})

	got := <-org1
	assert.Equal(t, Published, got.Type)
	assert.False(t, got.Time.IsZero())
	assert.Len(t, org1, 0)
	assert.Len(t, all, 2)
}

func TestPublishDropsForSlowSubscribers(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe("org-1")
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		h.Publish(Event{Type: Updated, OrganizationID: "org-1"})
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestCancelClosesChannel(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe("org-1")
	require.Equal(t, 1, h.Subscribers())

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.Subscribers())

	h.Publish(Event{OrganizationID: "org-1"})
}
