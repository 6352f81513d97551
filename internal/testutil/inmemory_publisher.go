package testutil

import (
	"context"
	"sync"

	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/dojoflow/dojoflow/internal/webhook/publisher"
)

var _ publisher.WebhookPublisher = (*InMemoryWebhookPublisher)(nil)

// InMemoryWebhookPublisher captures outbound webhook events for assertions.
type InMemoryWebhookPublisher struct {
	mu     sync.Mutex
	events []*types.WebhookEvent
}

func NewInMemoryWebhookPublisher() *InMemoryWebhookPublisher {
	return &InMemoryWebhookPublisher{}
}

func (p *InMemoryWebhookPublisher) PublishWebhook(ctx context.Context, event *types.WebhookEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)
	return nil
}

func (p *InMemoryWebhookPublisher) Close() error {
	return nil
}

// Events returns a copy of everything published so far
func (p *InMemoryWebhookPublisher) Events() []*types.WebhookEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	events := make([]*types.WebhookEvent, len(p.events))
	copy(events, p.events)
	return events
}

// EventNames returns the published event names in order
func (p *InMemoryWebhookPublisher) EventNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, 0, len(p.events))
	for _, e := range p.events {
		names = append(names, e.EventName)
	}
	return names
}

func (p *InMemoryWebhookPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = nil
}
