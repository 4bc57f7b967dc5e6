// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package eventbus delivers lifecycle events on validated contracts.
// Delivery is at-least-once; consumers dedupe on event_id. Emission
// failures never propagate to producers.
package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/AMD-AGI/voyant/pkg/eventschema"
	"github.com/AMD-AGI/voyant/pkg/idgen"
	"github.com/AMD-AGI/voyant/pkg/logger/log"
	"github.com/AMD-AGI/voyant/pkg/metrics"
)

const (
	DefaultRingSize        = 256
	DefaultPublishAttempts = 3
)

var (
	emittedCounter = metrics.NewCounterVec("events_emitted", "events accepted by the bus", []string{"event_type"})
	invalidCounter = metrics.NewCounterVec("events_invalid", "events rejected by schema validation", []string{"event_type"})
	droppedCounter = metrics.NewCounterVec("events_dropped", "events dropped after exhausted publish retries", []string{"event_type"})
)

// Event is the bus wire shape: a dotted type name, a unique id,
// an RFC 3339 UTC timestamp, the owning tenant and a payload matching
// the registered schema.
type Event struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	TenantID  string                 `json:"tenant_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}

// Handler consumes events in-process. Handlers must be idempotent on
// event_id.
type Handler func(event *Event)

type Bus struct {
	registry  *eventschema.Registry
	publisher Publisher
	clock     idgen.Clock
	attempts  int

	mu       sync.Mutex
	ring     []*Event
	ringSize int
	handlers map[string][]Handler
}

type Option func(*Bus)

func WithRingSize(size int) Option {
	return func(b *Bus) {
		if size > 0 {
			b.ringSize = size
		}
	}
}

func WithPublishAttempts(attempts int) Option {
	return func(b *Bus) {
		if attempts > 0 {
			b.attempts = attempts
		}
	}
}

func WithClock(clock idgen.Clock) Option {
	return func(b *Bus) { b.clock = clock }
}

func New(registry *eventschema.Registry, publisher Publisher, opts ...Option) *Bus {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	bus := &Bus{
		registry:  registry,
		publisher: publisher,
		clock:     idgen.RealClock{},
		attempts:  DefaultPublishAttempts,
		ringSize:  DefaultRingSize,
		handlers:  map[string][]Handler{},
	}
	for _, opt := range opts {
		opt(bus)
	}
	return bus
}

// Subscribe registers a handler for an event type. The type "*"
// receives every event.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit validates the event against its registered schema and, when
// valid, publishes it to the durable topic with retries, delivers it
// to subscribers and appends it to the recent ring. Returns false
// without publishing when validation fails. Publish failures are
// absorbed: the event is dropped after the configured attempts and a
// metric recorded.
func (b *Bus) Emit(ctx context.Context, topic string, event *Event) bool {
	if event == nil || event.EventType == "" {
		return false
	}
	if event.EventID == "" {
		event.EventID = idgen.NewEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = b.clock.Now().UTC()
	}

	result := b.registry.ValidatePayload(event.EventType, event.Payload)
	for _, warning := range result.Warnings {
		log.Warnf("event %s (%s): %s", event.EventType, event.EventID, warning)
	}
	if !result.Valid {
		invalidCounter.Inc(event.EventType)
		log.Warnf("rejected event %s (%s): %v", event.EventType, event.EventID, result.Errors)
		return false
	}

	b.publish(ctx, topic, event)
	b.deliver(event)
	b.remember(event)
	emittedCounter.Inc(event.EventType)
	return true
}

func (b *Bus) publish(ctx context.Context, topic string, event *Event) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxElapsedTime = 0
	err := backoff.Retry(func() error {
		return b.publisher.Publish(ctx, topic, event)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(b.attempts-1)), ctx))
	if err != nil {
		droppedCounter.Inc(event.EventType)
		log.Errorf("dropped event %s (%s) after %d publish attempts: %v",
			event.EventType, event.EventID, b.attempts, err)
	}
}

func (b *Bus) deliver(event *Event) {
	b.mu.Lock()
	handlers := append(append([]Handler{}, b.handlers[event.EventType]...), b.handlers["*"]...)
	b.mu.Unlock()
	for _, handler := range handlers {
		handler(event)
	}
}

func (b *Bus) remember(event *Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ring = append(b.ring, event)
	if len(b.ring) > b.ringSize {
		b.ring = b.ring[len(b.ring)-b.ringSize:]
	}
}

// RecentEvents returns up to limit events, newest first.
func (b *Bus) RecentEvents(limit int) []*Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > len(b.ring) {
		limit = len(b.ring)
	}
	events := make([]*Event, 0, limit)
	for i := len(b.ring) - 1; i >= len(b.ring)-limit; i-- {
		events = append(events, b.ring[i])
	}
	return events
}
