// Package events carries "vocabulary updated" notifications from the
// scheduling core to whoever is listening. Delivery is best effort: a
// listener failure is logged and never reaches the publisher.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/wordmemo/internal/logger"
	"github.com/google/uuid"
)

// TypeVocabularyUpdated is the wire type of VocabularyUpdated
const TypeVocabularyUpdated = "VOCABULARY_UPDATED"

// Reasons attached to VocabularyUpdated
const (
	ReasonAdded         = "added"
	ReasonDeleted       = "deleted"
	ReasonRemembered    = "remembered"
	ReasonNotRemembered = "not_remembered"
	ReasonPractice      = "practice"
	ReasonDecay         = "decay"
	ReasonImported      = "imported"
)

// VocabularyUpdated announces that some words changed after a successful write
type VocabularyUpdated struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Reason    string    `json:"reason"`
	Words     []string  `json:"words,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewVocabularyUpdated creates an event naming the changed words
func NewVocabularyUpdated(reason string, words ...string) *VocabularyUpdated {
	return &VocabularyUpdated{
		ID:        uuid.New(),
		Type:      TypeVocabularyUpdated,
		Reason:    reason,
		Words:     words,
		CreatedAt: time.Now(),
	}
}

// Listener receives vocabulary updates
type Listener interface {
	HandleVocabularyUpdated(ctx context.Context, evt *VocabularyUpdated) error
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(ctx context.Context, evt *VocabularyUpdated) error

func (f ListenerFunc) HandleVocabularyUpdated(ctx context.Context, evt *VocabularyUpdated) error {
	return f(ctx, evt)
}

// Publisher is what mutating services depend on
type Publisher interface {
	Publish(ctx context.Context, reason string, words ...string)
}

// Bus fans events out to every subscribed listener, in subscription order
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
	log       *logger.Logger
}

// NewBus creates an empty bus
func NewBus(log *logger.Logger) *Bus {
	if log == nil {
		log = logger.NewNop()
	}
	return &Bus{log: log.With("component", "events")}
}

// Subscribe registers a listener
func (b *Bus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Publish delivers a new event to all listeners. It never fails.
func (b *Bus) Publish(ctx context.Context, reason string, words ...string) {
	evt := NewVocabularyUpdated(reason, words...)

	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, l := range listeners {
		if err := deliver(ctx, l, evt); err != nil {
			b.log.Warn("vocabulary update listener failed",
				"event_id", evt.ID.String(),
				"reason", reason,
				"error", err)
		}
	}
}

func deliver(ctx context.Context, l Listener, evt *VocabularyUpdated) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return l.HandleVocabularyUpdated(ctx, evt)
}
