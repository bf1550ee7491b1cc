// internal/events/bus.go
package events

import (
	"log"
	"sync"
)

// Domain event types published by the services. The notification dispatcher
// matches campaigns on (Domain, Type).
const (
	DomainStory  = "story"
	DomainVoice  = "voice"
	DomainVideo  = "video"
	DomainCollab = "collab"

	TypeStoryPublished = "published"
	TypeStoryAnalyzed  = "analyzed"
	TypeNarrationDone  = "narration.completed"
	TypeTrainingDone   = "training.completed"
	TypeTrainingFailed = "training.failed"
	TypeVideoCompleted = "completed"
	TypeVideoFailed    = "failed"
	TypeCollabInvited  = "invited"
)

// Event carries the target user and the template variables extracted at the
// publish site.
type Event struct {
	Domain string
	Type   string
	UserID int
	Vars   map[string]string
}

type Handler func(evt Event) error

type Bus interface {
	Publish(evt Event)
	Subscribe(fn Handler)
}

// InMemoryBus fans events out to subscribers, each on its own goroutine.
// Handler errors are logged, not propagated: the publish site has already
// committed its own row.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{}
}

func (b *InMemoryBus) Subscribe(fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, fn)
}

func (b *InMemoryBus) Publish(evt Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, fn := range handlers {
		go func(fn Handler) {
			if err := fn(evt); err != nil {
				log.Printf("⚠️ event handler failed for %s.%s: %v", evt.Domain, evt.Type, err)
			}
		}(fn)
	}
}

var _ Bus = (*InMemoryBus)(nil)
