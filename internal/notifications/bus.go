// Package notifications fans transient PDV messages (sale saved, printer offline,
// ...) out to the screens attached to a register.
package notifications

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 16

// Event is one transient notification.
type Event struct {
	ID         uuid.UUID              `json:"id"`
	Kind       enums.NotificationKind `json:"kind"`
	Message    string                 `json:"message"`
	RegisterID uuid.UUID              `json:"register_id"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Publisher is the write side used by services.
type Publisher interface {
	Publish(event Event)
}

// Bus is an in-process fan-out keyed by register. Publish never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	mu      sync.RWMutex
	buffer  int
	subs    map[uuid.UUID]map[uint64]chan Event
	nextID  uint64
	dropped atomic.Uint64
}

// NewBus builds a bus whose subscribers get buffer-sized channels.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{
		buffer: buffer,
		subs:   make(map[uuid.UUID]map[uint64]chan Event),
	}
}

// Publish delivers event to every subscriber of event.RegisterID.
func (b *Bus) Publish(event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[event.RegisterID] {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe registers a listener for registerID. cancel unsubscribes and closes the
// channel; calling it more than once is safe.
func (b *Bus) Subscribe(registerID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.subs[registerID] == nil {
		b.subs[registerID] = make(map[uint64]chan Event)
	}
	b.subs[registerID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[registerID], id)
			if len(b.subs[registerID]) == 0 {
				delete(b.subs, registerID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of live subscriptions for registerID.
func (b *Bus) Subscribers(registerID uuid.UUID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[registerID])
}

// Dropped counts deliveries skipped because a subscriber was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Notify is a shorthand for Publish.
func Notify(p Publisher, registerID uuid.UUID, kind enums.NotificationKind, message string) {
	if p == nil {
		return
	}
	p.Publish(Event{Kind: kind, Message: message, RegisterID: registerID})
}
