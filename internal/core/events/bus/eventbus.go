package bus

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Event types published by the session collaborator.
const (
	EventReachedExit = "avatar.reached_exit"
	EventFellOff     = "avatar.fell_off"
	EventHitHazard   = "avatar.hit_hazard"

	EventKeyCollected = "level.key_collected"
	EventExitOpened   = "level.exit_opened"

	EventTick = "sim.tick"

	wildcard = "*"
)

var ErrNilHandler = errors.New("bus: nil handler")

// Event is an immutable message stamped with simulation time only.
type Event struct {
	Type   string
	Source string
	Tick   uint64
	Time   float64
	Data   any
}

func NewEvent(typ, src string, tick uint64, at float64, data any) Event {
	return Event{Type: typ, Source: src, Tick: tick, Time: at, Data: data}
}

type subscription struct {
	id        string
	seq       uint64
	eventType string
	handler   EventHandler

	mu     sync.Mutex
	active bool
	cancel func()
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }

func (s *subscription) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *subscription) Cancel() error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil
	}
	s.active = false
	s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

type inMemoryBus struct {
	mu sync.RWMutex
	// handlers: eventType -> subID -> subscription
	handlers map[string]map[string]*subscription
	seq      uint64
}

// New creates a new EventBus instance.
func New() EventBus {
	return &inMemoryBus{
		handlers: make(map[string]map[string]*subscription),
	}
}

func (b *inMemoryBus) Publish(event Event) error {
	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.handlers[event.Type])+len(b.handlers[wildcard]))
	for _, s := range b.handlers[event.Type] {
		subs = append(subs, s)
	}
	for _, s := range b.handlers[wildcard] {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	// delivery follows subscription order
	sort.Slice(subs, func(i, j int) bool { return subs[i].seq < subs[j].seq })

	var all error
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		if err := s.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

func (b *inMemoryBus) PublishBatch(events ...Event) error {
	var all error
	for _, e := range events {
		if err := b.Publish(e); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

func (b *inMemoryBus) Subscribe(eventType string, handler EventHandler) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[string]*subscription)
	}
	b.seq++
	id := uuid.NewString()
	s := &subscription{id: id, seq: b.seq, eventType: eventType, handler: handler, active: true}
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if m, ok := b.handlers[eventType]; ok {
			delete(m, id)
		}
	}
	b.handlers[eventType][id] = s
	return s, nil
}

func (b *inMemoryBus) SubscribeAll(handler EventHandler) (Subscription, error) {
	return b.Subscribe(wildcard, handler)
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) Subscribers(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
