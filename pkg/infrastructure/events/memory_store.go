package events

import (
	"errors"
	"slices"
	"sync"
)

// InMemoryEventStore keeps the events of every run for the lifetime of the process.
// Subscribers are notified synchronously, in append order, after the store lock is
// released.
type InMemoryEventStore struct {
	mutex       sync.RWMutex
	streams     map[string][]Event
	allEvents   []Event
	subscribers map[string][]EventHandler
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
	}
}

var _ EventStore = (*InMemoryEventStore)(nil)

// AppendEvent stores event under runID with the next sequence number of that run, then
// notifies the subscribers of its type. Handler errors are joined and returned; the
// event stays stored.
func (s *InMemoryEventStore) AppendEvent(runID string, event Event) error {
	s.mutex.Lock()
	stored := RunEvent{
		Kind:    event.Type(),
		Run:     runID,
		Payload: event.Data(),
		At:      event.Timestamp(),
		Seq:     len(s.streams[runID]) + 1,
	}

	s.streams[runID] = append(s.streams[runID], stored)
	s.allEvents = append(s.allEvents, stored)
	handlers := append([]EventHandler(nil), s.subscribers[stored.Kind]...)
	s.mutex.Unlock()

	return s.notify(handlers, stored)
}

// ReadEvents returns the events of runID from sequence fromSequence on
func (s *InMemoryEventStore) ReadEvents(runID string, fromSequence int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stream := s.streams[runID]
	if fromSequence < 1 {
		fromSequence = 1
	}
	if fromSequence > len(stream) {
		return []Event{}, nil
	}

	out := make([]Event, len(stream)-fromSequence+1)
	copy(out, stream[fromSequence-1:])
	return out, nil
}

// ReadAllEvents returns every stored event of every run from fromPosition on, in append
// order
func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	fromPosition = max(fromPosition, 0)
	if fromPosition >= len(s.allEvents) {
		return []Event{}, nil
	}
	return slices.Clone(s.allEvents[fromPosition:]), nil
}

// Subscribe registers handler for the given event types. Handlers run synchronously
// inside AppendEvent.
func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	if handler == nil {
		return errors.New("subscribe: nil handler")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		if !slices.Contains(s.subscribers[eventType], handler) {
			s.subscribers[eventType] = append(s.subscribers[eventType], handler)
		}
	}
	return nil
}

// Unsubscribe removes handler from every event type
func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for eventType, handlers := range s.subscribers {
		s.subscribers[eventType] = slices.DeleteFunc(slices.Clone(handlers), func(h EventHandler) bool {
			return h == handler
		})
	}
	return nil
}

func (s *InMemoryEventStore) notify(handlers []EventHandler, event Event) error {
	var errs []error
	for _, handler := range handlers {
		if !handler.CanHandle(event.Type()) {
			continue
		}
		if err := handler.Handle(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
