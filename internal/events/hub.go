package events

import (
	"errors"
	"strings"
	"sync"
)

const (
	DefaultBufferSize       = 50
	DefaultSubscriberBuffer = 16

	// AllEvents subscribes to every event name.
	AllEvents = "*"
)

var (
	ErrHubUnavailable = errors.New("hub_unavailable")
	ErrUnknownTopic   = errors.New("unknown_topic")
)

// Hub fans committed events out to in-process subscribers.
// Each stream keeps a bounded replay buffer; slow subscribers miss events instead of blocking publishers.
type Hub struct {
	mu               sync.Mutex
	streams          map[string]*stream
	bufferSize       int
	subscriberBuffer int
}

type stream struct {
	buffer []Event
	subs   map[uint64]chan Event
	nextID uint64
}

func newStream() *stream {
	return &stream{subs: make(map[uint64]chan Event)}
}

type Subscription struct {
	hub   *Hub
	topic string
	id    uint64
	ch    chan Event
	once  sync.Once
}

func NewHub() *Hub {
	return &Hub{
		streams:          make(map[string]*stream),
		bufferSize:       DefaultBufferSize,
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	h.publishTo(string(event.Name), event)
	h.publishTo(AllEvents, event)
}

func (h *Hub) publishTo(topic string, event Event) {
	h.mu.Lock()
	stream := h.streams[topic]
	if stream == nil {
		stream = newStream()
		h.streams[topic] = stream
	}
	stream.buffer = append(stream.buffer, event)
	if len(stream.buffer) > h.bufferSize {
		stream.buffer = stream.buffer[len(stream.buffer)-h.bufferSize:]
	}
	subs := make([]chan Event, 0, len(stream.subs))
	for _, ch := range stream.subs {
		subs = append(subs, ch)
	}
	h.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a subscriber for topic (an event name or AllEvents) and returns the replay buffer.
// Topics other than AllEvents and the known event names fail with ErrUnknownTopic.
func (h *Hub) Subscribe(topic string) (*Subscription, []Event, error) {
	if h == nil {
		return nil, nil, ErrHubUnavailable
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = AllEvents
	}
	if topic != AllEvents && !Name(topic).Known() {
		return nil, nil, ErrUnknownTopic
	}

	h.mu.Lock()
	stream := h.streams[topic]
	if stream == nil {
		stream = newStream()
		h.streams[topic] = stream
	}
	id := stream.nextID
	stream.nextID++
	ch := make(chan Event, h.subscriberBuffer)
	stream.subs[id] = ch
	buffer := append([]Event(nil), stream.buffer...)
	h.mu.Unlock()

	return &Subscription{
		hub:   h,
		topic: topic,
		id:    id,
		ch:    ch,
	}, buffer, nil
}

// Streams reports how many topics the hub currently tracks.
func (h *Hub) Streams() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.streams)
}

// unsubscribe drops the subscriber and forgets a topic that has neither subscribers nor history.
func (h *Hub) unsubscribe(topic string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	stream := h.streams[topic]
	if stream == nil {
		return
	}
	delete(stream.subs, id)
	if len(stream.subs) == 0 && len(stream.buffer) == 0 {
		delete(h.streams, topic)
	}
}

func (s *Subscription) Events() <-chan Event {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.topic, s.id)
	})
}
