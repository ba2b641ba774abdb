package transport

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultLookback is the historical window returned by the first
// RetrieveHistorical call per topic.
const DefaultLookback = 60 * time.Second

type memorySub struct {
	topics  map[string]struct{}
	handler Handler
}

// Memory is an in-process Transport: messages published on it fan out to
// subscribers immediately and are kept for historical retrieval. Used by
// tests and local demos.
type Memory struct {
	Lookback time.Duration

	mu      sync.Mutex
	log     map[string][]Message // per topic, arrival order
	cursors map[string]int       // per topic, index after last returned
	subs    map[string]*memorySub
}

func NewMemory() *Memory {
	return &Memory{
		Lookback: DefaultLookback,
		log:      map[string][]Message{},
		cursors:  map[string]int{},
		subs:     map[string]*memorySub{},
	}
}

func (m *Memory) Subscribe(_ context.Context, contentTopics []string, h Handler) (*Subscription, error) {
	id := uuid.NewString()
	topics := make(map[string]struct{}, len(contentTopics))
	for _, t := range contentTopics {
		topics[t] = struct{}{}
	}

	m.mu.Lock()
	m.subs[id] = &memorySub{topics: topics, handler: h}
	m.mu.Unlock()

	return &Subscription{
		ID: id,
		cancel: func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		},
	}, nil
}

func (m *Memory) Send(_ context.Context, contentTopic string, payload []byte) error {
	m.Publish(Message{
		Payload:      payload,
		ContentTopic: contentTopic,
		Timestamp:    time.Now().UnixMilli(),
	})
	return nil
}

// Publish injects a message as if it arrived from the network.
func (m *Memory) Publish(msg Message) {
	m.mu.Lock()
	m.log[msg.ContentTopic] = append(m.log[msg.ContentTopic], msg)
	var handlers []Handler
	for _, s := range m.subs {
		if _, ok := s.topics[msg.ContentTopic]; ok {
			handlers = append(handlers, s.handler)
		}
	}
	m.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
}

func (m *Memory) RetrieveHistorical(_ context.Context, contentTopic string) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := m.log[contentTopic]
	start, seen := m.cursors[contentTopic]
	m.cursors[contentTopic] = len(msgs)

	if seen {
		out := make([]Message, len(msgs)-start)
		copy(out, msgs[start:])
		return out, nil
	}

	// Publish accepts arbitrary timestamps, so the log is not necessarily
	// time-ordered; filter the whole log against the window on the first
	// call instead of trusting a sorted prefix.
	since := time.Now().Add(-m.Lookback).UnixMilli()
	out := []Message{}
	for _, msg := range msgs {
		if msg.Timestamp >= since {
			out = append(out, msg)
		}
	}
	return out, nil
}
