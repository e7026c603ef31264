package mocks

import (
	"sync"

	"github.com/mcoot/redblue/internal/model"
)

// Publisher records published events for assertions
type Publisher struct {
	mu     sync.Mutex
	events []model.Event
	closed []model.GameID
}

// NewPublisher creates an empty recording Publisher
func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(event model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *Publisher) CloseGame(id model.GameID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, id)
}

// Events returns every event published so far
func (p *Publisher) Events() []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Event(nil), p.events...)
}

// Types returns the type of every event published so far
func (p *Publisher) Types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]model.EventType, len(p.events))
	for i, ev := range p.events {
		types[i] = ev.Type
	}
	return types
}

// Closed returns the games whose subscribers were closed
func (p *Publisher) Closed() []model.GameID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.GameID(nil), p.closed...)
}

// Reset forgets everything recorded
func (p *Publisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
	p.closed = nil
}
