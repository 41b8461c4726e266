package progress

import "sync"

const defaultSubscriberBufSize = 64

// Publisher fans events out to any number of subscribers. A subscriber that
// falls behind its buffer misses events rather than stalling the publisher.
type Publisher struct {
	mu          sync.Mutex
	subscribers []chan Event
	closed      bool
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish delivers ev to every live subscriber, dropping it where a
// subscriber's buffer is full. Publishing to a closed Publisher is a no-op.
func (p *Publisher) Publish(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	for _, ch := range p.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe returns a channel of future events with the default buffer size.
// The channel is closed when the Publisher is closed.
func (p *Publisher) Subscribe() <-chan Event {
	return p.SubscribeBufSize(defaultSubscriberBufSize)
}

func (p *Publisher) SubscribeBufSize(n int) <-chan Event {
	ch := make(chan Event, n)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		close(ch)
		return ch
	}
	p.subscribers = append(p.subscribers, ch)
	return ch
}

// Close shuts down the publisher and closes every subscriber channel.
// Calling Close more than once is safe.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for _, ch := range p.subscribers {
		close(ch)
	}
	p.subscribers = nil
}
