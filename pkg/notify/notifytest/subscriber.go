package notifytest

import (
	"context"
	"sync"
)

// Subscriber hands out one feed channel per user. Tests push frames with
// Send after the handler has subscribed.
type Subscriber struct {
	mu    sync.Mutex
	Err   error
	feeds map[string]chan []byte
	ready chan string
}

func NewSubscriber() *Subscriber {
	return &Subscriber{feeds: map[string]chan []byte{}, ready: make(chan string, 16)}
}

func (s *Subscriber) Subscribe(ctx context.Context, userID string) (<-chan []byte, func() error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, nil, s.Err
	}
	feed := make(chan []byte, 16)
	s.feeds[userID] = feed
	s.ready <- userID
	var once sync.Once
	return feed, func() error {
		once.Do(func() { close(feed) })
		return nil
	}, nil
}

// Subscribed blocks until some user has subscribed and returns the user id.
func (s *Subscriber) Subscribed() <-chan string {
	return s.ready
}

func (s *Subscriber) Send(userID string, payload []byte) {
	s.mu.Lock()
	feed := s.feeds[userID]
	s.mu.Unlock()
	feed <- payload
}
