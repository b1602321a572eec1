// Package mailertest provides a recording mailer.Sender.
package mailertest

import (
	"context"
	"sync"

	"thriftgram/pkg/mailer"
)

type Sender struct {
	mu   sync.Mutex
	Err  error
	sent []mailer.Email
}

func (s *Sender) Send(ctx context.Context, email mailer.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.sent = append(s.sent, email)
	return nil
}

func (s *Sender) Sent() []mailer.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Email(nil), s.sent...)
}

// To returns the emails addressed to the given address.
func (s *Sender) To(address string) []mailer.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []mailer.Email
	for _, e := range s.sent {
		for _, to := range e.To {
			if to == address {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
