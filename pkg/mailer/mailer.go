// Package mailer builds transactional emails and hands them to a Sender.
package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"thriftgram/pkg/logger"
)

type Email struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html,omitempty"`
}

func (e Email) Validate() error {
	if len(e.To) == 0 {
		return errors.New("email has no recipients")
	}
	for _, to := range e.To {
		if to == "" {
			return errors.New("email has an empty recipient")
		}
	}
	if e.Subject == "" {
		return errors.New("email has no subject")
	}
	return nil
}

type Sender interface {
	Send(ctx context.Context, email Email) error
}

// Deliver sends email on a detached context bounded by timeout. Failures
// are logged and swallowed.
func Deliver(ctx context.Context, sender Sender, email Email, timeout time.Duration, log *logger.Logger) {
	if sender == nil {
		return
	}
	if err := email.Validate(); err != nil {
		log.Warn("[MAIL] skipping %q: %v", email.Subject, err)
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := sender.Send(sendCtx, email); err != nil {
		log.Error("[MAIL] failed to send %q to %v: %v", email.Subject, email.To, err)
		return
	}
	log.Info("[MAIL] sent %q to %v", email.Subject, email.To)
}

// TaskPublisher is the queue side of QueueSender.
type TaskPublisher interface {
	PublishEmailTask(ctx context.Context, body []byte, priority int) error
}

// QueueSender defers delivery to the notification service's email consumer.
type QueueSender struct {
	publisher TaskPublisher
	priority  int
}

func NewQueueSender(publisher TaskPublisher) *QueueSender {
	return &QueueSender{publisher: publisher, priority: 5}
}

func (s *QueueSender) Send(ctx context.Context, email Email) error {
	body, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("encode email task: %w", err)
	}
	return s.publisher.PublishEmailTask(ctx, body, s.priority)
}

func DecodeTask(body []byte) (Email, error) {
	var email Email
	if err := json.Unmarshal(body, &email); err != nil {
		return Email{}, fmt.Errorf("decode email task: %w", err)
	}
	if err := email.Validate(); err != nil {
		return Email{}, err
	}
	return email, nil
}

// LogSender stands in for SMTP in development.
type LogSender struct {
	logger *logger.Logger
}

func NewLogSender(logger *logger.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, email Email) error {
	s.logger.Info("[MAIL] (smtp disabled) to=%v subject=%q\n%s", email.To, email.Subject, email.Text)
	return nil
}
