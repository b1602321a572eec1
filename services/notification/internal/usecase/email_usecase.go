package usecase

import (
	"context"
	"fmt"
	"time"

	"thriftgram/pkg/logger"
	"thriftgram/pkg/mailer"
	"thriftgram/pkg/queue"
)

// EmailDispatcher delivers email tasks taken off the queue.
type EmailDispatcher struct {
	sender  mailer.Sender
	timeout time.Duration
	logger  *logger.Logger
}

func NewEmailDispatcher(sender mailer.Sender, timeout time.Duration, logger *logger.Logger) *EmailDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EmailDispatcher{sender: sender, timeout: timeout, logger: logger}
}

// Handle sends one task. Malformed tasks are dropped; send failures are
// returned so the queue can retry them.
func (d *EmailDispatcher) Handle(ctx context.Context, body []byte) error {
	email, err := mailer.DecodeTask(body)
	if err != nil {
		return queue.Drop(err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, email); err != nil {
		return fmt.Errorf("send %q to %v: %w", email.Subject, email.To, err)
	}
	d.logger.Info("[EMAIL] delivered %q to %v", email.Subject, email.To)
	return nil
}
