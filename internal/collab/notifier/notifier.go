// Package notifier delivers lifecycle notifications (OTP codes, decision
// outcomes) to workers. Delivery failures are recoverable: callers log and
// continue rather than failing the domain operation.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	dErrors "suraksha/pkg/domain-errors"
)

// Notifier sends a message to a recipient address.
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string) error
}

// SendGrid delivers notifications through the SendGrid mail API.
type SendGrid struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

func NewSendGrid(apiKey, fromName, fromEmail string) *SendGrid {
	return &SendGrid{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (n *SendGrid) Notify(ctx context.Context, recipient, subject, body string) error {
	from := mail.NewEmail(n.fromName, n.fromEmail)
	to := mail.NewEmail("", recipient)
	message := mail.NewSingleEmail(from, subject, to, body, body)

	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return dErrors.External("sendgrid", err)
	}
	if resp.StatusCode >= 400 {
		return dErrors.External("sendgrid", fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

// Log writes notifications to the application log. It backs development
// environments where no mail credentials are configured.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (n *Log) Notify(ctx context.Context, recipient, subject, body string) error {
	n.logger.InfoContext(ctx, "notification",
		"recipient", recipient,
		"subject", subject,
		"body", body,
	)
	return nil
}
