package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/kuraeplasma/SPACEGLEAM/pkg/config"
)

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Client sends transactional mail through SendGrid. Delivery is
// fire-and-forget from the caller's perspective; failures are returned so the
// caller can log them, never to abort the surrounding operation.
type Client struct {
	sg   sender
	from *mail.Email
}

// New builds a mail client from the SendGrid configuration. A nil client is
// returned when no API key is configured so callers can degrade to logging.
func New(cfg config.SendgridConfig) *Client {
	if !cfg.Configured() {
		return nil
	}
	return &Client{
		sg:   sendgrid.NewSendClient(cfg.APIKey),
		from: mail.NewEmail(cfg.FromName, cfg.DefaultFrom),
	}
}

// Send delivers a plain-text message to a single recipient.
func (c *Client) Send(ctx context.Context, toEmail, subject, body string) error {
	if c == nil || c.sg == nil {
		return fmt.Errorf("mailer not configured")
	}
	to := mail.NewEmail("", toEmail)
	msg := mail.NewSingleEmailPlainText(c.from, subject, to, body)
	resp, err := c.sg.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}
	return nil
}
