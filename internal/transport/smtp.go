package transport

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"mailspool/internal/models"
)

// SMTPClient sends a batch over one dialed SMTP connection. It backs the
// plain-SMTP sender profile for deployments without an OAuth transport.
type SMTPClient struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPClient(host string, port int, user, password, from string) *SMTPClient {
	return &SMTPClient{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (c *SMTPClient) SendBatch(ctx context.Context, messages []models.RenderedMessage, kind models.BodyKind) error {
	if len(messages) == 0 {
		return fmt.Errorf("%w: empty batch", ErrSend)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}

	contentType := "text/plain"
	if kind == models.BodyHTML {
		contentType = "text/html"
	}

	batch := make([]*gomail.Message, 0, len(messages))
	for _, m := range messages {
		msg := gomail.NewMessage()
		msg.SetHeader("From", c.from)
		msg.SetHeader("To", m.To)
		msg.SetHeader("Subject", m.Subject)
		msg.SetBody(contentType, m.Body)
		batch = append(batch, msg)
	}

	sender, err := c.dialer.Dial()
	if err != nil {
		return fmt.Errorf("%w: smtp dial: %v", ErrSend, err)
	}
	defer sender.Close()

	if err := gomail.Send(sender, batch...); err != nil {
		return fmt.Errorf("%w: smtp send: %v", ErrSend, err)
	}
	return nil
}
