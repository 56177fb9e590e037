package mail

import (
	"context"
	"time"

	gomail "gopkg.in/gomail.v2"
)

// SMTPMailer delivers receipts through a plain SMTP relay.
type SMTPMailer struct {
	dialer  *gomail.Dialer
	from    string
	timeout time.Duration
}

func NewSMTPMailer(host string, port int, username, password, from string, timeout time.Duration) *SMTPMailer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &SMTPMailer{
		dialer:  gomail.NewDialer(host, port, username, password),
		from:    from,
		timeout: timeout,
	}
}

var _ Mailer = (*SMTPMailer)(nil)

// Send makes a single dial-and-send attempt. gomail has no context support,
// so the attempt runs in a goroutine and the caller is released on timeout.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTMLBody)

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(gm) }()

	select {
	case err := <-done:
		if err != nil {
			return &DeliveryError{Err: err}
		}
		return nil
	case <-ctx.Done():
		return &DeliveryError{Err: ctx.Err()}
	}
}
