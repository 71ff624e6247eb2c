package notification

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// MailNotifier sends notifications over SMTP.
type MailNotifier struct {
	dialer *gomail.Dialer
	from   string
	send   func(...*gomail.Message) error
}

func NewMailNotifier(host string, port int, username, password, from string) *MailNotifier {
	dialer := gomail.NewDialer(host, port, username, password)
	return &MailNotifier{
		dialer: dialer,
		from:   from,
		send:   dialer.DialAndSend,
	}
}

func (n *MailNotifier) Send(ctx context.Context, message Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if message.Destination == "" {
		return fmt.Errorf("send %s: no destination", message.Kind)
	}
	if err := n.send(n.compose(message)); err != nil {
		return fmt.Errorf("send %s mail: %w", message.Kind, err)
	}
	return nil
}

func (n *MailNotifier) compose(message Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", message.Destination)
	m.SetHeader("Subject", message.Subject)
	m.SetHeader("X-Notification-Kind", message.Kind)
	m.SetBody("text/plain", message.Body)
	return m
}
