package notification

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"gopkg.in/gomail.v2"

	"github.com/notesafe/notesafe/internal/logging"
)

func TestMailNotifierComposesMessage(t *testing.T) {
	n := NewMailNotifier("smtp.test", 587, "user", "secret", "NoteSafe <no-reply@notesafe.test>")
	var sent []*gomail.Message
	n.send = func(msgs ...*gomail.Message) error {
		sent = append(sent, msgs...)
		return nil
	}

	err := n.Send(context.Background(), Message{
		Kind:        KindPasswordReset,
		Destination: "alice2024@gmail.com",
		Subject:     "Your password reset code",
		Body:        "Your code is 123456. It expires in 3:00.",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sent))
	}
	m := sent[0]
	if got := m.GetHeader("To"); len(got) != 1 || got[0] != "alice2024@gmail.com" {
		t.Fatalf("unexpected To header %v", got)
	}
	if got := m.GetHeader("X-Notification-Kind"); len(got) != 1 || got[0] != KindPasswordReset {
		t.Fatalf("unexpected kind header %v", got)
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}
	if !strings.Contains(buf.String(), "123456") {
		t.Fatalf("expected code in body")
	}
}

func TestMailNotifierErrors(t *testing.T) {
	n := NewMailNotifier("smtp.test", 587, "", "", "no-reply@notesafe.test")
	n.send = func(...*gomail.Message) error { return errors.New("connection refused") }

	if err := n.Send(context.Background(), Message{Kind: KindProfileUpdate}); err == nil {
		t.Fatalf("expected error without destination")
	}
	if err := n.Send(context.Background(), Message{Kind: KindProfileUpdate, Destination: "a@gmail.com"}); err == nil {
		t.Fatalf("expected transport error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Send(ctx, Message{Kind: KindProfileUpdate, Destination: "a@gmail.com"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoggerNotifier(t *testing.T) {
	n := NewLoggerNotifier(logging.Discard())
	if err := n.Send(context.Background(), Message{Kind: KindPasswordReset}); err != nil {
		t.Fatalf("send: %v", err)
	}
	var nilNotifier *LoggerNotifier
	if err := nilNotifier.Send(context.Background(), Message{}); err != nil {
		t.Fatalf("nil notifier should be a no-op: %v", err)
	}
}
