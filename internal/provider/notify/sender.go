// internal/provider/notify/sender.go
package notify

import (
	"context"
	"fmt"
	"math/rand"
	"net/smtp"
)

// Sender delivers one rendered notification over a channel.
type Sender interface {
	Channel() string
	Send(ctx context.Context, address, subject, body string) error
}

// SMTPSender delivers the email channel via a plain SMTP relay.
type SMTPSender struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

func (s *SMTPSender) Channel() string { return "email" }

func (s *SMTPSender) Send(ctx context.Context, address, subject, body string) error {
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.From, address, subject, body))

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}
	return smtp.SendMail(s.Host+":"+s.Port, auth, s.From, []string{address}, msg)
}

// MockSender simulates sending with 90% success. Used in dev mode and the
// sms channel until a gateway is wired in.
type MockSender struct {
	ChannelName string
}

func (m *MockSender) Channel() string { return m.ChannelName }

func (m *MockSender) Send(ctx context.Context, address, subject, body string) error {
	if rand.Float64() < 0.9 {
		return nil // success
	}
	return fmt.Errorf("mock sending failed")
}

var _ Sender = (*SMTPSender)(nil)
var _ Sender = (*MockSender)(nil)
