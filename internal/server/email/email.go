// Package email sends transactional messages. Only a console backend exists;
// a real provider plugs in behind Sender.
package email

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/accounts/internal/logging"
)

type Message struct {
	Subject   string
	Recipient string
	Body      string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ConsoleSender writes messages to the log instead of delivering them.
type ConsoleSender struct {
	logger logging.Logger
}

func NewConsoleSender(l logging.Logger) *ConsoleSender {
	return &ConsoleSender{logger: l.With("module", "email")}
}

func (s *ConsoleSender) Send(ctx context.Context, msg Message) error {
	if msg.Recipient == "" {
		return fmt.Errorf("email: empty recipient")
	}
	s.logger.Info(ctx, "sending email", "recipient", msg.Recipient, "subject", msg.Subject, "body", msg.Body)
	return nil
}

// Welcome builds the message sent after self-registration.
func Welcome(projectName, recipient string, fullName *string) Message {
	greeting := "Hello"
	if fullName != nil && *fullName != "" {
		greeting = "Hello " + *fullName
	}
	return Message{
		Subject:   "Welcome to " + projectName,
		Recipient: recipient,
		Body:      fmt.Sprintf("%s,\n\nyour %s account is ready. Sign in with %s.", greeting, projectName, recipient),
	}
}
