package email

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/accounts/internal/logging"
)

func TestConsoleSender_Send(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSender(logging.New(&buf, "info", "text"))

	err := s.Send(context.Background(), Message{Subject: "Hi", Recipient: "a@x.com", Body: "body"})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"module=email", "recipient=a@x.com", "subject=Hi"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in log output:\n%s", want, out)
		}
	}
}

func TestConsoleSender_EmptyRecipient(t *testing.T) {
	s := NewConsoleSender(logging.Discard())
	if err := s.Send(context.Background(), Message{Subject: "x"}); err == nil {
		t.Fatal("expected error for empty recipient")
	}
}

func TestWelcome(t *testing.T) {
	name := "Alice"
	m := Welcome("Accounts", "alice@example.com", &name)
	if m.Recipient != "alice@example.com" || m.Subject != "Welcome to Accounts" {
		t.Fatalf("unexpected message %+v", m)
	}
	if !strings.HasPrefix(m.Body, "Hello Alice,") {
		t.Fatalf("unexpected body %q", m.Body)
	}

	if anon := Welcome("Accounts", "b@x.com", nil); !strings.HasPrefix(anon.Body, "Hello,") {
		t.Fatalf("unexpected body %q", anon.Body)
	}
}
