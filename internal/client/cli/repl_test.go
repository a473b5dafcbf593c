package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }

func (f *fakeExec) Register(ctx context.Context) error {
	f.calls = append(f.calls, "register")
	f.loggedIn = true
	return nil
}

func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}

func (f *fakeExec) Me(ctx context.Context) error { f.calls = append(f.calls, "me"); return nil }

func (f *fakeExec) Refresh(ctx context.Context) error {
	f.calls = append(f.calls, "refresh")
	return nil
}

func (f *fakeExec) Users(ctx context.Context) error { f.calls = append(f.calls, "users"); return nil }

func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}

func TestRunREPL_Dispatch(t *testing.T) {
	input := strings.Join([]string{"", "help", "login", "help", "me", "refresh", "users", "bogus", "logout", "exit", "me"}, "\n") + "\n"
	f := &fakeExec{}
	var out bytes.Buffer

	runREPL(context.Background(), f, func() string { return "s" }, bufio.NewReader(strings.NewReader(input)), &out)

	want := []string{"login", "me", "refresh", "users", "logout"}
	if strings.Join(f.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", f.calls, want)
	}
	for _, s := range []string{"register, login, exit", "me, refresh, users, logout, exit", "Unknown command: bogus", "Bye!"} {
		if !strings.Contains(out.String(), s) {
			t.Fatalf("output missing %q:\n%s", s, out.String())
		}
	}
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	f := &fakeExec{}
	var out bytes.Buffer

	runREPL(context.Background(), f, func() string { return "s" }, bufio.NewReader(strings.NewReader("register")), &out)

	if len(f.calls) != 1 || f.calls[0] != "register" {
		t.Fatalf("calls = %v", f.calls)
	}
}
