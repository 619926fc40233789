package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
	failWith error
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	return f.failWith
}

func (f *fakeExec) isLoggedIn() bool                     { return f.loggedIn }
func (f *fakeExec) Register(ctx context.Context) error   { return f.record("register") }
func (f *fakeExec) WhoAmI(ctx context.Context) error     { return f.record("whoami") }
func (f *fakeExec) List(ctx context.Context) error       { return f.record("list") }
func (f *fakeExec) Add(ctx context.Context) error        { return f.record("add") }
func (f *fakeExec) MfaSetup(ctx context.Context) error   { return f.record("mfa-setup") }
func (f *fakeExec) MfaEnable(ctx context.Context) error  { return f.record("mfa-enable") }
func (f *fakeExec) MfaDisable(ctx context.Context) error { return f.record("mfa-disable") }
func (f *fakeExec) Strength(ctx context.Context) error   { return f.record("strength") }
func (f *fakeExec) Breach(ctx context.Context) error     { return f.record("breach") }
func (f *fakeExec) Stats(ctx context.Context) error      { return f.record("stats") }
func (f *fakeExec) Backup(ctx context.Context) error     { return f.record("backup") }
func (f *fakeExec) Activity(ctx context.Context) error   { return f.record("activity") }

func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.record("login")
}

func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}

func (f *fakeExec) Show(ctx context.Context, id string) error   { return f.record("show " + id) }
func (f *fakeExec) Edit(ctx context.Context, id string) error   { return f.record("edit " + id) }
func (f *fakeExec) Delete(ctx context.Context, id string) error { return f.record("delete " + id) }

func runScript(t *testing.T, f *fakeExec, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	r := bufio.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	runREPL(context.Background(), f, func() string { return "" }, r, &out)
	return out.String()
}

func TestRunREPL_GatesCommandsOnLogin(t *testing.T) {
	f := &fakeExec{}
	out := runScript(t, f,
		"list",
		"strength",
		"login",
		"list",
		"show e1",
		"delete",
		"mfa-setup",
		"logout",
		"backup",
		"exit",
		"list",
	)

	want := []string{"strength", "login", "list", "show e1", "delete ", "mfa-setup", "logout"}
	if strings.Join(f.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %q, want %q", f.calls, want)
	}
	if strings.Count(out, "Please log in first") != 2 {
		t.Fatalf("expected two login prompts, got output:\n%s", out)
	}
	if !strings.Contains(out, "Bye!") {
		t.Fatalf("missing goodbye in output:\n%s", out)
	}
}

func TestRunREPL_HelpDependsOnState(t *testing.T) {
	out := runScript(t, &fakeExec{}, "help")
	if strings.Contains(out, "mfa-setup") || !strings.Contains(out, "register") {
		t.Fatalf("logged-out help wrong:\n%s", out)
	}

	out = runScript(t, &fakeExec{loggedIn: true}, "help")
	for _, name := range []string{"list", "add", "show", "edit", "delete", "mfa-setup", "mfa-enable", "mfa-disable", "backup", "stats", "activity", "exit"} {
		if !strings.Contains(out, name) {
			t.Fatalf("help misses %q:\n%s", name, out)
		}
	}
}

func TestRunREPL_UnknownAndErrors(t *testing.T) {
	f := &fakeExec{loggedIn: true, failWith: errors.New("boom")}
	out := runScript(t, f, "", "frobnicate", "list")

	if !strings.Contains(out, "Unknown command: frobnicate") {
		t.Fatalf("missing unknown command notice:\n%s", out)
	}
	if !strings.Contains(out, "Error: boom") {
		t.Fatalf("handler error not reported:\n%s", out)
	}
}

func TestRunREPL_StopsOnEOFAndCancel(t *testing.T) {
	f := &fakeExec{}
	runScript(t, f)
	if len(f.calls) != 0 {
		t.Fatalf("unexpected calls %v", f.calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	runREPL(ctx, f, func() string { return "" }, bufio.NewReader(strings.NewReader("register\n")), &out)
	if len(f.calls) != 0 {
		t.Fatalf("cancelled REPL ran %v", f.calls)
	}
}
