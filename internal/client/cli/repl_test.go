package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls   []string
	logArgs []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Signup(ctx context.Context) error {
	f.calls = append(f.calls, "signup")
	return nil
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Extend(ctx context.Context) error {
	f.calls = append(f.calls, "extend")
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) Status(ctx context.Context) error {
	f.calls = append(f.calls, "status")
	return nil
}
func (f *fakeExec) Log(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "log")
	f.logArgs = args
	return nil
}
func (f *fakeExec) Home(ctx context.Context) error { f.calls = append(f.calls, "home"); return nil }

func silencePrint(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, 0, len(a))
		for _, v := range a {
			if s, ok := v.(string); ok {
				parts = append(parts, s)
			}
		}
		lines = append(lines, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &lines
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	silencePrint(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"signup",
		"login",
		"help",
		"home",
		"status",
		"extend",
		"log warn disk almost full",
		"logout",
		"foobar",
		"exit",
		"login",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewScanner(input))

	assert.Equal(t, []string{"signup", "login", "home", "status", "extend", "log", "logout"}, exec.calls)
	assert.Equal(t, []string{"warn", "disk", "almost", "full"}, exec.logArgs)
	assert.False(t, exec.loggedIn)
}

func TestRunREPL_PromptAndUnknown(t *testing.T) {
	lines := silencePrint(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "(/)" }, bufio.NewScanner(strings.NewReader("\nbogus\nquit\n")))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *lines, "trackmeta (/)> ")
	assert.Contains(t, *lines, "Unknown command: bogus")
	assert.Equal(t, "Bye!", (*lines)[len(*lines)-1])
}

func TestRunREPL_HelpDependsOnLogin(t *testing.T) {
	lines := silencePrint(t)

	runREPL(context.Background(), &fakeExec{}, func() string { return "" }, bufio.NewScanner(strings.NewReader("help\n")))
	assert.Contains(t, *lines, "Available commands: signup, login, status, log, exit")

	*lines = nil
	runREPL(context.Background(), &fakeExec{loggedIn: true}, func() string { return "" }, bufio.NewScanner(strings.NewReader("help\n")))
	assert.Contains(t, *lines, "Available commands: home, extend, status, log, logout, exit")
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	silencePrint(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	runREPL(ctx, exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("status\n")))
	assert.Empty(t, exec.calls)
}
