package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Extend(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	Log(ctx context.Context, args []string) error
	Home(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the trackmeta CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF, on ctx cancellation or
// when the user types "exit" or "quit".
//
// Prompt & Commands
//
//	Not logged in:
//	  - help           - show available commands
//	  - signup         - create an account
//	  - login          - authenticate and start a session
//	  - status         - show the session state
//	  - log L MSG      - send a line to the server log
//	  - exit | quit    - leave the program
//
//	Logged in:
//	  - help           - show available commands
//	  - home           - open the dashboard
//	  - extend         - renew the session before it expires
//	  - status         - show the session state
//	  - log L MSG      - send a line to the server log
//	  - logout         - end the session
//	  - exit | quit    - leave the program
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("trackmeta %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: home, extend, status, log, logout, exit")
			} else {
				printlnFn("Available commands: signup, login, status, log, exit")
			}

		case "signup":
			_ = a.Signup(ctx)

		case "login":
			_ = a.Login(ctx)

		case "extend":
			_ = a.Extend(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "status":
			_ = a.Status(ctx)

		case "log":
			_ = a.Log(ctx, args)

		case "home":
			_ = a.Home(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
