package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Signup(ctx context.Context) error
	Logout(ctx context.Context) error
	Dashboard(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Goto(ctx context.Context, target string) error
	ShowState(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the authsim CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF, when ctx is done, or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           - show available commands
//	  - signup         - create an account
//	  - login          - authenticate
//	  - goto <target>  - navigate to a state or path
//	  - state          - print the current state and path
//	  - exit | quit    - leave the program
//
//	Logged in:
//	  - help           - show available commands
//	  - dashboard      - open the dashboard
//	  - whoami         - print the current user
//	  - goto <target>  - navigate to a state or path
//	  - state          - print the current state and path
//	  - logout         - log out
//	  - exit | quit    - leave the program
//
// Handler errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("authsim %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		eof := err != nil

		if stop := dispatch(ctx, a, strings.Fields(line)); stop || eof {
			return
		}
	}
}

func dispatch(ctx context.Context, a execIface, parts []string) bool {
	if len(parts) == 0 {
		return false
	}
	cmd, args := parts[0], parts[1:]

	var err error
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn("Available commands: dashboard, whoami, goto <target>, state, logout, exit")
		} else {
			printlnFn("Available commands: signup, login, goto <target>, state, exit")
		}

	case "signup", "register":
		err = a.Signup(ctx)

	case "login":
		err = a.Login(ctx)

	case "logout":
		err = a.Logout(ctx)

	case "dashboard":
		err = a.Dashboard(ctx)

	case "whoami":
		err = a.WhoAmI(ctx)

	case "goto":
		if len(args) == 0 {
			printlnFn("Usage: goto <login|signup|dashboard|/path>")
			return false
		}
		err = a.Goto(ctx, args[0])

	case "state":
		err = a.ShowState(ctx)

	case "exit", "quit":
		printlnFn("Bye!")
		return true

	default:
		printlnFn("Unknown command:", cmd)
	}

	if err != nil {
		printlnFn("Error:", err)
	}
	return false
}
