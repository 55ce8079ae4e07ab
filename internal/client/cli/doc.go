// Package cli provides the interactive authsim command-line client.
//
// It renders the navigation state of an AuthService in a terminal: the
// login and signup screens prompt for their fields, the dashboard prints the
// current user. A background watcher rechecks the session periodically and
// sends the user back to login once it expires.
//
// Commands:
//   - login / signup / logout
//   - dashboard, whoami
//   - goto <login|signup|dashboard|/path>
//   - state, help, exit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits or
// input ends. See App, StartExpiryWatcher and runREPL for details.
package cli
