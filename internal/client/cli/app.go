package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/authsim/internal/client/identity"
	"github.com/dmitrijs2005/authsim/internal/client/nav"
	"github.com/dmitrijs2005/authsim/internal/client/services"
	"github.com/dmitrijs2005/authsim/internal/client/session"
	"github.com/dmitrijs2005/authsim/internal/logging"
)

// Service is the part of services.AuthService the CLI drives.
type Service interface {
	Login(ctx context.Context, email, password string) services.LoginResult
	Signup(ctx context.Context, username, email, password string) services.Result
	Logout(ctx context.Context) error
	CurrentUser() *identity.PublicUser
	Session() *session.Session
	State() nav.State
	Goto(target nav.State) nav.State
	GotoPath(path string) nav.State
	Revalidate(ctx context.Context) bool
	OnStateChange(l nav.Listener) func()
}

// App is the interactive terminal front end.
type App struct {
	svc           Service
	log           logging.Logger
	checkInterval time.Duration

	reader *bufio.Reader
	out    *lockedWriter
}

// lockedWriter serialises writes from the REPL, its prompts and the expiry
// watcher. Each message must reach it in a single Write.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// Option configures an App.
type Option func(*App)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.reader = bufio.NewReader(in)
		a.out = &lockedWriter{w: out}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

// NewApp builds an App around svc. checkInterval controls the expiry
// watcher; a non-positive value disables it.
func NewApp(svc Service, checkInterval time.Duration, opts ...Option) *App {
	a := &App{
		svc:           svc,
		log:           logging.Nop(),
		checkInterval: checkInterval,
		reader:        bufio.NewReader(os.Stdin),
		out:           &lockedWriter{w: os.Stdout},
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run prints the initial screen and blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := a.svc.OnStateChange(a.onTransition)
	defer unsubscribe()

	go a.StartExpiryWatcher(ctx, a.checkInterval)

	a.printf("Welcome to authsim CLI (type 'help' for commands)\n")
	if u := a.svc.CurrentUser(); u != nil && a.svc.State() == nav.StateDashboard {
		a.render(*u)
	} else {
		a.printf("Please log in or sign up.\n")
	}

	runREPL(ctx, a, a.status, a.reader)
}

// StartExpiryWatcher rechecks the session every interval until ctx is done.
// When the dashboard is shown for an expired session the user is moved to
// the login screen.
func (a *App) StartExpiryWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if a.svc.Revalidate(ctx) {
				a.printf("Your session has expired. Please log in again.\n")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.svc.CurrentUser() != nil
}

// status renders the prompt prefix, e.g. "(admin) /dashboard".
func (a *App) status() string {
	path := a.svc.State().Path()
	if u := a.svc.CurrentUser(); u != nil {
		return fmt.Sprintf("(%s) %s", u.Username, path)
	}
	return path
}

func (a *App) onTransition(t nav.Transition) {
	if t.Redirected && !t.Requested.Valid() {
		a.printf("Unknown page %q, redirected to %s\n", string(t.Requested), t.Path())
		return
	}
	if t.Redirected {
		a.printf("Access to %q denied, redirected to %s\n", string(t.Requested), t.Path())
		return
	}
	if t.From != t.To {
		a.log.Debug(context.Background(), "navigated", "from", string(t.From), "to", string(t.To))
	}
}

func (a *App) render(u identity.PublicUser) {
	var buf bytes.Buffer
	_ = renderDashboard(&buf, u)
	_, _ = a.out.Write(buf.Bytes())
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
