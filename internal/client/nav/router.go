// Package nav is the navigation guard: a three-state machine that refuses
// to enter the dashboard without a live session.
package nav

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/authsim/internal/client/session"
	"github.com/dmitrijs2005/authsim/internal/logging"
)

// Sessions is what the router needs from the session manager.
type Sessions interface {
	Restore(ctx context.Context) (*session.Session, error)
	Authenticated() bool
}

// Transition describes one completed navigation.
type Transition struct {
	From      State
	To        State
	Requested State
	// Redirected is set when the guard replaced Requested with login.
	Redirected bool
}

// Path is the canonical path of the state entered.
func (t Transition) Path() string { return t.To.Path() }

type Listener func(Transition)

type Router struct {
	mu        sync.Mutex
	state     State
	sessions  Sessions
	log       logging.Logger
	listeners []subscription
	nextID    int
}

type subscription struct {
	id int
	fn Listener
}

type Option func(*Router)

func WithLogger(l logging.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRouter starts in the login state. Call Init to resolve the real
// initial state from a persisted session.
func NewRouter(sessions Sessions, opts ...Option) *Router {
	r := &Router{
		state:    StateLogin,
		sessions: sessions,
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init restores the persisted session and enters the dashboard if it is
// live, login otherwise. A storage error still lands on login and is
// returned for reporting.
func (r *Router) Init(ctx context.Context) (State, error) {
	s, err := r.sessions.Restore(ctx)
	if err != nil || s == nil {
		return r.Goto(StateLogin), err
	}
	return r.Goto(StateDashboard), nil
}

// Goto moves to target. The dashboard without a live session and any
// unknown state both land on login without an error.
func (r *Router) Goto(target State) State {
	to := target
	redirected := false

	if !to.Valid() {
		to = StateLogin
		redirected = true
	} else if to.Protected() && !r.sessions.Authenticated() {
		to = StateLogin
		redirected = true
	}

	r.mu.Lock()
	from := r.state
	r.state = to
	listeners := make([]Listener, 0, len(r.listeners))
	for _, sub := range r.listeners {
		listeners = append(listeners, sub.fn)
	}
	r.mu.Unlock()

	if redirected {
		r.log.Debug(context.Background(), "navigation redirected", "requested", string(target), "to", string(to))
	}

	tr := Transition{From: from, To: to, Requested: target, Redirected: redirected}
	for _, l := range listeners {
		l(tr)
	}
	return to
}

// GotoPath navigates to the state behind path, as for back/forward.
func (r *Router) GotoPath(path string) State {
	return r.Goto(StateFromPath(path))
}

// Revalidate leaves the dashboard for login when the session has expired
// since it was entered. It reports whether a redirect happened.
func (r *Router) Revalidate() bool {
	if r.State() != StateDashboard || r.sessions.Authenticated() {
		return false
	}
	r.Goto(StateLogin)
	return true
}

func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Router) Path() string {
	return r.State().Path()
}

// OnStateChange registers l for every navigation and returns a function
// that removes it. Listeners run in registration order, outside the lock.
func (r *Router) OnStateChange(l Listener) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners = append(r.listeners, subscription{id: id, fn: l})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i, sub := range r.listeners {
				if sub.id == id {
					r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)
					return
				}
			}
		})
	}
}
