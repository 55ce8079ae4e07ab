package nav

import "strings"

// State is a navigation target.
type State string

const (
	StateLogin     State = "login"
	StateSignup    State = "signup"
	StateDashboard State = "dashboard"
)

var paths = map[State]string{
	StateLogin:     "/login",
	StateSignup:    "/signup",
	StateDashboard: "/dashboard",
}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	_, ok := paths[s]
	return ok
}

// Protected reports whether entering s needs a live session.
func (s State) Protected() bool {
	return s == StateDashboard
}

// Path returns the canonical path of s; unknown states map to /login.
func (s State) Path() string {
	if p, ok := paths[s]; ok {
		return p
	}
	return paths[StateLogin]
}

// ParseState accepts a state name in any case.
func ParseState(name string) (State, bool) {
	s := State(strings.ToLower(strings.TrimSpace(name)))
	return s, s.Valid()
}

// StateFromPath maps a path to its state. "/" and anything unknown map to
// login. A trailing slash is ignored.
func StateFromPath(path string) State {
	p := strings.TrimSpace(path)
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	for s, sp := range paths {
		if sp == p {
			return s
		}
	}
	return StateLogin
}
