package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/authsim/internal/client/nav"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

// Login opens the login screen, prompts for email and password and submits
// them. On success the dashboard is rendered. Rejections are printed; only
// input errors are returned.
func (a *App) Login(ctx context.Context) error {
	a.svc.Goto(nav.StateLogin)

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	a.printf("Signing in...\n")
	res := a.svc.Login(ctx, email, password)
	a.printf("%s\n", res.Message)
	if res.Success && res.User != nil {
		a.render(*res.User)
	}
	return nil
}

// Signup opens the signup screen and prompts for username, email and
// password. A successful signup leaves the user on the login screen.
func (a *App) Signup(ctx context.Context) error {
	a.svc.Goto(nav.StateSignup)

	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	a.printf("Creating account...\n")
	res := a.svc.Signup(ctx, username, email, password)
	a.printf("%s\n", res.Message)
	if res.Success {
		a.printf("You can log in now.\n")
	}
	return nil
}

// Logout ends the session. The user lands on login even when clearing the
// stored token fails; that error is returned.
func (a *App) Logout(ctx context.Context) error {
	if err := a.svc.Logout(ctx); err != nil {
		return err
	}
	a.printf("Logged out.\n")
	return nil
}

// Dashboard navigates to the dashboard and renders it when the guard lets
// the user in.
func (a *App) Dashboard(ctx context.Context) error {
	if a.svc.Goto(nav.StateDashboard) != nav.StateDashboard {
		return nil
	}
	if u := a.svc.CurrentUser(); u != nil {
		a.render(*u)
	}
	return nil
}

// WhoAmI prints the current user and session expiry without navigating.
func (a *App) WhoAmI(ctx context.Context) error {
	s := a.svc.Session()
	if s == nil {
		a.printf("Not logged in.\n")
		return nil
	}
	a.printf("%s <%s>, session expires %s\n", s.User.Username, s.User.Email, s.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

// Goto navigates to a state name or a path such as /dashboard.
func (a *App) Goto(ctx context.Context, target string) error {
	var to nav.State
	if strings.HasPrefix(target, "/") {
		to = a.svc.GotoPath(target)
	} else {
		s, _ := nav.ParseState(target)
		to = a.svc.Goto(s)
	}

	if to == nav.StateDashboard {
		if u := a.svc.CurrentUser(); u != nil {
			a.render(*u)
		}
		return nil
	}
	a.printf("Now at %s\n", to.Path())
	return nil
}

// ShowState prints the current state and its path.
func (a *App) ShowState(ctx context.Context) error {
	s := a.svc.State()
	a.printf("%s (%s)\n", s, s.Path())
	return nil
}
