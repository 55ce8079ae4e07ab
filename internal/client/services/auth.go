// Package services contains the application services used by the authsim
// CLI. This file defines the authentication façade: login, signup, logout,
// current user and guarded navigation.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/authsim/internal/client/credentials"
	"github.com/dmitrijs2005/authsim/internal/client/form"
	"github.com/dmitrijs2005/authsim/internal/client/identity"
	"github.com/dmitrijs2005/authsim/internal/client/metrics"
	"github.com/dmitrijs2005/authsim/internal/client/nav"
	"github.com/dmitrijs2005/authsim/internal/client/session"
	"github.com/dmitrijs2005/authsim/internal/client/store"
	"github.com/dmitrijs2005/authsim/internal/client/token"
	"github.com/dmitrijs2005/authsim/internal/common"
	"github.com/dmitrijs2005/authsim/internal/logging"
	"github.com/dmitrijs2005/authsim/internal/timex"
)

// Messages shown to the user.
const (
	MsgLoginSuccess       = "Login successful! Redirecting..."
	MsgSignupSuccess      = "Account created successfully"
	MsgInvalidCredentials = "Invalid email or password"
	MsgGenericError       = "An error occurred. Please try again."
	MsgCancelled          = "Request cancelled"
)

// Default simulated network delays.
const (
	DefaultLoginDelay  = 1500 * time.Millisecond
	DefaultSignupDelay = 2000 * time.Millisecond
)

// Metric outcomes.
const (
	outcomeSuccess     = "success"
	outcomeInvalidForm = "invalid_form"
	outcomeInvalidCred = "invalid_credentials"
	outcomeConflict    = "conflict"
	outcomeError       = "error"
	outcomeCancelled   = "cancelled"
)

// Result is the outcome of a submit.
type Result struct {
	Success bool
	Message string
	// Field names the offending input for validation and conflict failures.
	Field form.Field
	// Form carries per-field details when validation failed.
	Form form.Result
	// State is the navigation state after the call.
	State nav.State
	// Err is nil on success and otherwise matches one of the common sentinels
	// or context errors.
	Err error
	// Shared is set when the result came from an identical submit that was
	// already in flight.
	Shared bool
}

type LoginResult struct {
	Result
	User *identity.PublicUser
}

// AuthService composes the identity store, verifier, session manager and
// navigation guard. One instance serves one storage area; construct it
// explicitly and Close it at teardown.
type AuthService struct {
	kv       store.Store
	users    *identity.Store
	verifier *credentials.Verifier
	sessions *session.Manager
	router   *nav.Router

	clock   timex.Clock
	log     logging.Logger
	metrics *metrics.Metrics

	loginDelay  time.Duration
	signupDelay time.Duration

	inflight flights
}

type options struct {
	clock       timex.Clock
	log         logging.Logger
	metrics     *metrics.Metrics
	loginDelay  time.Duration
	signupDelay time.Duration
	ttl         time.Duration
	signer      token.Signer
	digester    credentials.Digester
	demoMode    bool
}

type Option func(*options)

func WithClock(c timex.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithDelays sets the simulated network delay of login and signup.
// Zero disables the delay.
func WithDelays(login, signup time.Duration) Option {
	return func(o *options) {
		o.loginDelay = max(login, 0)
		o.signupDelay = max(signup, 0)
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

func WithSigner(s token.Signer) Option {
	return func(o *options) { o.signer = s }
}

func WithDigester(d credentials.Digester) Option {
	return func(o *options) { o.digester = d }
}

func WithDemoMode(enabled bool) Option {
	return func(o *options) { o.demoMode = enabled }
}

// NewAuthService wires every component on top of kv.
func NewAuthService(kv store.Store, opts ...Option) *AuthService {
	o := options{
		clock:       timex.SystemClock{},
		log:         logging.Nop(),
		loginDelay:  DefaultLoginDelay,
		signupDelay: DefaultSignupDelay,
		ttl:         token.DefaultTTL,
		signer:      token.PlaceholderSigner{},
		digester:    credentials.Legacy{},
		demoMode:    true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	codec := token.NewCodec(
		token.WithTTL(o.ttl),
		token.WithClock(o.clock),
		token.WithSigner(o.signer),
	)
	sessions := session.NewManager(kv, codec,
		session.WithClock(o.clock),
		session.WithLogger(o.log.With("component", "session")),
		session.WithRestoreHook(func(outcome session.RestoreOutcome) {
			o.metrics.Restore(string(outcome))
		}),
	)

	return &AuthService{
		kv:          kv,
		users:       identity.NewStore(kv),
		verifier:    credentials.NewVerifier(o.digester, credentials.WithDemoMode(o.demoMode)),
		sessions:    sessions,
		router:      nav.NewRouter(sessions, nav.WithLogger(o.log.With("component", "nav"))),
		clock:       o.clock,
		log:         o.log.With("component", "auth"),
		metrics:     o.metrics,
		loginDelay:  o.loginDelay,
		signupDelay: o.signupDelay,
	}
}

// Init seeds the demo accounts if needed and resolves the initial
// navigation state from a persisted session.
func (a *AuthService) Init(ctx context.Context) (nav.State, error) {
	seeded, err := a.users.Seed(ctx)
	if err != nil {
		a.log.Error(ctx, "seeding users failed", "error", err)
		return a.router.Goto(nav.StateLogin), err
	}
	if seeded {
		a.log.Info(ctx, "demo users seeded")
	}

	state, err := a.router.Init(ctx)
	if err != nil {
		a.log.Error(ctx, "session restore failed", "error", err)
	}
	return state, err
}

// Login validates the form, waits the simulated delay, verifies the
// credentials and starts a session. Identical concurrent submits share one
// execution. Cancelling ctx before the session is written leaves no trace.
func (a *AuthService) Login(ctx context.Context, email, password string) LoginResult {
	email = strings.TrimSpace(email)

	fr := form.ValidateForm(form.KindLogin, form.Values{Email: email, Password: password})
	if !fr.Valid() {
		a.metrics.Login(outcomeInvalidForm)
		return LoginResult{Result: a.invalidForm(fr)}
	}

	v, shared, ok := a.inflight.do(ctx, submitKey("login", email, password), func(ctx context.Context) any {
		return a.login(ctx, email, password)
	})
	if !ok {
		return LoginResult{Result: a.cancelled(ctx.Err())}
	}
	res := v.(LoginResult)
	res.Shared = shared
	return res
}

func (a *AuthService) login(ctx context.Context, email, password string) LoginResult {
	started := a.clock.Now()
	defer func() {
		a.metrics.ObserveSubmit("login", a.clock.Now().Sub(started))
	}()

	if err := sleep(ctx, a.loginDelay); err != nil {
		a.metrics.Login(outcomeCancelled)
		return LoginResult{Result: a.cancelled(err)}
	}

	user, err := a.users.FindByEmail(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		return a.loginRejected(ctx)
	}
	if err != nil {
		a.metrics.Login(outcomeError)
		return LoginResult{Result: a.failed(ctx, "login", err)}
	}

	if !a.verifier.Verify(email, password, user.PasswordDigest) {
		return a.loginRejected(ctx)
	}

	if err := ctx.Err(); err != nil {
		a.metrics.Login(outcomeCancelled)
		return LoginResult{Result: a.cancelled(err)}
	}

	s, err := a.sessions.Start(ctx, user.Public())
	if err != nil {
		a.metrics.Login(outcomeError)
		return LoginResult{Result: a.failed(ctx, "login", err)}
	}

	a.metrics.Login(outcomeSuccess)
	a.log.Info(ctx, "login succeeded", "user_id", s.User.ID)

	u := s.User
	return LoginResult{
		Result: Result{
			Success: true,
			Message: MsgLoginSuccess,
			State:   a.router.Goto(nav.StateDashboard),
		},
		User: &u,
	}
}

func (a *AuthService) loginRejected(ctx context.Context) LoginResult {
	a.metrics.Login(outcomeInvalidCred)
	a.log.Info(ctx, "login rejected")
	return LoginResult{Result: Result{
		Message: MsgInvalidCredentials,
		State:   a.router.State(),
		Err:     common.ErrInvalidCredentials,
	}}
}

// Signup validates the form, waits the simulated delay and inserts a new
// user. On success it navigates to login; no session is started.
func (a *AuthService) Signup(ctx context.Context, username, email, password string) Result {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	fr := form.ValidateForm(form.KindSignup, form.Values{Username: username, Email: email, Password: password})
	if !fr.Valid() {
		a.metrics.Signup(outcomeInvalidForm)
		return a.invalidForm(fr)
	}

	v, shared, ok := a.inflight.do(ctx, submitKey("signup", username, email, password), func(ctx context.Context) any {
		return a.signup(ctx, username, email, password)
	})
	if !ok {
		return a.cancelled(ctx.Err())
	}
	res := v.(Result)
	res.Shared = shared
	return res
}

func (a *AuthService) signup(ctx context.Context, username, email, password string) Result {
	started := a.clock.Now()
	defer func() {
		a.metrics.ObserveSubmit("signup", a.clock.Now().Sub(started))
	}()

	if err := sleep(ctx, a.signupDelay); err != nil {
		a.metrics.Signup(outcomeCancelled)
		return a.cancelled(err)
	}

	digest, err := a.verifier.Digest(password)
	if err != nil {
		a.metrics.Signup(outcomeError)
		return a.failed(ctx, "signup", err)
	}

	u := identity.NewUser(username, email, digest, a.clock.Now())
	err = a.users.Insert(ctx, u)

	var conflict *identity.ConflictError
	switch {
	case errors.As(err, &conflict):
		a.metrics.Signup(outcomeConflict)
		a.log.Info(ctx, "signup rejected", "field", conflict.Field)
		return Result{
			Message: conflict.Error(),
			Field:   form.Field(conflict.Field),
			State:   a.router.State(),
			Err:     err,
		}
	case err != nil:
		a.metrics.Signup(outcomeError)
		return a.failed(ctx, "signup", err)
	}

	a.metrics.Signup(outcomeSuccess)
	a.log.Info(ctx, "user created", "user_id", u.ID)

	return Result{
		Success: true,
		Message: MsgSignupSuccess,
		State:   a.router.Goto(nav.StateLogin),
	}
}

// Logout ends the session and returns to login. Navigation happens even
// when deleting the persisted token fails.
func (a *AuthService) Logout(ctx context.Context) error {
	err := a.sessions.End(ctx)
	a.router.Goto(nav.StateLogin)
	if err != nil {
		a.log.Error(ctx, "logout failed to clear token", "error", err)
	}
	return err
}

// CurrentUser returns the user of the live session, or nil.
func (a *AuthService) CurrentUser() *identity.PublicUser {
	s := a.sessions.Current()
	if s == nil {
		return nil
	}
	u := s.User
	return &u
}

// Session returns the live session, or nil.
func (a *AuthService) Session() *session.Session {
	return a.sessions.Current()
}

func (a *AuthService) Authenticated() bool {
	return a.sessions.Authenticated()
}

func (a *AuthService) Goto(target nav.State) nav.State {
	return a.router.Goto(target)
}

func (a *AuthService) GotoPath(path string) nav.State {
	return a.router.GotoPath(path)
}

func (a *AuthService) State() nav.State {
	return a.router.State()
}

// Revalidate forces login when the dashboard is shown for an expired
// session. It reports whether that happened.
func (a *AuthService) Revalidate(ctx context.Context) bool {
	if !a.router.Revalidate() {
		return false
	}
	a.log.Info(ctx, "session expired")
	return true
}

func (a *AuthService) OnStateChange(l nav.Listener) func() {
	return a.router.OnStateChange(l)
}

// Close releases the underlying store.
func (a *AuthService) Close() error {
	return a.kv.Close()
}

func (a *AuthService) invalidForm(fr form.Result) Result {
	return Result{
		Message: fr.Message,
		Field:   fr.First,
		Form:    fr,
		State:   a.router.State(),
		Err:     fr.Err(),
	}
}

func (a *AuthService) cancelled(err error) Result {
	return Result{
		Message: MsgCancelled,
		State:   a.router.State(),
		Err:     err,
	}
}

func (a *AuthService) failed(ctx context.Context, action string, err error) Result {
	a.log.Error(ctx, action+" failed", "error", err)
	return Result{
		Message: MsgGenericError,
		State:   a.router.State(),
		Err:     err,
	}
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
