package credentials

// DemoAccounts are the built-in sign-in pairs accepted in demo mode.
var DemoAccounts = map[string]string{
	"admin@example.com": "password",
	"test@example.com":  "test123",
}

// Verifier decides whether a plaintext password satisfies a stored digest.
type Verifier struct {
	digester Digester
	demo     bool
}

type Option func(*Verifier)

// WithDemoMode toggles acceptance of DemoAccounts regardless of digest.
func WithDemoMode(enabled bool) Option {
	return func(v *Verifier) {
		v.demo = enabled
	}
}

// NewVerifier returns a Verifier using d. Demo mode is on unless disabled
// with WithDemoMode(false).
func NewVerifier(d Digester, opts ...Option) *Verifier {
	if d == nil {
		d = Legacy{}
	}
	v := &Verifier{digester: d, demo: true}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify reports whether plaintext is the password of the account with the
// given email and stored digest.
func (v *Verifier) Verify(email, plaintext, digest string) bool {
	if v.demo {
		if pw, ok := DemoAccounts[email]; ok && pw == plaintext {
			return true
		}
	}
	return v.digester.Matches(plaintext, digest)
}

// Digest hashes a new password with the configured Digester.
func (v *Verifier) Digest(plaintext string) (string, error) {
	return v.digester.Digest(plaintext)
}

// DemoMode reports whether demo accounts are accepted.
func (v *Verifier) DemoMode() bool {
	return v.demo
}
