// Package form holds the field and form rules checked before any
// credential is submitted.
package form

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/dmitrijs2005/authsim/internal/common"
)

type Field string

const (
	FieldUsername Field = "username"
	FieldEmail    Field = "email"
	FieldPassword Field = "password"
)

type Kind string

const (
	KindLogin  Kind = "login"
	KindSignup Kind = "signup"
)

// Fields lists the fields of kind in the order they are checked.
func (k Kind) Fields() []Field {
	switch k {
	case KindLogin:
		return []Field{FieldEmail, FieldPassword}
	case KindSignup:
		return []Field{FieldUsername, FieldEmail, FieldPassword}
	default:
		return nil
	}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	MsgUsernameRequired = "Username is required"
	MsgEmailRequired    = "Email is required"
	MsgPasswordRequired = "Password is required"
	MsgUsernameShort    = "Username must be at least 3 characters long"
	MsgEmailInvalid     = "Please enter a valid email address"
	MsgPasswordShort    = "Password must be at least 6 characters long"
)

// Values are always checked trimmed.
var rules = map[Field][]validation.Rule{
	FieldUsername: {
		validation.Required.Error(MsgUsernameRequired),
		validation.RuneLength(3, 0).Error(MsgUsernameShort),
	},
	FieldEmail: {
		validation.Required.Error(MsgEmailRequired),
		validation.Match(emailPattern).Error(MsgEmailInvalid),
	},
	FieldPassword: {
		validation.Required.Error(MsgPasswordRequired),
		validation.RuneLength(6, 0).Error(MsgPasswordShort),
	},
}

// ValidateField checks a single field, as on blur. The returned error
// message is the one to show next to the field.
func ValidateField(f Field, value string) error {
	r, ok := rules[f]
	if !ok {
		return fmt.Errorf("%w: unknown field %q", common.ErrValidation, f)
	}
	return validation.Validate(strings.TrimSpace(value), r...)
}

// Values is the raw input of a login or signup form.
type Values struct {
	Username string
	Email    string
	Password string
}

func (v Values) get(f Field) string {
	switch f {
	case FieldUsername:
		return v.Username
	case FieldEmail:
		return v.Email
	case FieldPassword:
		return v.Password
	}
	return ""
}

// Result of a form-level check.
type Result struct {
	// Errors holds every failing field. Empty when the form is valid.
	Errors validation.Errors
	// First is the first failing field in form order and Message its reason.
	First   Field
	Message string
}

func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Invalid reports whether f failed.
func (r Result) Invalid(f Field) bool {
	_, ok := r.Errors[string(f)]
	return ok
}

// Err returns nil for a valid form and an ErrValidation carrying the first
// reason otherwise.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return fmt.Errorf("%w: %s", common.ErrValidation, r.Message)
}

// ValidateForm checks every field of kind. All failing fields are marked;
// the first one in form order provides the message.
func ValidateForm(kind Kind, v Values) Result {
	res := Result{Errors: validation.Errors{}}

	fields := kind.Fields()
	if fields == nil {
		res.Errors["form"] = fmt.Errorf("unknown form %q", kind)
		res.Message = res.Errors["form"].Error()
		return res
	}

	for _, f := range fields {
		err := ValidateField(f, v.get(f))
		if err == nil {
			continue
		}
		res.Errors[string(f)] = err
		if res.Message == "" {
			res.First = f
			res.Message = err.Error()
		}
	}
	return res
}
