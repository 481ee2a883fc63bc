// Package form checks registration and login input. Every rule is evaluated and
// every failure reported, so a rendered form can mark all bad fields at once.
package form

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// credentialPattern is the character set shared by logins and passwords.
var credentialPattern = regexp.MustCompile(`^[A-Za-z0-9_\-.@!#$%^&*]+$`)

// RegisterForm is the body of POST /register.
type RegisterForm struct {
	Login    string `form:"login" json:"login" validate:"max=128,credential"`
	Name     string `form:"name" json:"name" validate:"max=128,display_name"`
	Password string `form:"password" json:"password" validate:"min=8,max=256,credential"`
}

// LoginForm is the body of POST /login. Only the shape of the input is checked
// here; whether the password matches is up to the caller.
type LoginForm struct {
	Login    string `form:"login" json:"login" validate:"credential"`
	Password string `form:"password" json:"password" validate:"credential"`
}

// fieldTags maps struct fields to the violation reported when any of their rules fail.
var fieldTags = map[string]Tag{
	"Login":    BadLogin,
	"Name":     BadName,
	"Password": BadPassword,
}

// Validator runs the form rules. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a validator whose display names may use letters of the
// given unicode scripts, for example "Latin" and "Cyrillic".
func NewValidator(scripts ...string) (*Validator, error) {
	namePattern, err := displayNamePattern(scripts)
	if err != nil {
		return nil, err
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("credential", func(fl validator.FieldLevel) bool {
		return credentialPattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}
	if err := v.RegisterValidation("display_name", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}
	return &Validator{validate: v}, nil
}

func displayNamePattern(scripts []string) (*regexp.Regexp, error) {
	if len(scripts) == 0 {
		return nil, errors.New("no scripts allowed for display names")
	}
	var classes strings.Builder
	for _, script := range scripts {
		script = strings.TrimSpace(script)
		if _, ok := unicode.Scripts[script]; !ok {
			return nil, fmt.Errorf("unknown unicode script %q", script)
		}
		classes.WriteString(`\p{` + script + `}`)
	}
	return regexp.Compile(`^[` + classes.String() + ` \-]+$`)
}

// Register checks a registration form. The uniqueness lookup runs even when
// other rules already failed; its error, if any, is returned as is.
func (v *Validator) Register(f *RegisterForm, exists func(login string) (bool, error)) (Violations, error) {
	violations := v.check(f)
	taken, err := exists(f.Login)
	if err != nil {
		return nil, err
	}
	if taken {
		violations = violations.Add(AlreadyExists)
	}
	return violations, nil
}

// Login checks only the character sets of a login form.
func (v *Validator) Login(f *LoginForm) Violations {
	return v.check(f)
}

// Password checks a new password against the registration rules.
func (v *Validator) Password(password string) Violations {
	return collect(v.validate.StructPartial(&RegisterForm{Password: password}, "Password"))
}

func (v *Validator) check(f any) Violations {
	return collect(v.validate.Struct(f))
}

func collect(err error) Violations {
	violations := Violations{}
	if err == nil {
		return violations
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		// only reachable with a non-struct argument
		panic(err)
	}
	for _, fe := range fieldErrors {
		if tag, ok := fieldTags[fe.StructField()]; ok {
			violations.Add(tag)
		}
	}
	return violations
}
