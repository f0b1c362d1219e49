// Package auth handles staff sign-in, the role records that open the admin panel and the
// capability checks made on every admin action.
package auth

import (
	"context"
	"errors"
	"fmt"
)

// Code is one entry of the identity provider's error taxonomy.
type Code string

const (
	CodeInvalidCredential Code = "auth/invalid-credential"
	CodeUserNotFound      Code = "auth/user-not-found"
	CodeWrongPassword     Code = "auth/wrong-password"
	CodeInvalidEmail      Code = "auth/invalid-email"
	CodeEmailInUse        Code = "auth/email-already-in-use"
	CodeWeakPassword      Code = "auth/weak-password"
	CodeUserDisabled      Code = "auth/user-disabled"
	CodeTooManyRequests   Code = "auth/too-many-requests"
	CodeInvalidToken      Code = "auth/invalid-id-token"
	CodeUnknown           Code = "auth/internal-error"
)

var ErrMissingCredentials = errors.New("auth: email and password are required")

// IdentityError is a failure reported by the identity provider.
type IdentityError struct {
	Code  Code
	Cause error
}

func (e *IdentityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return string(e.Code)
}

func (e *IdentityError) Unwrap() error { return e.Cause }

// CodeOf extracts the taxonomy code from err, CodeUnknown when there is none.
func CodeOf(err error) Code {
	var ie *IdentityError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return CodeUnknown
}

// SignInMessage is the text shown when signing in fails.
func SignInMessage(err error) string {
	if errors.Is(err, ErrMissingCredentials) {
		return "Por favor, ingresa tu correo y contraseña."
	}
	switch CodeOf(err) {
	case CodeInvalidCredential, CodeUserNotFound, CodeWrongPassword:
		return "El correo o la contraseña son incorrectos."
	case CodeInvalidEmail:
		return "El formato del correo electrónico no es válido."
	default:
		return "Ocurrió un error. Por favor, inténtalo de nuevo."
	}
}

// SignUpMessage is the text shown when creating a staff account fails.
func SignUpMessage(err error) string {
	switch CodeOf(err) {
	case CodeEmailInUse:
		return "El correo electrónico ya está en uso."
	case CodeWeakPassword:
		return "La contraseña debe tener al menos 6 caracteres."
	case CodeInvalidEmail:
		return "El correo electrónico no es válido."
	default:
		return "Error al crear el usuario."
	}
}

// Principal is an authenticated identity.
type Principal struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	IDToken string `json:"-"`
}

// Identity is the identity provider.
type Identity interface {
	SignIn(ctx context.Context, email, password string) (Principal, error)
	SignUp(ctx context.Context, email, password string) (Principal, error)
	// SignOut invalidates the tokens issued to uid.
	SignOut(ctx context.Context, uid string) error
	VerifyToken(ctx context.Context, idToken string) (Principal, error)
}
