package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// FirebaseIdentity signs users in with the Identity Toolkit REST API (email and password) and
// uses the Admin SDK for token checks and revocation.
type FirebaseIdentity struct {
	toolkit *identitytoolkit.Service
	admin   *fbauth.Client
}

func NewFirebaseIdentity(ctx context.Context, apiKey string, admin *fbauth.Client) (*FirebaseIdentity, error) {
	if apiKey == "" {
		return nil, errors.New("FIREBASE_API_KEY is required for password sign-in")
	}
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create identity toolkit client: %w", err)
	}
	return &FirebaseIdentity{toolkit: svc, admin: admin}, nil
}

func (f *FirebaseIdentity) SignIn(ctx context.Context, email, password string) (Principal, error) {
	resp, err := f.toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return Principal{}, toolkitError(err)
	}
	return Principal{UID: resp.LocalId, Email: resp.Email, IDToken: resp.IdToken}, nil
}

func (f *FirebaseIdentity) SignUp(ctx context.Context, email, password string) (Principal, error) {
	resp, err := f.toolkit.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return Principal{}, toolkitError(err)
	}
	return Principal{UID: resp.LocalId, Email: resp.Email, IDToken: resp.IdToken}, nil
}

func (f *FirebaseIdentity) SignOut(ctx context.Context, uid string) error {
	if err := f.admin.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("revoke tokens for %s: %w", uid, err)
	}
	return nil
}

func (f *FirebaseIdentity) VerifyToken(ctx context.Context, idToken string) (Principal, error) {
	tok, err := f.admin.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return Principal{}, &IdentityError{Code: CodeInvalidToken, Cause: err}
	}
	email, _ := tok.Claims["email"].(string)
	return Principal{UID: tok.UID, Email: email, IDToken: idToken}, nil
}

// El API REST responde con mensajes como "INVALID_PASSWORD" o
// "WEAK_PASSWORD : Password should be at least 6 characters".
var toolkitCodes = map[string]Code{
	"INVALID_LOGIN_CREDENTIALS":   CodeInvalidCredential,
	"EMAIL_NOT_FOUND":             CodeUserNotFound,
	"INVALID_PASSWORD":            CodeWrongPassword,
	"INVALID_EMAIL":               CodeInvalidEmail,
	"EMAIL_EXISTS":                CodeEmailInUse,
	"WEAK_PASSWORD":               CodeWeakPassword,
	"USER_DISABLED":               CodeUserDisabled,
	"TOO_MANY_ATTEMPTS_TRY_LATER": CodeTooManyRequests,
}

func toolkitError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return &IdentityError{Code: CodeUnknown, Cause: err}
	}
	key := strings.TrimSpace(strings.SplitN(gerr.Message, ":", 2)[0])
	code, ok := toolkitCodes[key]
	if !ok {
		code = CodeUnknown
	}
	return &IdentityError{Code: code, Cause: err}
}
