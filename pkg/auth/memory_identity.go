package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MemoryIdentity is an in-process identity provider for the memory backend and tests. It
// follows the provider's rules: six character minimum passwords, unique emails and one
// undistinguished error for unknown emails and wrong passwords.
type MemoryIdentity struct {
	mu       sync.Mutex
	users    map[string]memUser
	tokens   map[string]Principal
	fail     []error
	validate *validator.Validate
}

type memUser struct {
	uid      string
	password string
}

func NewMemoryIdentity() *MemoryIdentity {
	return &MemoryIdentity{
		users:    map[string]memUser{},
		tokens:   map[string]Principal{},
		validate: validator.New(),
	}
}

// FailNext makes the next call fail with err.
func (m *MemoryIdentity) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = append(m.fail, err)
}

// takeFailure must be called with m.mu held.
func (m *MemoryIdentity) takeFailure() error {
	if len(m.fail) == 0 {
		return nil
	}
	err := m.fail[0]
	m.fail = m.fail[1:]
	return err
}

func (m *MemoryIdentity) issue(uid, email string) Principal {
	p := Principal{UID: uid, Email: email, IDToken: uuid.NewString()}
	m.tokens[p.IDToken] = p
	return p
}

func (m *MemoryIdentity) SignIn(_ context.Context, email, password string) (Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return Principal{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if m.validate.Var(email, "required,email") != nil {
		return Principal{}, &IdentityError{Code: CodeInvalidEmail}
	}
	u, ok := m.users[email]
	if !ok || u.password != password {
		return Principal{}, &IdentityError{Code: CodeInvalidCredential}
	}
	return m.issue(u.uid, email), nil
}

func (m *MemoryIdentity) SignUp(_ context.Context, email, password string) (Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return Principal{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if m.validate.Var(email, "required,email") != nil {
		return Principal{}, &IdentityError{Code: CodeInvalidEmail}
	}
	if _, exists := m.users[email]; exists {
		return Principal{}, &IdentityError{Code: CodeEmailInUse}
	}
	if len(password) < 6 {
		return Principal{}, &IdentityError{Code: CodeWeakPassword}
	}
	uid := strings.ReplaceAll(uuid.NewString(), "-", "")
	m.users[email] = memUser{uid: uid, password: password}
	return m.issue(uid, email), nil
}

func (m *MemoryIdentity) SignOut(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	for tok, p := range m.tokens {
		if p.UID == uid {
			delete(m.tokens, tok)
		}
	}
	return nil
}

func (m *MemoryIdentity) VerifyToken(_ context.Context, idToken string) (Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.tokens[idToken]
	if !ok {
		return Principal{}, &IdentityError{Code: CodeInvalidToken}
	}
	return p, nil
}

// Users counts the registered identities.
func (m *MemoryIdentity) Users() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}
