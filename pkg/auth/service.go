package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andrescris/storefront/pkg/docstore"
	"github.com/andrescris/storefront/pkg/models"
	"github.com/andrescris/storefront/pkg/notify"
	"github.com/andrescris/storefront/pkg/state"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var (
	ErrForbidden        = errors.New("auth: not allowed")
	ErrSelfModification = errors.New("auth: staff cannot change or delete their own role")
	ErrNotConfirmed     = errors.New("auth: destructive action not confirmed")
	ErrUserNotFound     = errors.New("auth: role record not found")
	ErrInvalidRole      = errors.New("auth: invalid role")
	ErrDemoSetupFailed  = errors.New("auth: could not set up demo account")
	ErrNotAuthenticated = errors.New("auth: not signed in")
)

// DemoAccounts are the seeded staff accounts that register themselves on first sign-in.
type DemoAccounts struct {
	AdminEmail  string
	SellerEmail string
	Password    string
}

func (d DemoAccounts) roleFor(email, password string) (models.Role, bool) {
	if d.Password == "" || password != d.Password {
		return "", false
	}
	switch email {
	case d.AdminEmail:
		return models.RoleAdmin, true
	case d.SellerEmail:
		return models.RoleSeller, true
	}
	return "", false
}

type Service struct {
	identity Identity
	app      *state.App
	sessions *Registry
	demo     DemoAccounts
	notifier notify.Notifier
	log      *logrus.Logger
	audit    *logrus.Logger
	validate *validator.Validate
	stopSync func()
}

func NewService(identity Identity, app *state.App, sessions *Registry, demo DemoAccounts, n notify.Notifier, log, audit *logrus.Logger) *Service {
	s := &Service{
		identity: identity,
		app:      app,
		sessions: sessions,
		demo:     demo,
		notifier: n,
		log:      log,
		audit:    audit,
		validate: validator.New(),
	}
	s.stopSync = app.Users.Subscribe(s.syncRoles)
	return s
}

func (s *Service) Close() {
	if s.stopSync != nil {
		s.stopSync()
	}
}

// syncRoles keeps signed-in sessions in step with the role records.
func (s *Service) syncRoles(records []state.Record[models.User]) {
	roles := make(map[string]models.Role, len(records))
	for _, r := range records {
		roles[r.DocID] = r.Data.Role
	}
	for _, sess := range s.sessions.all() {
		v := sess.View()
		if v.Status != SignedIn {
			continue
		}
		if role := roles[v.UID]; role != v.Role {
			_ = sess.signIn(Principal{UID: v.UID, Email: v.Email}, role)
		}
	}
}

// RoleOf reads the role record of uid. ok is false when there is none.
func (s *Service) RoleOf(ctx context.Context, uid string) (models.Role, bool, error) {
	snap, err := s.app.Store.GetDocument(ctx, models.UsersCollection, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read role of %s: %w", uid, err)
	}
	var u models.User
	if err := snap.DataTo(&u); err != nil {
		return "", false, fmt.Errorf("decode role of %s: %w", uid, err)
	}
	if !u.Role.Valid() {
		return "", false, nil
	}
	return u.Role, true, nil
}

func (s *Service) writeRole(ctx context.Context, p Principal, role models.Role) error {
	return s.app.Store.SetDocument(ctx, models.UsersCollection, p.UID, models.User{UID: p.UID, Email: p.Email, Role: role}, false)
}

// Login signs in and returns the new session. Missing credentials are rejected before calling
// the provider. The seeded demo accounts register themselves when they do not exist yet.
func (s *Service) Login(ctx context.Context, email, password string) (View, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return View{}, ErrMissingCredentials
	}

	sess := s.sessions.create()
	if err := sess.beginAuth(); err != nil {
		return View{}, err
	}
	ctx = notify.WithAudience(ctx, notify.SessionAudience(sess.View().ID))

	p, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		code := CodeOf(err)
		if role, ok := s.demo.roleFor(email, password); ok && (code == CodeInvalidCredential || code == CodeUserNotFound) {
			return s.registerDemo(ctx, sess, email, password, role)
		}
		_ = sess.signOut()
		s.sessions.remove(sess.View().ID)
		s.log.WithError(err).WithField("code", code).Info("sign-in rejected")
		return View{}, err
	}

	role, _, err := s.RoleOf(ctx, p.UID)
	if err != nil {
		// Sin registro legible no hay acceso al panel.
		s.log.WithError(err).WithField("uid", p.UID).Error("failed to read role record")
		role = ""
	}
	if err := sess.signIn(p, role); err != nil {
		return View{}, err
	}
	s.notifier.Success(ctx, "¡Bienvenido/a de nuevo!")
	s.audit.WithFields(logrus.Fields{"uid": p.UID, "role": role}).Info("signed in")
	return sess.View(), nil
}

func (s *Service) registerDemo(ctx context.Context, sess *Session, email, password string, role models.Role) (View, error) {
	fail := func(err error) (View, error) {
		_ = sess.signOut()
		s.sessions.remove(sess.View().ID)
		s.log.WithError(err).WithField("email", email).Error("demo account setup failed")
		return View{}, fmt.Errorf("%w: %v", ErrDemoSetupFailed, err)
	}
	p, err := s.identity.SignUp(ctx, email, password)
	if err != nil {
		return fail(err)
	}
	if err := s.writeRole(ctx, p, role); err != nil {
		return fail(err)
	}
	if err := sess.signIn(p, role); err != nil {
		return View{}, err
	}
	s.notifier.Success(ctx, fmt.Sprintf("Cuenta de %s creada. ¡Bienvenido/a!", role))
	s.audit.WithFields(logrus.Fields{"uid": p.UID, "role": role}).Info("demo account registered")
	return sess.View(), nil
}

// Logout ends the session and revokes the identity's tokens.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	v := sess.View()
	if v.UID != "" {
		if err := s.identity.SignOut(ctx, v.UID); err != nil {
			s.log.WithError(err).WithField("uid", v.UID).Error("sign-out failed")
			s.notifier.Error(ctx, "Error al cerrar sesión.")
			return err
		}
	}
	_ = sess.signOut()
	s.sessions.remove(sessionID)
	s.notifier.Success(ctx, "Sesión cerrada exitosamente.")
	return nil
}

// Session returns the current view of a session id.
func (s *Service) Session(sessionID string) (View, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return View{}, err
	}
	return sess.View(), nil
}

// Observe subscribes to the transitions of one session.
func (s *Service) Observe(sessionID string, fn func(View)) (func(), error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Observe(fn), nil
}

// Authenticate resolves a bearer ID token into a signed-in view without creating a session.
func (s *Service) Authenticate(ctx context.Context, idToken string) (View, error) {
	p, err := s.identity.VerifyToken(ctx, idToken)
	if err != nil {
		return View{}, err
	}
	role, _, err := s.RoleOf(ctx, p.UID)
	if err != nil {
		return View{}, err
	}
	return View{Status: SignedIn, UID: p.UID, Email: p.Email, Role: role}, nil
}

// --- Gestión de usuarios ---

// StaffForm creates a staff account.
type StaffForm struct {
	Email    string      `json:"email" validate:"required"`
	Password string      `json:"password" validate:"required"`
	Role     models.Role `json:"role" validate:"required,oneof=admin vendedor"`
}

// Users lists the role records.
func (s *Service) Users() []state.Record[models.User] { return s.app.Users.Records() }

// CreateStaff registers the identity and then writes its role record. If the second write fails
// the identity exists without panel access.
func (s *Service) CreateStaff(ctx context.Context, actor View, form StaffForm) (models.User, error) {
	if !actor.Can(CapManageUsers) {
		return models.User{}, ErrForbidden
	}
	form.Email = strings.TrimSpace(form.Email)
	if err := s.validate.Struct(form); err != nil {
		if form.Email == "" || form.Password == "" {
			return models.User{}, ErrMissingCredentials
		}
		return models.User{}, ErrInvalidRole
	}

	p, err := s.identity.SignUp(ctx, form.Email, form.Password)
	if err != nil {
		s.log.WithError(err).WithField("email", form.Email).Warn("staff sign-up failed")
		s.notifier.Error(ctx, SignUpMessage(err))
		return models.User{}, err
	}
	if err := s.writeRole(ctx, p, form.Role); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"uid": p.UID, "collection": models.UsersCollection, "op": "set"}).Error("failed to write role record")
		s.notifier.Error(ctx, "Error al crear el usuario.")
		return models.User{}, err
	}
	s.audit.WithFields(logrus.Fields{"uid": actor.UID, "created": p.UID, "role": form.Role}).Info("staff created")
	s.notifier.Success(ctx, "Usuario creado exitosamente.")
	return models.User{UID: p.UID, Email: p.Email, Role: form.Role}, nil
}

func (s *Service) target(actor View, docID string) (state.Record[models.User], error) {
	if !actor.Can(CapManageUsers) {
		return state.Record[models.User]{}, ErrForbidden
	}
	rec, ok := s.app.Users.Find(docID)
	if !ok {
		return state.Record[models.User]{}, ErrUserNotFound
	}
	if rec.DocID == actor.UID || rec.Data.UID == actor.UID {
		return state.Record[models.User]{}, ErrSelfModification
	}
	return rec, nil
}

// UpdateRole changes another staff member's role.
func (s *Service) UpdateRole(ctx context.Context, actor View, docID string, role models.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	rec, err := s.target(actor, docID)
	if err != nil {
		return err
	}
	if rec.Data.Role == role {
		return nil
	}
	if err := s.app.Users.Update(ctx, docID, map[string]interface{}{"role": string(role)}); err != nil {
		return err
	}
	s.audit.WithFields(logrus.Fields{"uid": actor.UID, "target": docID, "role": role}).Info("role updated")
	s.notifier.Success(ctx, "Rol de usuario actualizado.")
	return nil
}

// DeleteUser removes the role record, which closes the panel to that identity. The identity
// itself is left alone.
func (s *Service) DeleteUser(ctx context.Context, actor View, docID string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if _, err := s.target(actor, docID); err != nil {
		return err
	}
	if err := s.app.Users.Delete(ctx, docID); err != nil {
		return err
	}
	s.audit.WithFields(logrus.Fields{"uid": actor.UID, "target": docID}).Info("role record deleted")
	s.notifier.Error(ctx, "Usuario eliminado del panel.")
	return nil
}
