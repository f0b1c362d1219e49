package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/andrescris/storefront/pkg/docstore"
	"github.com/andrescris/storefront/pkg/logger"
	"github.com/andrescris/storefront/pkg/models"
	"github.com/andrescris/storefront/pkg/notify"
	"github.com/andrescris/storefront/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

type toasts struct {
	mu        sync.Mutex
	success   []string
	errors    []string
	audiences [][]string
}

func (t *toasts) Success(ctx context.Context, m string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.success = append(t.success, m)
	t.audiences = append(t.audiences, notify.AudienceFrom(ctx))
}

func (t *toasts) Error(ctx context.Context, m string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = append(t.errors, m)
	t.audiences = append(t.audiences, notify.AudienceFrom(ctx))
}

type fixture struct {
	store    *docstore.Memory
	identity *MemoryIdentity
	toasts   *toasts
	app      *state.App
	svc      *Service
}

var demo = DemoAccounts{AdminEmail: "admin@bombon.com", SellerEmail: "vendedor@bombon.com", Password: "bombon123"}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: docstore.NewMemory(), identity: NewMemoryIdentity(), toasts: &toasts{}}
	f.app = state.NewApp(f.store, f.toasts, logger.Discard())
	f.app.StartStaff(context.Background())
	t.Cleanup(f.app.Stop)
	f.svc = NewService(f.identity, f.app, NewRegistry(0), demo, f.toasts, logger.Discard(), logger.Discard())
	t.Cleanup(f.svc.Close)
	return f
}

func TestCapabilitiesAndTabs(t *testing.T) {
	assert.True(t, Can(models.RoleAdmin, CapManageUsers))
	assert.True(t, Can(models.RoleSeller, CapManageProducts))
	assert.False(t, Can(models.RoleSeller, CapDeleteProducts))
	assert.False(t, Can(models.RoleSeller, CapManageConfig))
	assert.False(t, Can("", CapViewPanel))

	assert.Equal(t, []string{"Productos", "Pedidos", "Usuarios", "Categorías", "Banners", "General"}, AvailableTabs(models.RoleAdmin))
	assert.Equal(t, []string{"Productos", "Pedidos"}, AvailableTabs(models.RoleSeller))
	assert.Empty(t, View{Status: SignedIn}.Tabs())
}

func TestSessionTransitions(t *testing.T) {
	s := newSession("s1")
	var seen []Status
	s.Observe(func(v View) { seen = append(seen, v.Status) })

	assert.ErrorIs(t, s.signIn(Principal{UID: "u"}, models.RoleAdmin), ErrInvalidTransition)
	require.NoError(t, s.beginAuth())
	assert.ErrorIs(t, s.beginAuth(), ErrInvalidTransition)
	require.NoError(t, s.signIn(Principal{UID: "u"}, models.RoleAdmin))
	require.NoError(t, s.signIn(Principal{UID: "u"}, models.RoleSeller))
	require.NoError(t, s.signOut())

	assert.Equal(t, []Status{Authenticating, SignedIn, SignedIn, SignedOut}, seen)
	assert.Equal(t, "s1", s.View().ID)
}

func TestLogin_MissingCredentialsNeverReachProvider(t *testing.T) {
	f := newFixture(t)
	f.identity.FailNext(errors.New("should not be called"))

	_, err := f.svc.Login(context.Background(), "  ", "x")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	_, err = f.svc.Login(context.Background(), "a@b.com", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	// el fallo programado sigue ahí
	_, err = f.identity.SignIn(context.Background(), "a@b.com", "secret1")
	assert.EqualError(t, err, "should not be called")
}

func TestLogin_UnknownNonDemoUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Login(context.Background(), "someone@bombon.com", "bombon123")
	require.Error(t, err)

	assert.Equal(t, "El correo o la contraseña son incorrectos.", SignInMessage(err))
	assert.Equal(t, 0, f.identity.Users())
	assert.Empty(t, f.svc.Users())
}

func TestLogin_DemoAccountRegistersItself(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.Login(ctx, "admin@bombon.com", "bombon123")
	require.NoError(t, err)
	assert.Equal(t, SignedIn, v.Status)
	assert.Equal(t, models.RoleAdmin, v.Role)
	assert.True(t, v.HasPanelAccess())
	assert.Contains(t, f.toasts.success, "Cuenta de admin creada. ¡Bienvenido/a!")
	assert.Contains(t, f.toasts.audiences, []string{notify.SessionAudience(v.ID)})

	role, ok, err := f.svc.RoleOf(ctx, v.UID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.RoleAdmin, role)

	// segunda vez: cuenta ya existe, entra normalmente
	v2, err := f.svc.Login(ctx, "admin@bombon.com", "bombon123")
	require.NoError(t, err)
	assert.Equal(t, v.UID, v2.UID)
	assert.Equal(t, 1, f.identity.Users())

	// contraseña equivocada para la cuenta demo: no se registra de nuevo
	_, err = f.svc.Login(ctx, "vendedor@bombon.com", "otra")
	assert.Equal(t, CodeInvalidCredential, CodeOf(err))
	assert.Equal(t, 1, f.identity.Users())
}

func TestLogin_IdentityWithoutRoleHasNoPanel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.identity.SignUp(ctx, "cliente@correo.com", "secreto1")
	require.NoError(t, err)

	v, err := f.svc.Login(ctx, "cliente@correo.com", "secreto1")
	require.NoError(t, err)
	assert.Equal(t, SignedIn, v.Status)
	assert.False(t, v.HasPanelAccess())
	assert.Empty(t, v.Tabs())
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Login(ctx, "vendedor@bombon.com", "bombon123")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, v.ID))
	_, err = f.svc.Session(v.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Contains(t, f.toasts.success, "Sesión cerrada exitosamente.")
}

func TestAuthenticateBearerToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Login(ctx, "admin@bombon.com", "bombon123")
	require.NoError(t, err)

	p, err := f.identity.SignIn(ctx, "admin@bombon.com", "bombon123")
	require.NoError(t, err)
	v, err := f.svc.Authenticate(ctx, p.IDToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, v.Role)

	_, err = f.svc.Authenticate(ctx, "bogus")
	assert.Equal(t, CodeInvalidToken, CodeOf(err))
}

func TestStaffManagement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, err := f.svc.Login(ctx, "admin@bombon.com", "bombon123")
	require.NoError(t, err)

	u, err := f.svc.CreateStaff(ctx, admin, StaffForm{Email: "nuevo@bombon.com", Password: "abcdef", Role: models.RoleSeller})
	require.NoError(t, err)
	rec, ok := f.app.Users.Find(u.UID)
	require.True(t, ok)
	assert.Equal(t, models.RoleSeller, rec.Data.Role)

	_, err = f.svc.CreateStaff(ctx, admin, StaffForm{Email: "nuevo@bombon.com", Password: "abcdef", Role: models.RoleSeller})
	assert.Equal(t, "El correo electrónico ya está en uso.", SignUpMessage(err))
	_, err = f.svc.CreateStaff(ctx, admin, StaffForm{Email: "otro@bombon.com", Password: "abc", Role: models.RoleSeller})
	assert.Equal(t, "La contraseña debe tener al menos 6 caracteres.", SignUpMessage(err))
	_, err = f.svc.CreateStaff(ctx, admin, StaffForm{Email: "no-es-correo", Password: "abcdef", Role: models.RoleSeller})
	assert.Equal(t, "El correo electrónico no es válido.", SignUpMessage(err))

	// un vendedor no gestiona usuarios
	seller, err := f.svc.Login(ctx, "nuevo@bombon.com", "abcdef")
	require.NoError(t, err)
	_, err = f.svc.CreateStaff(ctx, seller, StaffForm{Email: "x@bombon.com", Password: "abcdef", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrForbidden)

	// el administrador no puede tocarse a sí mismo
	assert.ErrorIs(t, f.svc.UpdateRole(ctx, admin, admin.UID, models.RoleSeller), ErrSelfModification)
	assert.ErrorIs(t, f.svc.DeleteUser(ctx, admin, admin.UID, true), ErrSelfModification)

	// cambio de rol: la sesión abierta del vendedor lo ve al instante
	require.NoError(t, f.svc.UpdateRole(ctx, admin, u.UID, models.RoleAdmin))
	sv, err := f.svc.Session(seller.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, sv.Role)

	assert.ErrorIs(t, f.svc.DeleteUser(ctx, admin, u.UID, false), ErrNotConfirmed)
	require.NoError(t, f.svc.DeleteUser(ctx, admin, u.UID, true))
	sv, err = f.svc.Session(seller.ID)
	require.NoError(t, err)
	assert.False(t, sv.HasPanelAccess())
	assert.Equal(t, 2, f.identity.Users())
}

func TestToolkitErrorMapping(t *testing.T) {
	cases := []struct {
		msg  string
		want Code
	}{
		{"INVALID_LOGIN_CREDENTIALS", CodeInvalidCredential},
		{"EMAIL_NOT_FOUND", CodeUserNotFound},
		{"WEAK_PASSWORD : Password should be at least 6 characters", CodeWeakPassword},
		{"EMAIL_EXISTS", CodeEmailInUse},
		{"SOMETHING_NEW", CodeUnknown},
	}
	for _, tc := range cases {
		err := toolkitError(&googleapi.Error{Code: 400, Message: tc.msg})
		assert.Equal(t, tc.want, CodeOf(err), tc.msg)
	}
	assert.Equal(t, CodeUnknown, CodeOf(toolkitError(errors.New("dial tcp: timeout"))))
	assert.Equal(t, "Ocurrió un error. Por favor, inténtalo de nuevo.", SignInMessage(toolkitError(errors.New("x"))))
}
