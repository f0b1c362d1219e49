package Handlers

import (
	"errors"
	"net/http"

	"github.com/andrescris/storefront/pkg/auth"
	"github.com/andrescris/storefront/pkg/cart"
	"github.com/andrescris/storefront/pkg/catalog"
	"github.com/andrescris/storefront/pkg/middleware"
	"github.com/andrescris/storefront/pkg/notify"
	"github.com/andrescris/storefront/pkg/orders"
	"github.com/andrescris/storefront/pkg/realtime"
	"github.com/andrescris/storefront/pkg/state"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CartHeader carries the visitor's cart id.
const CartHeader = "X-Cart-ID"

// Handler agrupa los servicios que usan las rutas.
type Handler struct {
	App     *state.App
	Catalog *catalog.Service
	Carts   *cart.Sessions
	Pricing cart.Pricing
	Orders  *orders.Service
	Auth    *auth.Service
	Toasts  *notify.Hub
	Live    *realtime.Hub
	Log     *logrus.Logger
}

// statusFor traduce los errores de dominio a códigos HTTP.
func statusFor(err error) int {
	var identityErr *auth.IdentityError
	switch {
	case orders.IsValidation(err), catalog.IsValidation(err),
		errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrUnavailable),
		errors.Is(err, cart.ErrSelectionRequired),
		errors.Is(err, cart.ErrVariantNotOffered),
		errors.Is(err, catalog.ErrDuplicateLabel),
		errors.Is(err, catalog.ErrUnknownLabel),
		errors.Is(err, catalog.ErrUnknownOp):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, auth.ErrSelfModification):
		return http.StatusForbidden
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, orders.ErrNotFound),
		errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrSessionNotFound),
		errors.Is(err, cart.ErrLineNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrNotConfirmed), errors.Is(err, orders.ErrNotConfirmed),
		errors.Is(err, auth.ErrNotConfirmed):
		return http.StatusPreconditionRequired
	case errors.Is(err, auth.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrDemoSetupFailed), errors.Is(err, catalog.ErrUploadFailed):
		return http.StatusBadGateway
	case errors.As(err, &identityErr):
		switch identityErr.Code {
		case auth.CodeInvalidCredential, auth.CodeUserNotFound, auth.CodeWrongPassword,
			auth.CodeUserDisabled, auth.CodeInvalidToken:
			return http.StatusUnauthorized
		case auth.CodeInvalidEmail, auth.CodeWeakPassword:
			return http.StatusBadRequest
		case auth.CodeEmailInUse:
			return http.StatusConflict
		case auth.CodeTooManyRequests:
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, message string, err error) {
	status := statusFor(err)
	body := gin.H{"success": false, "error": message, "details": err.Error()}
	var verr *orders.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	var cerr *catalog.ValidationError
	if errors.As(err, &cerr) {
		body["fields"] = cerr.Fields
	}
	if status >= http.StatusInternalServerError {
		h.Log.WithError(err).WithFields(logrus.Fields{"path": c.FullPath(), "method": c.Request.Method}).Error(message)
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": message, "details": err.Error()})
}

// confirmed is the gate for destructive endpoints: ?confirm=true.
func confirmed(c *gin.Context) bool {
	return c.Query("confirm") == "true"
}

func actor(c *gin.Context) auth.View {
	v, _ := middleware.ViewFrom(c)
	return v
}

func cartID(c *gin.Context) string {
	return c.GetHeader(CartHeader)
}

// withAudience dirige los toasts de la petición al carrito y a la sesión que la hicieron.
func withAudience(c *gin.Context) {
	addAudience(c, notify.CartAudience(cartID(c)), notify.SessionAudience(c.GetString(middleware.ContextSessionID)))
	c.Next()
}

func addAudience(c *gin.Context, keys ...string) {
	c.Request = c.Request.WithContext(notify.WithAudience(c.Request.Context(), keys...))
}

func audience(c *gin.Context) []string {
	return notify.AudienceFrom(c.Request.Context())
}

// requireCart corta la petición cuando falta X-Cart-ID.
func requireCart(c *gin.Context) (string, bool) {
	id := cartID(c)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": CartHeader + " header is required"})
		return "", false
	}
	return id, true
}
