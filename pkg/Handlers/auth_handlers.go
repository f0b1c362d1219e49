package Handlers

import (
	"net/http"

	"github.com/andrescris/storefront/pkg/auth"
	"github.com/andrescris/storefront/pkg/middleware"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionBody is the session as the panel sees it.
func sessionBody(v auth.View) gin.H {
	return gin.H{
		"session":        v,
		"hasPanelAccess": v.HasPanelAccess(),
		"tabs":           v.Tabs(),
	}
}

// Login inicia sesión. El id de sesión devuelto va en X-Session-ID en las siguientes peticiones.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	view, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, auth.SignInMessage(err), err)
		return
	}
	c.Header("X-Session-ID", view.ID)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sessionBody(view)})
}

func (h *Handler) Logout(c *gin.Context) {
	sessionID := c.GetString(middleware.ContextSessionID)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "X-Session-ID header is required"})
		return
	}
	if err := h.Auth.Logout(c.Request.Context(), sessionID); err != nil {
		h.fail(c, "Error al cerrar sesión.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Sesión cerrada exitosamente."})
}

// GetSession devuelve la sesión actual; sin credenciales responde como sesión cerrada.
func (h *Handler) GetSession(c *gin.Context) {
	view, ok := middleware.ViewFrom(c)
	if !ok {
		view = auth.View{Status: auth.SignedOut}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sessionBody(view)})
}
