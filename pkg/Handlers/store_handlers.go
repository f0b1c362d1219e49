package Handlers

import (
	"net/http"

	"github.com/andrescris/storefront/pkg/catalog"
	"github.com/andrescris/storefront/pkg/middleware"
	"github.com/andrescris/storefront/pkg/models"
	"github.com/gin-gonic/gin"
)

// GetStore devuelve todo lo que la vitrina necesita para pintarse.
func (h *Handler) GetStore(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"loading":         h.App.Loading(),
			"config":          h.Catalog.Config(),
			"banners":         h.Catalog.Banners(),
			"categories":      h.Catalog.Categories(),
			"paymentMethods":  models.PaymentMethods,
			"deliveryMethods": []models.DeliveryMethod{models.DeliveryPickup, models.DeliveryHome},
		},
	})
}

// ListProducts filtra por ?category= (All, On Sale o una categoría) y ?q=.
func (h *Handler) ListProducts(c *gin.Context) {
	products := catalog.FilterProducts(h.Catalog.Products(), c.Query("category"), c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(products), "data": products})
}

func (h *Handler) NewArrivals(c *gin.Context) {
	products := catalog.NewArrivals(h.Catalog.Products(), catalog.NewArrivalsLimit)
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(products), "data": products})
}

func (h *Handler) GetProductByID(c *gin.Context) {
	p, err := h.Catalog.Product(c.Param("id"))
	if err != nil {
		h.fail(c, "Product not found", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"product":   p,
		"unitPrice": p.UnitPrice(),
	}})
}

// ListToasts devuelve las notificaciones visibles para el carrito o la sesión de la petición.
func (h *Handler) ListToasts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.Toasts.Active(audience(c)...)})
}

func (h *Handler) DismissToast(c *gin.Context) {
	if !h.Toasts.Dismiss(c.Param("id"), audience(c)...) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Toast not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ServeLive abre el websocket de la vitrina. El carrito y la sesión se toman de ?cart= y ?session=
// porque los navegadores no permiten cabeceras propias en el handshake.
func (h *Handler) ServeLive(c *gin.Context) {
	id := c.Query("cart")
	if id == "" {
		id = cartID(c)
	}
	sessionID := c.GetString(middleware.ContextSessionID)
	if q := c.Query("session"); sessionID == "" && q != "" {
		if _, err := h.Auth.Session(q); err == nil {
			sessionID = q
		}
	}
	if err := h.Live.ServeWS(c.Writer, c.Request, id, sessionID); err != nil {
		h.Log.WithError(err).Debug("websocket upgrade failed")
	}
}
