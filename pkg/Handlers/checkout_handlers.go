package Handlers

import (
	"net/http"

	"github.com/andrescris/storefront/pkg/orders"
	"github.com/gin-gonic/gin"
)

// Checkout convierte el carrito de X-Cart-ID en un pedido. La respuesta trae el enlace de
// WhatsApp por si el navegador no está conectado al websocket.
func (h *Handler) Checkout(c *gin.Context) {
	id, ok := requireCart(c)
	if !ok {
		return
	}
	var form orders.CheckoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	receipt, err := h.Orders.Checkout(c.Request.Context(), id, form)
	if err != nil {
		h.fail(c, "Error al procesar el pedido", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "¡Pedido enviado por WhatsApp!", "data": receipt})
}
