package Handlers

import (
	"fmt"
	"net/http"

	"github.com/andrescris/storefront/pkg/cart"
	"github.com/andrescris/storefront/pkg/models"
	"github.com/andrescris/storefront/pkg/notify"
	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// ensureCart reutiliza X-Cart-ID o crea un carrito nuevo y lo devuelve en la misma cabecera.
func ensureCart(c *gin.Context) string {
	id := cartID(c)
	if id == "" {
		id = cart.NewID()
		addAudience(c, notify.CartAudience(id))
	}
	c.Header(CartHeader, id)
	return id
}

func (h *Handler) summary(c *gin.Context, id string, current cart.Cart) gin.H {
	delivery := models.DeliveryMethod(c.Query("delivery"))
	return gin.H{"cartId": id, "summary": h.Pricing.Summarize(current, delivery)}
}

func (h *Handler) GetCart(c *gin.Context) {
	id := ensureCart(c)
	current := h.Carts.Get(c.Request.Context(), id)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.summary(c, id, current)})
}

func (h *Handler) AddCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	p, err := h.Catalog.Product(req.ProductID)
	if err != nil {
		h.fail(c, "Product not found", err)
		return
	}

	id := ensureCart(c)
	var item models.CartItem
	updated, err := h.Carts.Update(c.Request.Context(), id, func(current *cart.Cart) error {
		var err error
		item, err = current.Add(p, req.Quantity, req.Size, req.Color)
		return err
	})
	if err != nil {
		h.fail(c, "No se pudo agregar el producto", err)
		return
	}
	h.Toasts.Success(c.Request.Context(), fmt.Sprintf("%s agregado al carrito!", p.Name))
	data := h.summary(c, id, updated)
	data["item"] = item
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Producto agregado al carrito", "data": data})
}

// QuickAddCartItem agrega una unidad desde la tarjeta del producto. Si el producto tiene tallas o
// colores responde 400 para que el cliente abra el detalle.
func (h *Handler) QuickAddCartItem(c *gin.Context) {
	var req struct {
		ProductID string `json:"productId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	p, err := h.Catalog.Product(req.ProductID)
	if err != nil {
		h.fail(c, "Product not found", err)
		return
	}

	id := ensureCart(c)
	var item models.CartItem
	updated, err := h.Carts.Update(c.Request.Context(), id, func(current *cart.Cart) error {
		var err error
		item, err = current.QuickAdd(p)
		return err
	})
	if err != nil {
		h.fail(c, "No se pudo agregar el producto", err)
		return
	}
	h.Toasts.Success(c.Request.Context(), fmt.Sprintf("%s agregado al carrito!", p.Name))
	data := h.summary(c, id, updated)
	data["item"] = item
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Producto agregado al carrito", "data": data})
}

// UpdateCartItem fija la cantidad de una línea; cero o menos la elimina.
func (h *Handler) UpdateCartItem(c *gin.Context) {
	id, ok := requireCart(c)
	if !ok {
		return
	}
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	updated, err := h.Carts.Update(c.Request.Context(), id, func(current *cart.Cart) error {
		return current.UpdateQuantity(c.Param("lineId"), req.Quantity)
	})
	if err != nil {
		h.fail(c, "No se pudo actualizar el carrito", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.summary(c, id, updated)})
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	id, ok := requireCart(c)
	if !ok {
		return
	}
	updated, err := h.Carts.Update(c.Request.Context(), id, func(current *cart.Cart) error {
		current.Remove(c.Param("lineId"))
		return nil
	})
	if err != nil {
		h.fail(c, "No se pudo actualizar el carrito", err)
		return
	}
	h.Toasts.Error(c.Request.Context(), "Producto eliminado del carrito.")
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.summary(c, id, updated)})
}

func (h *Handler) ClearCart(c *gin.Context) {
	id, ok := requireCart(c)
	if !ok {
		return
	}
	h.Carts.Clear(c.Request.Context(), id)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.summary(c, id, cart.Cart{})})
}

// GetShipping calcula el envío para ?delivery= sobre el subtotal actual.
func (h *Handler) GetShipping(c *gin.Context) {
	var current cart.Cart
	if id := cartID(c); id != "" {
		current = h.Carts.Get(c.Request.Context(), id)
	}
	delivery := models.DeliveryMethod(c.Query("delivery"))
	subtotal := current.Subtotal()
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"deliveryMethod":         delivery,
		"subtotal":               subtotal,
		"shippingCost":           h.Pricing.Shipping(delivery, subtotal),
		"total":                  h.Pricing.Total(delivery, subtotal),
		"missingForFreeShipping": h.Pricing.MissingForFreeShipping(subtotal),
		"freeShippingProgress":   h.Pricing.Progress(subtotal),
	}})
}
