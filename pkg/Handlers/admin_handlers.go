package Handlers

import (
	"net/http"
	"strconv"

	"github.com/andrescris/storefront/pkg/auth"
	"github.com/andrescris/storefront/pkg/models"
	"github.com/andrescris/storefront/pkg/orders"
	"github.com/gin-gonic/gin"
)

// --- Configuración general ---

func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.Catalog.Config()})
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	var cfg models.StoreConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	if err := h.Catalog.UpdateConfig(c.Request.Context(), actor(c).UID, cfg); err != nil {
		h.fail(c, "Failed to update config", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Config updated successfully", "data": cfg})
}

func (h *Handler) UploadLogo(c *gin.Context) {
	upload, done, ok := readUpload(c)
	if !ok {
		return
	}
	defer done()
	cfg, err := h.Catalog.SetLogo(c.Request.Context(), actor(c).UID, upload)
	if err != nil {
		h.fail(c, "Error al subir la imagen.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cfg})
}

func (h *Handler) UploadPaymentMethodsImage(c *gin.Context) {
	upload, done, ok := readUpload(c)
	if !ok {
		return
	}
	defer done()
	cfg, err := h.Catalog.SetPaymentMethodsImage(c.Request.Context(), actor(c).UID, upload)
	if err != nil {
		h.fail(c, "Error al subir la imagen.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cfg})
}

// --- Categorías ---

func (h *Handler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.Catalog.Categories()})
}

func (h *Handler) AddCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	added, err := h.Catalog.AddCategory(c.Request.Context(), actor(c).UID, req.Name)
	if err != nil {
		h.fail(c, "Failed to add category", err)
		return
	}
	status := http.StatusCreated
	if !added {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"success": true, "added": added, "data": h.Catalog.Categories()})
}

// SaveCategories reemplaza la lista completa.
func (h *Handler) SaveCategories(c *gin.Context) {
	var req struct {
		Names []string `json:"names"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	list, err := h.Catalog.SaveCategories(c.Request.Context(), actor(c).UID, req.Names)
	if err != nil {
		h.fail(c, "Failed to save categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
}

func (h *Handler) RemoveCategory(c *gin.Context) {
	if err := h.Catalog.RemoveCategory(c.Request.Context(), actor(c).UID, c.Param("name"), confirmed(c)); err != nil {
		h.fail(c, "Failed to delete category", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.Catalog.Categories()})
}

// --- Banners ---

func bannerID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "Invalid banner id", err)
		return 0, false
	}
	return id, true
}

func (h *Handler) ListBanners(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.Catalog.Banners()})
}

func (h *Handler) AddBanner(c *gin.Context) {
	b, err := h.Catalog.AddBanner(c.Request.Context(), actor(c).UID)
	if err != nil {
		h.fail(c, "Failed to add banner", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": b})
}

func (h *Handler) UpdateBanner(c *gin.Context) {
	id, ok := bannerID(c)
	if !ok {
		return
	}
	var b models.Banner
	if err := c.ShouldBindJSON(&b); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	b.ID = id
	if err := h.Catalog.UpdateBanner(c.Request.Context(), actor(c).UID, b); err != nil {
		h.fail(c, "Failed to update banner", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": b})
}

func (h *Handler) SaveBanners(c *gin.Context) {
	var banners []models.Banner
	if err := c.ShouldBindJSON(&banners); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	if err := h.Catalog.SaveBanners(c.Request.Context(), actor(c).UID, banners); err != nil {
		h.fail(c, "Failed to save banners", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": banners})
}

func (h *Handler) RemoveBanner(c *gin.Context) {
	id, ok := bannerID(c)
	if !ok {
		return
	}
	if err := h.Catalog.RemoveBanner(c.Request.Context(), actor(c).UID, id); err != nil {
		h.fail(c, "Failed to delete banner", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.Catalog.Banners()})
}

func (h *Handler) UploadBannerImage(c *gin.Context) {
	id, ok := bannerID(c)
	if !ok {
		return
	}
	upload, done, ok := readUpload(c)
	if !ok {
		return
	}
	defer done()
	b, err := h.Catalog.SetBannerImage(c.Request.Context(), actor(c).UID, id, upload)
	if err != nil {
		h.fail(c, "Error al subir la imagen.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": b})
}

// --- Pedidos ---

// ListOrders devuelve los pedidos más recientes primero, filtrados por ?status=.
func (h *Handler) ListOrders(c *gin.Context) {
	records := h.Orders.List(models.OrderStatus(c.Query("status")))
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(records), "data": records})
}

func (h *Handler) UpdateOrder(c *gin.Context) {
	var patch orders.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	changed, err := h.Orders.Update(c.Request.Context(), actor(c).UID, c.Param("docId"), patch)
	if err != nil {
		h.fail(c, "Failed to update order", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "changed": changed})
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	if err := h.Orders.Delete(c.Request.Context(), actor(c).UID, c.Param("docId"), confirmed(c)); err != nil {
		h.fail(c, "Failed to delete order", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order deleted successfully"})
}

func (h *Handler) SalesReport(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.Orders.Report(models.OrderStatus(c.Query("status")))})
}

// --- Usuarios ---

func (h *Handler) ListUsers(c *gin.Context) {
	users := h.Auth.Users()
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(users), "data": users})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var form auth.StaffForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	user, err := h.Auth.CreateStaff(c.Request.Context(), actor(c), form)
	if err != nil {
		h.fail(c, auth.SignUpMessage(err), err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Usuario creado exitosamente.", "data": user})
}

func (h *Handler) UpdateUserRole(c *gin.Context) {
	var req struct {
		Role models.Role `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	if err := h.Auth.UpdateRole(c.Request.Context(), actor(c), c.Param("docId"), req.Role); err != nil {
		h.fail(c, "Failed to update role", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Rol de usuario actualizado."})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.Auth.DeleteUser(c.Request.Context(), actor(c), c.Param("docId"), confirmed(c)); err != nil {
		h.fail(c, "Failed to delete user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Usuario eliminado del panel."})
}
