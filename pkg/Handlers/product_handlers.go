package Handlers

import (
	"net/http"

	"github.com/andrescris/storefront/pkg/catalog"
	"github.com/andrescris/storefront/pkg/media"
	"github.com/andrescris/storefront/pkg/models"
	"github.com/gin-gonic/gin"
)

// --- Helper para archivos ---

// readUpload toma el archivo del campo "image" de un formulario multipart.
func readUpload(c *gin.Context) (catalog.Upload, func(), bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, media.MaxImageSize+1<<20)
	fh, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "Missing image file", err)
		return catalog.Upload{}, nil, false
	}
	if fh.Size > media.MaxImageSize {
		badRequest(c, "La imagen supera el tamaño máximo", media.ErrTooLarge)
		return catalog.Upload{}, nil, false
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "Could not read image file", err)
		return catalog.Upload{}, nil, false
	}
	return catalog.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}, func() { f.Close() }, true
}

// --- Handlers ---

func (h *Handler) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	created, err := h.Catalog.AddProduct(c.Request.Context(), actor(c).UID, product)
	if err != nil {
		h.fail(c, "Failed to create product", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Product created successfully", "data": created})
}

// UpdateProduct reemplaza el producto completo; el id de la ruta manda sobre el del cuerpo.
func (h *Handler) UpdateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		badRequest(c, "Invalid JSON format", err)
		return
	}
	product.ID = c.Param("id")

	if err := h.Catalog.UpdateProduct(c.Request.Context(), actor(c).UID, product); err != nil {
		h.fail(c, "Failed to update product", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product updated successfully", "data": product})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.Catalog.DeleteProduct(c.Request.Context(), actor(c).UID, c.Param("id"), confirmed(c)); err != nil {
		h.fail(c, "Failed to delete product", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted successfully"})
}

// EditVariants aplica una operación sobre tallas o colores.
func (h *Handler) EditVariants(c *gin.Context) {
	var op catalog.VariantOp
	if err := c.ShouldBindJSON(&op); err != nil {
		badRequest(c, "Invalid variant data", err)
		return
	}
	product, err := h.Catalog.EditVariants(c.Request.Context(), actor(c).UID, c.Param("id"), op)
	if err != nil {
		h.fail(c, "Failed to update variants", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Variants updated successfully", "data": product})
}

func (h *Handler) UploadProductImage(c *gin.Context) {
	upload, done, ok := readUpload(c)
	if !ok {
		return
	}
	defer done()

	product, err := h.Catalog.SetProductImage(c.Request.Context(), actor(c).UID, c.Param("id"), upload)
	if err != nil {
		h.fail(c, "Error al subir la imagen.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": product})
}

func (h *Handler) UploadColorImage(c *gin.Context) {
	upload, done, ok := readUpload(c)
	if !ok {
		return
	}
	defer done()

	product, err := h.Catalog.SetColorImage(c.Request.Context(), actor(c).UID, c.Param("id"), c.Param("color"), upload)
	if err != nil {
		h.fail(c, "Error al subir la imagen.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": product})
}

// UploadImage sube una imagen suelta y devuelve su URL.
func (h *Handler) UploadImage(c *gin.Context) {
	upload, done, ok := readUpload(c)
	if !ok {
		return
	}
	defer done()

	url, err := h.Catalog.UploadImage(c.Request.Context(), actor(c).UID, upload)
	if err != nil {
		h.fail(c, "Error al subir la imagen.", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"url": url}})
}
