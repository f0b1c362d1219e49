package Handlers

import (
	"github.com/andrescris/storefront/pkg/auth"
	"github.com/andrescris/storefront/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// Register monta la API bajo /api/v1. limiter protege login y checkout; puede ser nil.
func (h *Handler) Register(r gin.IRouter, limiter *middleware.RateLimiter) {
	limit := func(c *gin.Context) { c.Next() }
	if limiter != nil {
		limit = limiter.Handler()
	}
	can := middleware.RequireCapability

	api := r.Group("/api/v1")
	api.Use(middleware.SessionAuthMiddleware(h.Auth), withAudience)
	{
		api.GET("/store", h.GetStore)
		api.GET("/live", h.ServeLive)
		api.GET("/toasts", h.ListToasts)
		api.DELETE("/toasts/:id", h.DismissToast)

		products := api.Group("/products")
		{
			products.GET("", h.ListProducts)
			products.GET("/new", h.NewArrivals)
			products.GET("/:id", h.GetProductByID)
		}

		cartRoutes := api.Group("/cart")
		{
			cartRoutes.GET("", h.GetCart)
			cartRoutes.DELETE("", h.ClearCart)
			cartRoutes.GET("/shipping", h.GetShipping)
			cartRoutes.POST("/items", h.AddCartItem)
			cartRoutes.POST("/items/quick", h.QuickAddCartItem)
			cartRoutes.PATCH("/items/:lineId", h.UpdateCartItem)
			cartRoutes.DELETE("/items/:lineId", h.RemoveCartItem)
		}

		api.POST("/checkout", limit, h.Checkout)

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/login", limit, h.Login)
			authRoutes.POST("/logout", middleware.RequireSession(), h.Logout)
			authRoutes.GET("/session", h.GetSession)
		}

		admin := api.Group("/admin")
		admin.Use(can(auth.CapViewPanel))
		{
			admin.GET("/config", h.GetConfig)
			admin.PUT("/config", can(auth.CapManageConfig), h.UpdateConfig)
			admin.POST("/config/logo", can(auth.CapManageConfig), h.UploadLogo)
			admin.POST("/config/payment-methods-image", can(auth.CapManageConfig), h.UploadPaymentMethodsImage)

			admin.GET("/categories", h.ListCategories)
			admin.POST("/categories", can(auth.CapManageCategories), h.AddCategory)
			admin.PUT("/categories", can(auth.CapManageCategories), h.SaveCategories)
			admin.DELETE("/categories/:name", can(auth.CapManageCategories), h.RemoveCategory)

			admin.GET("/banners", h.ListBanners)
			admin.POST("/banners", can(auth.CapManageBanners), h.AddBanner)
			admin.PUT("/banners", can(auth.CapManageBanners), h.SaveBanners)
			admin.PUT("/banners/:id", can(auth.CapManageBanners), h.UpdateBanner)
			admin.DELETE("/banners/:id", can(auth.CapManageBanners), h.RemoveBanner)
			admin.POST("/banners/:id/image", can(auth.CapManageBanners), h.UploadBannerImage)

			// --- RUTAS DE PRODUCTOS ---
			admin.POST("/products", can(auth.CapManageProducts), h.CreateProduct)
			admin.PUT("/products/:id", can(auth.CapManageProducts), h.UpdateProduct)
			admin.DELETE("/products/:id", can(auth.CapDeleteProducts), h.DeleteProduct)
			admin.POST("/products/:id/variants", can(auth.CapManageProducts), h.EditVariants)
			admin.POST("/products/:id/image", can(auth.CapManageProducts), h.UploadProductImage)
			admin.POST("/products/:id/colors/:color/image", can(auth.CapManageProducts), h.UploadColorImage)
			admin.POST("/uploads", can(auth.CapManageProducts), h.UploadImage)

			admin.GET("/orders", can(auth.CapManageOrders), h.ListOrders)
			admin.GET("/orders/report", can(auth.CapManageOrders), h.SalesReport)
			admin.PATCH("/orders/:docId", can(auth.CapManageOrders), h.UpdateOrder)
			admin.DELETE("/orders/:docId", can(auth.CapDeleteOrders), h.DeleteOrder)

			admin.GET("/users", can(auth.CapManageUsers), h.ListUsers)
			admin.POST("/users", can(auth.CapManageUsers), h.CreateUser)
			admin.PATCH("/users/:docId", can(auth.CapManageUsers), h.UpdateUserRole)
			admin.DELETE("/users/:docId", can(auth.CapManageUsers), h.DeleteUser)
		}
	}
}
