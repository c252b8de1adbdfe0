package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phantomcommerce/phantom-backend/config"
	"github.com/phantomcommerce/phantom-backend/internal/app/controller"
	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	authController    *controller.AuthController
	productController *controller.ProductController
	searchController  *controller.SearchController
	cartController    *controller.CartController
	uploadController  *controller.UploadController
	authMiddleware    *middleware.AuthMiddleware
	config            *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	searchController *controller.SearchController,
	cartController *controller.CartController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:    authController,
		productController: productController,
		searchController:  searchController,
		cartController:    cartController,
		uploadController:  uploadController,
		authMiddleware:    authMiddleware,
		config:            cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))
	if r.config.Metrics.Enabled {
		router.Use(middleware.MetricsMiddleware())
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Phantom API is running",
		})
	})

	admin := string(model.RoleAdmin)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/federated", r.authController.FederatedLogin)
			auth.POST("/refresh", r.authController.RefreshToken)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
			auth.PUT("/me", r.authMiddleware.Authenticate(), r.authController.UpdateMe)
		}

		v1.GET("/categories/:slug", r.productController.ListCategory)

		products := v1.Group("/products")
		{
			products.GET("/:id", r.productController.GetProduct)
			products.GET("/export",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole(admin),
				r.productController.ExportCatalog,
			)
			products.POST("",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole(admin),
				r.productController.CreateProduct,
			)
		}

		search := v1.Group("/search")
		{
			search.GET("", r.searchController.Search)
			search.GET("/suggest", r.searchController.Suggest)
			search.GET("/resolve", r.searchController.Resolve)
		}

		v1.POST("/cart/merge", r.authMiddleware.Authenticate(), r.cartController.MergeCart)
		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.OptionalAuthenticate(), middleware.GuestSession())
		{
			cart.GET("", r.cartController.GetCart)
			cart.DELETE("", r.cartController.ClearCart)
			cart.POST("/items", r.cartController.AddItem)
			cart.PUT("/items/:product_id", r.cartController.UpdateItem)
			cart.DELETE("/items/:product_id", r.cartController.RemoveItem)
			cart.GET("/ws", r.cartController.WebSocket)
		}

		upload := v1.Group("/upload")
		upload.Use(r.authMiddleware.Authenticate())
		{
			upload.POST("/presigned-url", r.uploadController.GeneratePresignedURL)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if middleware.OriginAllowed(origin, allowedOrigins) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, "+middleware.GuestSessionHeader+", "+middleware.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", middleware.GuestSessionHeader+", "+middleware.RequestIDHeader+", Content-Disposition")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
