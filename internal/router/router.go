package router

import (
	"net/http"

	"github.com/fuboru/panel-backend/config"
	"github.com/fuboru/panel-backend/internal/app/controller"
	"github.com/fuboru/panel-backend/internal/middleware"
	"github.com/fuboru/panel-backend/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	authController        *controller.AuthController
	categoryController    *controller.CategoryController
	brandController       *controller.BrandController
	certificateController *controller.CertificateController
	productController     *controller.ProductController
	userController        *controller.UserController
	authMiddleware        *middleware.AuthMiddleware
	httpMetrics           *metrics.HTTPMetrics
	gatherer              prometheus.Gatherer
	config                *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	categoryController *controller.CategoryController,
	brandController *controller.BrandController,
	certificateController *controller.CertificateController,
	productController *controller.ProductController,
	userController *controller.UserController,
	authMiddleware *middleware.AuthMiddleware,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:        authController,
		categoryController:    categoryController,
		brandController:       brandController,
		certificateController: certificateController,
		productController:     productController,
		userController:        userController,
		authMiddleware:        authMiddleware,
		httpMetrics:           httpMetrics,
		gatherer:              gatherer,
		config:                cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware(r.httpMetrics))
	router.Use(middleware.CORSMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Panel API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))

	requiresAuth := r.authMiddleware.Authenticate()

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", r.authController.Login)
			auth.POST("/signup", r.authController.SignUp)
			auth.POST("/refresh", r.authController.Refresh)
			auth.POST("/logout", requiresAuth, r.authController.Logout)
			auth.GET("/session", requiresAuth, r.authController.Session)
			auth.GET("/events", requiresAuth, r.authController.Events)
		}

		categories := v1.Group("/categories", requiresAuth)
		{
			categories.GET("", r.categoryController.List)
			categories.GET("/:id", r.categoryController.Get)
			categories.POST("", r.categoryController.Create)
			categories.PUT("/:id", r.categoryController.Update)
			categories.DELETE("/:id", r.categoryController.Delete)
		}

		brands := v1.Group("/brands", requiresAuth)
		{
			brands.GET("", r.brandController.List)
			brands.GET("/:id", r.brandController.Get)
			brands.POST("", r.brandController.Create)
			brands.PUT("/:id", r.brandController.Update)
			brands.DELETE("/:id", r.brandController.Delete)
		}

		certificates := v1.Group("/certificates", requiresAuth)
		{
			certificates.GET("", r.certificateController.List)
			certificates.GET("/:id", r.certificateController.Get)
			certificates.POST("", r.certificateController.Create)
			certificates.PUT("/:id", r.certificateController.Update)
			certificates.DELETE("/:id", r.certificateController.Delete)
		}

		products := v1.Group("/products", requiresAuth)
		{
			products.GET("", r.productController.List)
			products.GET("/:id", r.productController.Get)
			products.POST("", r.productController.Create)
			products.PUT("/:id", r.productController.Update)
			products.DELETE("/:id", r.productController.Delete)
		}

		users := v1.Group("/users", requiresAuth)
		{
			users.GET("", r.userController.List)
			users.GET("/:id", r.userController.Get)
			users.POST("", r.userController.Create)
			users.DELETE("/:id", r.userController.Delete)
		}
	}

	return router
}
