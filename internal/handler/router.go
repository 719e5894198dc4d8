package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/baljuhq/balju-api/internal/middleware"
	"github.com/baljuhq/balju-api/internal/models"
	"github.com/baljuhq/balju-api/internal/service"
	"github.com/baljuhq/balju-api/pkg/logger"
	corsmiddleware "github.com/baljuhq/balju-api/pkg/middleware/cors"
	reqidmiddleware "github.com/baljuhq/balju-api/pkg/middleware/requestid"
)

// RouterConfig carries the routing options derived from application config.
type RouterConfig struct {
	APIPrefix       string
	AllowedOrigins  []string
	EnableDocs      bool
	EnableDashboard bool
}

// Handlers groups every HTTP handler wired into the router.
type Handlers struct {
	Auth      *AuthHandler
	Suppliers *SupplierHandler
	Items     *ItemHandler
	Units     *UnitHandler
	Orders    *OrderHandler
	Dashboard *DashboardHandler
	Metrics   *MetricsHandler
}

// NewRouter assembles the gin engine, middleware chain and all routes.
func NewRouter(cfg RouterConfig, logr *zap.Logger, authSvc *service.AuthService, metricsSvc *service.MetricsService, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	authed := auth.Group("", middleware.JWT(authSvc))
	authed.POST("/logout", h.Auth.Logout)
	authed.POST("/change-password", h.Auth.ChangePassword)
	authed.GET("/me", h.Auth.Me)

	secured := api.Group("", middleware.JWT(authSvc))
	reviewers := middleware.RequireRoles(models.RoleReviewer, models.RoleAdmin)
	editors := middleware.RequireRoles(models.RoleStaff, models.RoleAdmin)

	suppliers := secured.Group("/suppliers")
	suppliers.GET("", h.Suppliers.List)
	suppliers.GET("/:id", h.Suppliers.Get)
	suppliers.POST("", editors, h.Suppliers.Create)
	suppliers.PUT("/:id", editors, h.Suppliers.Update)
	suppliers.DELETE("/:id", editors, h.Suppliers.Delete)
	suppliers.POST("/bulk-delete", editors, h.Suppliers.BulkDelete)

	items := secured.Group("/items")
	items.GET("", h.Items.List)
	items.GET("/:id", h.Items.Get)
	items.POST("", editors, h.Items.Create)
	items.PUT("/:id", editors, h.Items.Update)
	items.DELETE("/:id", editors, h.Items.Delete)
	items.POST("/bulk-delete", editors, h.Items.BulkDelete)

	units := secured.Group("/units")
	units.GET("", h.Units.List)
	units.GET("/:id", h.Units.Get)
	units.POST("", editors, h.Units.Create)
	units.PUT("/:id", editors, h.Units.Update)
	units.DELETE("/:id", editors, h.Units.Delete)
	units.POST("/bulk-delete", editors, h.Units.BulkDelete)

	orders := secured.Group("/orders")
	orders.GET("", h.Orders.List)
	orders.GET("/:id", h.Orders.Get)
	orders.POST("", h.Orders.Create)
	orders.PUT("/:id", h.Orders.Update)
	orders.DELETE("/:id", h.Orders.Delete)
	orders.POST("/:id/approve", reviewers, h.Orders.Approve)
	orders.POST("/:id/reject", reviewers, h.Orders.Reject)
	orders.POST("/bulk-approve", reviewers, h.Orders.BulkApprove)
	orders.POST("/bulk-reject", reviewers, h.Orders.BulkReject)
	orders.POST("/bulk-delete", reviewers, h.Orders.BulkDelete)
	orders.POST("/upload", h.Orders.Import)
	orders.GET("/template", h.Orders.Template)
	orders.GET("/export", h.Orders.Export)

	if cfg.EnableDashboard {
		secured.GET("/dashboard/summary", h.Dashboard.Summary)
	}

	return r
}
