package routes

import (
	"net/http"

	"dine-in-ordering/config"
	"dine-in-ordering/handlers"
	"dine-in-ordering/metrics"
	"dine-in-ordering/middleware"
	"dine-in-ordering/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the engine with recovery, request logging, metrics, CORS,
// the health and metrics endpoints and every API route.
func NewRouter(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), metrics.Middleware(), middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Dine-in Ordering API",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	SetupRoutes(r)
	return r
}

func SetupRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.Use(middleware.APIKeyRequired(config.Current.APIKey))

	staffRoles := middleware.RoleRequired(models.UserRestaurant, models.UserAdmin)

	// ── Public routes ──────────────────────────────────────────────
	public := api.Group("")
	{
		// Auth
		public.POST("/auth/register/", handlers.Register)
		public.POST("/auth/login/", handlers.Login)
		public.POST("/auth/token/refresh/", handlers.RefreshToken)

		// Catalogue (no auth needed)
		public.GET("/restaurant/", handlers.ListTenants)
		public.GET("/restaurant/:id/", handlers.GetTenant)
		public.GET("/branch/", handlers.ListBranches)
		public.GET("/table/:id/", handlers.GetTable)
		public.GET("/menu/", handlers.ListMenus)
		public.GET("/menu/:id/", handlers.GetMenu)
		public.GET("/menu-availability/", handlers.ListMenuAvailability)
		public.GET("/related-menu/", handlers.ListRelatedMenus)
		public.GET("/combo/", handlers.ListCombos)
		public.GET("/posts/", handlers.ListPosts)
		public.POST("/coupon/validate/", handlers.ValidateCoupon)

		// State machine info
		public.GET("/state-machine/", handlers.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := api.Group("")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/auth/profile/", handlers.GetProfile)

		auth.GET("/order/", handlers.ListOrders)
		auth.GET("/order/:id/", handlers.GetOrder)
		auth.PATCH("/order/:id/", handlers.UpdateOrder)
		auth.DELETE("/order/:id/", handlers.DeleteOrder)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := api.Group("")
	customer.Use(middleware.AuthRequired(), middleware.RoleRequired(models.UserCustomer))
	{
		customer.GET("/cart/", handlers.GetCart)
		customer.DELETE("/cart/", handlers.ClearCart)
		customer.POST("/cart/items/", handlers.AddCartItem)
		customer.PATCH("/cart/items/:id/", handlers.UpdateCartItem)
		customer.DELETE("/cart/items/:id/", handlers.RemoveCartItem)
		customer.POST("/cart/reorder/", handlers.ReorderCart)
		customer.POST("/cart/reorder/:orderId/", handlers.ReorderFromOrder)
		customer.POST("/cart/remarks/", handlers.SetCartRemarks)
		customer.POST("/cart/coupon/", handlers.ApplyCartCoupon)
		customer.POST("/cart/customer/", handlers.SetCartCustomer)
		customer.DELETE("/cart/error/", handlers.ClearCartError)

		customer.POST("/order/", handlers.Checkout)
	}

	// ── Restaurant staff routes ────────────────────────────────────
	staff := api.Group("")
	staff.Use(middleware.AuthRequired(), staffRoles)
	{
		staff.POST("/branch/", handlers.CreateBranch)

		staff.GET("/table/", handlers.ListTables)
		staff.POST("/table/", handlers.CreateTable)
		staff.PATCH("/table/:id/", handlers.UpdateTable)
		staff.DELETE("/table/:id/", handlers.DeleteTable)

		staff.GET("/qr-code/", handlers.ListQRCodes)
		staff.POST("/qr-code/", handlers.CreateQRCode)
		staff.PATCH("/qr-code/:id/", handlers.UpdateQRCode)

		staff.POST("/menu/", handlers.CreateMenu)
		staff.POST("/menu-availability/", handlers.SetMenuAvailability)
		staff.POST("/related-menu/", handlers.CreateRelatedMenu)
		staff.POST("/combo/", handlers.CreateCombo)
		staff.POST("/posts/", handlers.CreatePost)
		staff.POST("/coupon/", handlers.CreateCoupon)

		staff.POST("/order/:id/payment/", handlers.ConfirmPayment)
		staff.GET("/order-summary/", handlers.OrderSummary)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.RoleRequired(models.UserAdmin))
	{
		admin.POST("/restaurant/", handlers.AdminCreateTenant)
		admin.POST("/users/", handlers.AdminCreateUser)
		admin.GET("/users/", handlers.AdminGetAllUsers)
		admin.PUT("/order/:id/status/", handlers.AdminForceOrderStatus)
	}
}
