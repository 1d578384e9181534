package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"elit21.com/shop/internal/config"
	"elit21.com/shop/internal/http/handlers"
	"elit21.com/shop/internal/http/middleware"
	"elit21.com/shop/internal/modules/orders"
	"elit21.com/shop/internal/modules/products"
	"elit21.com/shop/internal/modules/users"
	"elit21.com/shop/internal/storage"
)

type Deps struct {
	Logger   *slog.Logger
	DB       *gorm.DB
	Config   config.Config
	Payments handlers.PaymentService // nil when the provider is not configured
	Images   storage.Storage
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()

	session := middleware.SessionCfg{
		Secret: d.Config.SessionSecret,
		Secure: d.Config.SecureCookies(),
		TTL:    d.Config.SessionTTL,
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.ErrorHandler(d.Logger),
		middleware.Session(session),
	)

	auth := handlers.NewAuthHandler(
		users.NewService(users.NewRepo(d.DB)),
		session,
	)
	prods := handlers.NewProductsHandler(products.NewRepo(d.DB), d.Images)
	co := &handlers.CheckoutHandler{
		Orders:        orders.NewRepo(d.DB),
		Products:      products.NewRepo(d.DB),
		Payments:      d.Payments,
		Currency:      "EUR",
		ShippingCents: d.Config.ShippingFeeCents,
	}

	// credential guessing and provider round-trips get their own budgets
	loginLimit := middleware.RateLimit(rate.Every(time.Second), 5)
	checkoutLimit := middleware.RateLimit(rate.Every(2*time.Second), 10)

	api := r.Group("/api")
	{
		api.POST("/auth/register", loginLimit, auth.Register)
		api.POST("/auth/login", loginLimit, auth.Login)
		api.POST("/auth/logout", auth.Logout)

		api.GET("/products", prods.List)
		api.GET("/products/:id", prods.Detail)

		admin := api.Group("/", middleware.RequireAdmin())
		{
			admin.POST("products/:id/images", prods.UploadImage)
			admin.DELETE("products/:id/images/:imageID", prods.DeleteImage)
		}

		api.POST("/checkout/create-paypal-order", middleware.RequireAuth(), checkoutLimit, co.CreatePayPalOrder)
		api.POST("/checkout/capture-paypal-order", middleware.RequireAuth(), checkoutLimit, co.CapturePayPalOrder)

		api.GET("/orders/:id", middleware.RequireAuth(), co.Order)
	}

	return r
}
