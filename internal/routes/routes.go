package routes

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/example/cottonstyle/internal/checkout"
	"github.com/example/cottonstyle/internal/config"
	"github.com/example/cottonstyle/internal/handlers"
	"github.com/example/cottonstyle/internal/middleware"
	"github.com/example/cottonstyle/internal/otp"
	"github.com/example/cottonstyle/internal/redisx"
	"github.com/example/cottonstyle/internal/repository"
)

// Dependencies are the long-lived clients the routes are built on.
type Dependencies struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Mailer   otp.Mailer
	Gateway  checkout.PaymentGateway
	Events   checkout.OrderEventPublisher
	Notifier checkout.Notifier
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, cfg *config.Config, deps Dependencies) {
	users := repository.NewUserRepository(deps.DB)
	resetTokens := repository.NewResetTokenRepository(deps.DB)
	shops := repository.NewShopRepository(deps.DB)
	coupons := repository.NewCouponRepository(deps.DB)
	orders := repository.NewOrderRepository(deps.DB)
	addresses := repository.NewAddressRepository(deps.DB)

	otpService := otp.NewService(users, resetTokens, deps.Mailer, otp.Config{
		CodeTTL:   cfg.OTP.TTL,
		TicketTTL: cfg.OTP.TicketTTL,
	})
	checkoutService := checkout.NewService(checkout.Deps{
		Drafts:    checkout.NewRedisStore(deps.Redis, cfg.Checkout.SessionTTL),
		Coupons:   coupons,
		Users:     users,
		Addresses: addresses,
		Orders:    orders,
		Gateway:   deps.Gateway,
		Events:    deps.Events,
		Notifier:  deps.Notifier,
		Currency:  cfg.Currency,
	})

	authHandler := handlers.NewAuthHandler(users, cfg.JWTSecret, cfg.TokenExpires())
	passwordHandler := handlers.NewPasswordResetHandler(otpService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	shopHandler := handlers.NewShopHandler(shops, coupons)
	orderHandler := handlers.NewOrderHandler(orders)
	profileHandler := handlers.NewProfileHandler(users, addresses)

	app.Get("/healthz", handlers.Health(map[string]handlers.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := deps.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return redisx.Ping(ctx, deps.Redis)
		},
	}))

	api := app.Group("/api", middleware.RequestTimeout(cfg.RequestTimeout))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Password reset
	user := api.Group("/user")
	user.Post("/forgot-password", passwordHandler.ForgotPassword)
	user.Post("/verify-otp", passwordHandler.VerifyOTP)
	user.Post("/reset-password", passwordHandler.ResetPassword)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret))

	protected.Put("/user/password", passwordHandler.ChangePassword)
	protected.Get("/user/profile", profileHandler.GetProfile)
	protected.Put("/user/profile", profileHandler.UpdateProfile)
	protected.Get("/user/addresses", profileHandler.ListAddresses)
	protected.Post("/user/addresses", profileHandler.CreateAddress)
	protected.Put("/user/addresses/:id", profileHandler.UpdateAddress)
	protected.Delete("/user/addresses/:id", profileHandler.DeleteAddress)

	protected.Post("/checkout", checkoutHandler.Start)
	protected.Get("/checkout", checkoutHandler.Get)
	protected.Delete("/checkout", checkoutHandler.Abandon)
	protected.Post("/checkout/address", checkoutHandler.SetAddress)
	protected.Post("/checkout/submit", checkoutHandler.Submit)

	protected.Post("/coupon/apply", checkoutHandler.ApplyCoupon)
	protected.Delete("/coupon", checkoutHandler.RemoveCoupon)

	protected.Post("/shops", shopHandler.CreateShop)
	protected.Get("/shops/:id/coupons", shopHandler.ListCoupons)
	protected.Post("/shops/:id/coupons", shopHandler.CreateCoupon)
	protected.Delete("/shops/:id/coupons/:couponId", shopHandler.DeleteCoupon)

	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
}
