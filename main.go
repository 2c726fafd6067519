package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"teashop/config"
	"teashop/controllers"
	"teashop/events"
	"teashop/middleware"
	"teashop/payments"
	"teashop/routes"
	"teashop/services"
	"teashop/store"
	"teashop/utils"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Log.WithError(err).Fatal("load config")
	}
	utils.ConfigureLogger(cfg.Log.Level, cfg.Log.Format)

	utils.JwtKey = []byte(cfg.Session.Secret)
	utils.SessionTTL = cfg.Session.TTL

	postage, err := decimal.NewFromString(cfg.Shop.Postage)
	if err != nil || postage.IsNegative() {
		utils.Log.WithField("postage", cfg.Shop.Postage).Fatal("SHOP_POSTAGE must be a non-negative amount")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	client, err := utils.ConnectDB(ctx, cfg.Mongo.URI)
	if err != nil {
		utils.Log.WithError(err).Fatal("connect to MongoDB")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			utils.Log.WithError(err).Warn("disconnect MongoDB")
		}
	}()
	db := client.Database(cfg.Mongo.Database)
	if err := store.EnsureIndexes(ctx, db); err != nil {
		utils.Log.WithError(err).Fatal("ensure indexes")
	}

	provider, err := payments.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.Currency)
	if err != nil {
		utils.Log.WithError(err).Fatal("payment provider")
	}

	sender, err := utils.NewEmailSender(cfg.Email.Provider, cfg.Email.PostmarkToken, cfg.Email.SendgridKey, cfg.Email.Sender, cfg.Email.SenderName)
	if err != nil {
		utils.Log.WithError(err).Fatal("email sender")
	}
	emailService := utils.NewEmailService(sender, cfg.Shop.BaseURL)

	var locker services.Locker = store.NoopLocker{}
	if cfg.Redis.Addr != "" {
		rdb := store.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			utils.Log.WithError(err).Warn("redis unreachable, relying on the payment_id index for idempotency")
		}
		locker = store.NewRedisLocker(rdb)
	} else {
		utils.Log.Warn("REDIS_ADDR not set, order creation lock disabled")
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Shop.Name, 1024)
		producer.Start()
		defer producer.Close()
		publisher = producer
	}

	products := store.NewProductRepository(db)
	orders := store.NewOrderRepository(db)
	users := store.NewUserRepository(db)
	categories := store.NewCategoryRepository(db)

	deps := services.Deps{
		Products: products,
		Orders:   orders,
		Users:    users,
		Payments: provider,
		Locker:   locker,
		Notifier: emailService,
		Events:   publisher,
	}
	checkout := services.NewCheckout(deps, postage)
	orderService := services.NewOrders(deps)

	sessions := middleware.NewSessions(cfg.Session.CookieName, cfg.Session.Secure, users)
	authLimiter := middleware.NewRateLimiter(20, 5)
	authLimiter.StartCleanup(10*time.Minute, ctx.Done())

	// Set up the router
	router := mux.NewRouter()
	routes.RegisterRoutes(router, routes.Controllers{
		Users:      controllers.NewUserController(users, emailService, sessions),
		Categories: controllers.NewCategoryController(categories),
		Products:   controllers.NewProductController(products),
		Cart:       controllers.NewCartController(checkout),
		Checkout:   controllers.NewCheckoutController(checkout),
		Orders:     controllers.NewOrderController(checkout, orderService, orders),
	}, sessions, authLimiter)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		utils.Log.WithField("addr", srv.Addr).WithField("env", cfg.Environment).Info("server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Log.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	utils.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Log.WithError(err).Error("graceful shutdown")
	}
}
