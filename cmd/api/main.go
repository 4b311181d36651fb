package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/svillagran/tienda-backend/api/routes"
	"github.com/svillagran/tienda-backend/internal/auth"
	"github.com/svillagran/tienda-backend/internal/cart"
	"github.com/svillagran/tienda-backend/internal/checkout"
	"github.com/svillagran/tienda-backend/internal/discounts"
	"github.com/svillagran/tienda-backend/internal/earnings"
	"github.com/svillagran/tienda-backend/internal/orders"
	"github.com/svillagran/tienda-backend/internal/products"
	"github.com/svillagran/tienda-backend/internal/users"
	"github.com/svillagran/tienda-backend/pkg/auth/session"
	"github.com/svillagran/tienda-backend/pkg/config"
	"github.com/svillagran/tienda-backend/pkg/db"
	"github.com/svillagran/tienda-backend/pkg/logger"
	"github.com/svillagran/tienda-backend/pkg/mercadopago"
	"github.com/svillagran/tienda-backend/pkg/metrics"
	"github.com/svillagran/tienda-backend/pkg/migrate"
	"github.com/svillagran/tienda-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api exited with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		closeErr := dbClient.Close()
		return multierr.Append(err, closeErr)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		closeErr := dbClient.Close()
		return multierr.Append(err, closeErr)
	}

	cleanup := func() error {
		return multierr.Combine(redisClient.Close(), dbClient.Close())
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return multierr.Append(err, cleanup())
	}

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	productsRepo := products.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	discountsRepo := discounts.NewRepository(gormDB)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return multierr.Append(err, cleanup())
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		UserRepo:       userRepo,
		Tx:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return multierr.Append(err, cleanup())
	}

	productService, err := products.NewService(productsRepo, dbClient)
	if err != nil {
		return multierr.Append(err, cleanup())
	}

	discountService, err := discounts.NewService(discountsRepo, productsRepo)
	if err != nil {
		return multierr.Append(err, cleanup())
	}

	cartService, err := cart.NewService(cartRepo, productsRepo)
	if err != nil {
		return multierr.Append(err, cleanup())
	}

	orderService, err := orders.NewService(ordersRepo)
	if err != nil {
		return multierr.Append(err, cleanup())
	}

	earningsStore := earnings.SelectStore(ctx, dbClient, gormDB, cfg.Earnings, logg)
	earningsService, err := earnings.NewService(earningsStore)
	if err != nil {
		return multierr.Append(err, cleanup())
	}

	mpClient, err := mercadopago.NewClient(ctx, cfg.MercadoPago, logg)
	if err != nil {
		return multierr.Append(err, cleanup())
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	checkoutService, err := checkout.NewService(
		cartRepo,
		ordersRepo,
		productsRepo,
		earningsService,
		dbClient,
		mpClient,
		checkoutMetrics,
		cfg.MercadoPago,
		cfg.Checkout,
		logg,
	)
	if err != nil {
		return multierr.Append(err, cleanup())
	}

	router := routes.NewRouter(routes.Deps{
		Config:          cfg,
		Logger:          logg,
		DB:              dbClient,
		Redis:           redisClient,
		Sessions:        sessionManager,
		Registry:        registry,
		AuthService:     authService,
		RegisterService: registerService,
		ProductService:  productService,
		DiscountService: discountService,
		CartService:     cartService,
		CheckoutService: checkoutService,
		OrderService:    orderService,
		EarningsService: earningsService,
		UserRepo:        userRepo,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return multierr.Append(err, cleanup())
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	err = multierr.Append(err, <-errCh)
	return multierr.Append(err, cleanup())
}
