package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/svillagran/tienda-backend/api/controllers"
	"github.com/svillagran/tienda-backend/api/middleware"
	authsvc "github.com/svillagran/tienda-backend/internal/auth"
	cartsvc "github.com/svillagran/tienda-backend/internal/cart"
	checkoutsvc "github.com/svillagran/tienda-backend/internal/checkout"
	discountsvc "github.com/svillagran/tienda-backend/internal/discounts"
	earningsvc "github.com/svillagran/tienda-backend/internal/earnings"
	ordersvc "github.com/svillagran/tienda-backend/internal/orders"
	productsvc "github.com/svillagran/tienda-backend/internal/products"
	usersvc "github.com/svillagran/tienda-backend/internal/users"
	"github.com/svillagran/tienda-backend/pkg/auth/session"
	"github.com/svillagran/tienda-backend/pkg/config"
	"github.com/svillagran/tienda-backend/pkg/db"
	"github.com/svillagran/tienda-backend/pkg/enums"
	"github.com/svillagran/tienda-backend/pkg/logger"
	"github.com/svillagran/tienda-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs. Grouping them in a struct
// keeps NewRouter's signature stable as endpoints come and go.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Registry *prometheus.Registry

	AuthService     authsvc.Service
	RegisterService authsvc.RegisterService
	ProductService  productsvc.Service
	DiscountService discountsvc.Service
	CartService     cartsvc.Service
	CheckoutService checkoutsvc.Service
	OrderService    ordersvc.Service
	EarningsService earningsvc.Service
	UserRepo        *usersvc.Repository
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterUsernameLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).
			With(middleware.Idempotency(deps.Redis, logg)).
			Post("/register", controllers.AuthRegister(deps.RegisterService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	// Public catalog. No auth; browsing never requires an account.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(deps.ProductService, logg))
		r.Get("/{id}", controllers.GetProduct(deps.ProductService, logg))
		r.Get("/{id}/discounts", controllers.GetProductDiscounts(deps.DiscountService, logg))
	})
	r.Get("/api/v1/categories", controllers.ListCategories(deps.ProductService, logg))

	// Payment provider redirect targets. The provider calls these with the
	// buyer's browser, so they carry no bearer token; reconciliation trusts
	// the external reference plus the unique payment id instead.
	r.Route("/api/payments", func(r chi.Router) {
		r.Get("/success", controllers.PaymentSuccess(deps.CheckoutService, logg))
		r.Get("/failure", controllers.PaymentFailure(deps.CheckoutService, logg))
		r.Get("/pending", controllers.PaymentPending(deps.CheckoutService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.CartService, logg))
			r.Post("/items", controllers.CartAddItem(deps.CartService, logg))
			r.Put("/items", controllers.CartSetQuantity(deps.CartService, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.CartService, logg))
			r.Delete("/", controllers.CartClear(deps.CartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListMyOrders(deps.OrderService, logg))
			r.Get("/{id}", controllers.GetOrder(deps.OrderService, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.CheckoutService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(deps.ProductService, logg))
			r.Put("/{id}", controllers.AdminUpdateProduct(deps.ProductService, logg))
			r.Delete("/{id}", controllers.AdminDeleteProduct(deps.ProductService, logg))
			r.Post("/{id}/categories/{categoryId}", controllers.AdminAddProductCategory(deps.ProductService, logg))
			r.Delete("/{id}/categories/{categoryId}", controllers.AdminRemoveProductCategory(deps.ProductService, logg))
			r.Put("/{id}/discounts", controllers.AdminUpsertDiscountTier(deps.DiscountService, logg))
			r.Delete("/{id}/discounts/{minQty}", controllers.AdminRemoveDiscountTier(deps.DiscountService, logg))
		})

		r.Post("/categories", controllers.AdminCreateCategory(deps.ProductService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(deps.OrderService, logg))
			r.Put("/{id}/status", controllers.AdminUpdateOrderStatus(deps.OrderService, logg))
		})

		r.Route("/earnings", func(r chi.Router) {
			r.Get("/", controllers.AdminGetEarnings(deps.EarningsService, logg))
			r.Put("/percentage", controllers.AdminSetEarningsPercentage(deps.EarningsService, logg))
		})

		r.Get("/users", controllers.AdminListUsers(deps.UserRepo, logg))
	})

	return r
}
