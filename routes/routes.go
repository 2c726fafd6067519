package routes

import (
	"net/http"

	"teashop/controllers"
	"teashop/metrics"
	"teashop/middleware"

	"github.com/gorilla/mux"
)

// Controllers groups everything the router dispatches to.
type Controllers struct {
	Users      *controllers.UserController
	Categories *controllers.CategoryController
	Products   *controllers.ProductController
	Cart       *controllers.CartController
	Checkout   *controllers.CheckoutController
	Orders     *controllers.OrderController
}

var h = middleware.Handle

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, c Controllers, sessions *middleware.Sessions, authLimiter *middleware.RateLimiter) {
	router.Use(middleware.LoggingMiddleware, metrics.Middleware, sessions.Middleware)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// Auth routes
	auth := api.PathPrefix("/auth").Subrouter()
	auth.Use(authLimiter.Handler)
	auth.HandleFunc("/register", h(c.Users.Register)).Methods(http.MethodPost)
	auth.HandleFunc("/login", h(c.Users.Login)).Methods(http.MethodPost)
	auth.HandleFunc("/logout", h(c.Users.Logout)).Methods(http.MethodPost)
	auth.HandleFunc("/verify", h(c.Users.VerifyEmail)).Methods(http.MethodGet)
	auth.HandleFunc("/verify/resend", h(c.Users.ResendVerification)).Methods(http.MethodPost)
	auth.HandleFunc("/password/forgot", h(c.Users.RequestPasswordReset)).Methods(http.MethodPost)
	auth.HandleFunc("/password/reset", h(c.Users.ResetPassword)).Methods(http.MethodPost)

	// Catalog routes
	api.HandleFunc("/categories", h(c.Categories.GetCategories)).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id}", h(c.Categories.GetCategoryByID)).Methods(http.MethodGet)
	api.HandleFunc("/products", h(c.Products.GetProducts)).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", h(c.Products.GetProductByID)).Methods(http.MethodGet)

	// Checkout routes, open to guests
	api.HandleFunc("/orders/validate", h(c.Cart.ValidateCart)).Methods(http.MethodPost)
	api.HandleFunc("/checkout/payment-intent", h(c.Checkout.CreatePaymentIntent)).Methods(http.MethodPost)
	api.HandleFunc("/orders", h(c.Orders.CreateOrder)).Methods(http.MethodPost)

	// Protected routes
	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/users/me", h(c.Users.GetProfile)).Methods(http.MethodGet)
	protected.HandleFunc("/users/me", h(c.Users.UpdateProfile)).Methods(http.MethodPut)
	protected.HandleFunc("/orders", h(c.Orders.GetOrders)).Methods(http.MethodGet)
	protected.HandleFunc("/orders/{id}", h(c.Orders.GetOrder)).Methods(http.MethodGet)

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AuthMiddleware, middleware.AdminMiddleware)
	admin.HandleFunc("/users", h(c.Users.ListUsers)).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}", h(c.Users.GetUser)).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}", h(c.Users.UpdateUser)).Methods(http.MethodPut)
	admin.HandleFunc("/users/{id}", h(c.Users.DeleteUser)).Methods(http.MethodDelete)
	admin.HandleFunc("/categories", h(c.Categories.CreateCategory)).Methods(http.MethodPost)
	admin.HandleFunc("/categories/{id}", h(c.Categories.UpdateCategory)).Methods(http.MethodPut)
	admin.HandleFunc("/categories/{id}", h(c.Categories.DeleteCategory)).Methods(http.MethodDelete)
	admin.HandleFunc("/products", h(c.Products.GetAllProducts)).Methods(http.MethodGet)
	admin.HandleFunc("/products", h(c.Products.CreateProduct)).Methods(http.MethodPost)
	admin.HandleFunc("/products/{id}", h(c.Products.UpdateProduct)).Methods(http.MethodPut)
	admin.HandleFunc("/products/{id}", h(c.Products.DeleteProduct)).Methods(http.MethodDelete)
	admin.HandleFunc("/orders/{id}/status", h(c.Orders.UpdateOrderStatus)).Methods(http.MethodPut)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
}
