package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clefeel/storefront/internal/apperr"
	"github.com/clefeel/storefront/internal/auth"
	"github.com/clefeel/storefront/internal/metrics"
	"github.com/clefeel/storefront/internal/middleware"
	"github.com/clefeel/storefront/internal/respond"
	"github.com/clefeel/storefront/internal/services"
	"github.com/clefeel/storefront/pkg/config"
	"github.com/gorilla/mux"
)

// Services groups the domain services the handlers call
type Services struct {
	Catalog   *services.CatalogService
	Cart      *services.CartService
	Orders    *services.OrderService
	Users     *services.UserService
	Enquiries *services.EnquiryService
	Admin     *services.AdminService
}

// App holds application dependencies
type App struct {
	config  *config.Config
	metrics *metrics.AppMetrics
	auth    *auth.Authenticator
	limiter middleware.Limiter
	svc     Services
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, m *metrics.AppMetrics, authn *auth.Authenticator, limiter middleware.Limiter, svc Services) *App {
	return &App{
		config:  cfg,
		metrics: m,
		auth:    authn,
		limiter: limiter,
		svc:     svc,
	}
}

// Handler builds the complete HTTP handler. Request ids, panic recovery
// and CORS wrap the router so they also apply to unmatched routes and
// preflight requests.
func (a *App) Handler() http.Handler {
	r := mux.NewRouter()
	a.SetupRoutes(r)

	var h http.Handler = r
	h = middleware.CORSMiddleware(a.config.CORSOrigin)(h)
	h = middleware.RecoverMiddleware(a.debug())(h)
	return middleware.RequestIDMiddleware(h)
}

// SetupRoutes configures the HTTP routes
func (a *App) SetupRoutes(r *mux.Router) {
	r.Use(middleware.MetricsMiddleware(a.metrics))

	r.HandleFunc("/health", a.HealthHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(a.rateLimit("api", a.config.RateLimitAPI))
	authLimit := a.rateLimit("auth", a.config.RateLimitAuth)

	user := func(h http.HandlerFunc) http.Handler { return a.auth.RequireAuth(h) }
	admin := func(h http.HandlerFunc) http.Handler { return a.auth.RequireAdmin(h) }

	// Auth
	api.Handle("/auth/register", authLimit(http.HandlerFunc(a.RegisterHandler))).Methods(http.MethodPost)
	api.Handle("/auth/login", authLimit(http.HandlerFunc(a.LoginHandler))).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify/{token}", a.VerifyEmailHandler).Methods(http.MethodGet)
	api.Handle("/auth/me", user(a.MeHandler)).Methods(http.MethodGet)
	api.Handle("/auth/profile", user(a.UpdateProfileHandler)).Methods(http.MethodPut)
	api.Handle("/auth/orders", user(a.MyOrdersHandler)).Methods(http.MethodGet)
	api.Handle("/auth/logout", user(a.LogoutHandler)).Methods(http.MethodPost)

	// Perfumes; fixed paths are registered before {slug} so they win
	api.HandleFunc("/perfumes", a.ListPerfumesHandler).Methods(http.MethodGet)
	api.HandleFunc("/perfumes/featured", a.FeaturedPerfumesHandler).Methods(http.MethodGet)
	api.Handle("/perfumes", admin(a.CreatePerfumeHandler)).Methods(http.MethodPost)
	api.Handle("/perfumes/variants/{variantId:[0-9]+}", admin(a.UpdateVariantHandler)).Methods(http.MethodPut)
	api.Handle("/perfumes/variants/{variantId:[0-9]+}", admin(a.DeleteVariantHandler)).Methods(http.MethodDelete)
	api.Handle("/perfumes/{id:[0-9]+}/variants", admin(a.AddVariantHandler)).Methods(http.MethodPost)
	api.Handle("/perfumes/{id:[0-9]+}", admin(a.UpdatePerfumeHandler)).Methods(http.MethodPut)
	api.Handle("/perfumes/{id:[0-9]+}", admin(a.DeletePerfumeHandler)).Methods(http.MethodDelete)
	api.HandleFunc("/perfumes/{slug}", a.GetPerfumeHandler).Methods(http.MethodGet)

	// Cart
	api.Handle("/cart", user(a.GetCartHandler)).Methods(http.MethodGet)
	api.Handle("/cart/count", user(a.CartCountHandler)).Methods(http.MethodGet)
	api.Handle("/cart/validate", user(a.ValidateCartHandler)).Methods(http.MethodGet)
	api.Handle("/cart", user(a.AddToCartHandler)).Methods(http.MethodPost)
	api.Handle("/cart", user(a.ClearCartHandler)).Methods(http.MethodDelete)
	api.Handle("/cart/{id:[0-9]+}", user(a.UpdateCartItemHandler)).Methods(http.MethodPut)
	api.Handle("/cart/{id:[0-9]+}", user(a.RemoveCartItemHandler)).Methods(http.MethodDelete)

	// Orders
	api.Handle("/orders", a.auth.OptionalAuth(http.HandlerFunc(a.CreateOrderHandler))).Methods(http.MethodPost)
	api.Handle("/orders/from-cart", user(a.CreateOrderFromCartHandler)).Methods(http.MethodPost)
	api.Handle("/orders/my-orders", user(a.MyOrdersHandler)).Methods(http.MethodGet)
	api.Handle("/orders/{id:[0-9]+}", user(a.GetOrderHandler)).Methods(http.MethodGet)

	// Enquiries
	api.HandleFunc("/enquiries", a.CreateEnquiryHandler).Methods(http.MethodPost)

	// Admin
	adm := api.PathPrefix("/admin").Subrouter()
	adm.Use(a.auth.RequireAdmin)
	adm.HandleFunc("/dashboard", a.DashboardHandler).Methods(http.MethodGet)
	adm.HandleFunc("/dashboard/recent-orders", a.RecentOrdersHandler).Methods(http.MethodGet)
	adm.HandleFunc("/orders", a.ListOrdersHandler).Methods(http.MethodGet)
	adm.HandleFunc("/orders/{id:[0-9]+}/status", a.UpdateOrderStatusHandler).Methods(http.MethodPut)
	adm.HandleFunc("/orders/{id:[0-9]+}/payment", a.UpdatePaymentHandler).Methods(http.MethodPut)
	adm.HandleFunc("/perfumes", a.AdminPerfumesHandler).Methods(http.MethodGet)
	adm.HandleFunc("/enquiries", a.ListEnquiriesHandler).Methods(http.MethodGet)
	adm.HandleFunc("/enquiries/{id:[0-9]+}", a.UpdateEnquiryHandler).Methods(http.MethodPut)

	if dir := a.config.StaticDir; dir != "" {
		r.PathPrefix("/").
			MatcherFunc(func(req *http.Request, _ *mux.RouteMatch) bool { return !strings.HasPrefix(req.URL.Path, "/api/") }).
			Methods(http.MethodGet, http.MethodHead).
			Handler(http.FileServer(http.Dir(dir)))
	}
	r.NotFoundHandler = http.HandlerFunc(a.NotFoundHandler)
	r.MethodNotAllowedHandler = http.HandlerFunc(a.MethodNotAllowedHandler)
}

func (a *App) rateLimit(name string, perWindow int) mux.MiddlewareFunc {
	limit := middleware.Limit{Rate: perWindow, Period: a.config.RateLimitWindow}
	return middleware.RateLimitMiddleware(a.limiter, name, limit, a.config.TrustProxy, a.metrics)
}

func (a *App) debug() bool {
	return a.config.IsDevelopment()
}

// HealthHandler handles health check requests
func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// NotFoundHandler answers unmatched routes
func (a *App) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, apperr.NotFound("route not found"), false)
}

// MethodNotAllowedHandler answers a known path called with the wrong method
func (a *App) MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func (a *App) fail(w http.ResponseWriter, err error) {
	respond.Error(w, err, a.debug())
}

func message(text string) map[string]string {
	return map[string]string{"message": text}
}

// pathID parses a numeric route variable
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// queryInt reads an integer query parameter; malformed values read as 0
// and fall back to the caller's default
func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}
