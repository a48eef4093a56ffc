package routes

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/controllers"
	"storefront/logger"
	"storefront/middlewares"
	"storefront/sessions"
	"storefront/utils"
)

// Deps are what the router needs beyond the handlers themselves.
type Deps struct {
	Controller  *controllers.Controller
	Tokens      *utils.TokenManager
	Denylist    sessions.Denylist
	Limiter     *middlewares.RateLimiter
	FrontendURL string
}

// SetupRouter builds the engine with every API route registered.
func SetupRouter(d Deps) *gin.Engine {
	if d.Denylist == nil {
		d.Denylist = sessions.NoopDenylist{}
	}
	h := d.Controller
	auth := middlewares.AuthMiddleware(d.Tokens, d.Denylist)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())
	r.Use(middlewares.PrometheusMiddleware())
	r.Use(middlewares.CORS(d.FrontendURL))

	limited := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		if d.Limiter == nil {
			return []gin.HandlerFunc{handler}
		}
		return []gin.HandlerFunc{d.Limiter.Middleware(), handler}
	}

	api := r.Group("/api")

	// ─────────── Auth ───────────
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", limited(h.Register)...)
		authGroup.POST("/login", limited(h.Login)...)
		authGroup.GET("/me", auth, h.Me)
		authGroup.POST("/logout", auth, h.Logout)
	}

	// ─────────── Catalog ───────────
	products := api.Group("/products")
	{
		products.GET("", h.GetProducts)
		products.GET("/categories/list", h.GetCategories)
		products.GET("/:id", h.GetProduct)
	}

	// ─────────── Cart ───────────
	cart := api.Group("/cart")
	cart.Use(auth)
	{
		cart.GET("", h.GetCart)
		cart.POST("/add", h.AddToCart)
		cart.PUT("/update/:cartId", h.UpdateCartItem)
		cart.DELETE("/remove/:productId", h.RemoveFromCart)
		cart.DELETE("/clear", h.ClearCart)
	}

	// ─────────── Orders ───────────
	orders := api.Group("/orders")
	orders.Use(auth)
	{
		orders.POST("/create", h.CreateOrder)
		orders.GET("", h.GetUserOrders)
		orders.GET("/:id", h.GetOrderDetails)
	}

	api.POST("/contact", limited(h.SubmitContact)...)
	api.GET("/health", h.Health)
	api.GET("/debug/routes", listRoutes(r))
	r.GET("/metrics", middlewares.MetricsHandler())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found", "path": c.Request.URL.RequestURI()})
	})

	return r
}

type routeInfo struct {
	Path    string   `json:"path"`
	Methods []string `json:"methods"`
}

func listRoutes(r *gin.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		byPath := map[string][]string{}
		for _, route := range r.Routes() {
			byPath[route.Path] = append(byPath[route.Path], strings.ToLower(route.Method))
		}

		routes := make([]routeInfo, 0, len(byPath))
		for path, methods := range byPath {
			sort.Strings(methods)
			routes = append(routes, routeInfo{Path: path, Methods: methods})
		}
		sort.Slice(routes, func(i, j int) bool { return routes[i].Path < routes[j].Path })

		c.JSON(http.StatusOK, gin.H{"routes": routes})
	}
}
