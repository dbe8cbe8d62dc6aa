package api

import (
	"net/http"
	"strconv"
	"time"

	"marketplace-storefront/internal/authstate"
	"marketplace-storefront/internal/cart"
	"marketplace-storefront/internal/checkout"
	"marketplace-storefront/internal/messaging"
	"marketplace-storefront/internal/storefront"
	"marketplace-storefront/internal/util"
	"marketplace-storefront/internal/validation"
	"marketplace-storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BadgeSource supplies the navigation badges.
type BadgeSource interface {
	Snapshot() worker.Badges
}

// Handler exposes the page containers as JSON views
type Handler struct {
	auth     *authstate.Manager
	pages    *storefront.Storefront
	cart     *cart.Page
	counter  *cart.Counter
	checkout *checkout.Wizard
	messages *messaging.Page
	badges   BadgeSource
	logger   *zap.Logger
}

type Deps struct {
	Auth     *authstate.Manager
	Pages    *storefront.Storefront
	Cart     *cart.Page
	Counter  *cart.Counter
	Checkout *checkout.Wizard
	Messages *messaging.Page
	Badges   BadgeSource
}

// NewHandler creates a new HTTP handler
func NewHandler(d Deps) *Handler {
	return &Handler{
		auth:     d.Auth,
		pages:    d.Pages,
		cart:     d.Cart,
		counter:  d.Counter,
		checkout: d.Checkout,
		messages: d.Messages,
		badges:   d.Badges,
		logger:   util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	ui := router.Group("/ui")
	{
		ui.GET("/nav", h.nav)

		ui.POST("/login", h.login)
		ui.POST("/register", h.register)
		ui.POST("/logout", h.logout)
		ui.POST("/forgot-password", h.forgotPassword)
		ui.POST("/reset-password", h.resetPassword)
		ui.POST("/contact", h.contact)

		ui.GET("/home", h.home)
		ui.GET("/browse", h.browse)
		ui.POST("/browse/filter", h.browseFilter)
		ui.POST("/browse/page", h.browsePage)
		ui.POST("/browse/reset", h.browseReset)
		ui.GET("/products/:id", h.productDetail)
		ui.GET("/sellers/:id", h.seller)
	}

	authed := ui.Group("", h.requireAuth)
	{
		authed.POST("/products/:id/cart", h.addToCart)
		authed.POST("/products/:id/reviews", h.submitReview)
		authed.DELETE("/reviews/:id", h.deleteReview)
		authed.POST("/reports", h.report)

		authed.GET("/cart", h.cartView)
		authed.PUT("/cart/items/:productId", h.cartUpdate)
		authed.POST("/cart/items/:productId/increment", h.cartIncrement)
		authed.POST("/cart/items/:productId/decrement", h.cartDecrement)
		authed.DELETE("/cart/items/:productId", h.cartRemove)
		authed.DELETE("/cart", h.cartClear)
		authed.POST("/cart/validate", h.cartValidate)

		authed.GET("/checkout", h.checkoutView)
		authed.POST("/checkout/field", h.checkoutField)
		authed.POST("/checkout/next", h.checkoutNext)
		authed.POST("/checkout/back", h.checkoutBack)
		authed.POST("/checkout/submit", h.checkoutSubmit)
		authed.POST("/checkout/reset", h.checkoutReset)

		authed.GET("/messages", h.messagesView)
		authed.GET("/messages/compose", h.messagesCompose)
		authed.GET("/messages/:id", h.messagesSelect)
		authed.POST("/messages/send", h.messagesSend)
		authed.POST("/messages/refresh", h.messagesRefresh)
		authed.POST("/messages/close", h.messagesClose)

		authed.GET("/orders", h.orders)
		authed.GET("/orders/:id", h.order)
		authed.POST("/orders/:id/cancel", h.cancelOrder)

		authed.GET("/profile", h.profile)
		authed.PUT("/profile", h.updateProfile)
		authed.POST("/profile/avatar", h.uploadAvatar)
		authed.POST("/profile/password", h.changePassword)
		authed.PUT("/profile/preferences", h.savePreferences)
		authed.DELETE("/profile", h.deleteAccount)

		authed.GET("/listings", h.listings)
		authed.POST("/listings", h.createListing)
		authed.PUT("/listings/:id", h.updateListing)
		authed.DELETE("/listings/:id", h.deleteListing)
		authed.POST("/listings/:id/images", h.uploadListingImages)
		authed.DELETE("/listings/:id/images/:imageId", h.removeListingImage)
		authed.PUT("/listings/:id/images/:imageId/main", h.setMainImage)
		authed.POST("/listings/:id/specifications", h.addSpecification)
		authed.PUT("/listings/:id/specifications/:specId", h.updateSpecification)
		authed.DELETE("/listings/:id/specifications/:specId", h.removeSpecification)

		authed.GET("/admin", h.adminDashboard)
		authed.PUT("/admin/reports/:id/status", h.adminReportStatus)
		authed.DELETE("/admin/reports/:id", h.adminDeleteReport)
		authed.POST("/admin/categories", h.adminSaveCategory)
		authed.PUT("/admin/categories/:id", h.adminSaveCategory)
		authed.DELETE("/admin/categories/:id", h.adminDeleteCategory)
		authed.DELETE("/admin/users/:id", h.adminDeleteUser)
		authed.POST("/admin/listings/:id/approve", h.adminApproveListing)
		authed.POST("/admin/listings/:id/reject", h.adminRejectListing)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the session has been hydrated
func (h *Handler) readinessCheck(c *gin.Context) {
	if h.auth.State().Loading {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "hydrating",
			"time":   time.Now().Unix(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) nav(c *gin.Context) {
	state := h.auth.State()
	badges := worker.Badges{}
	if state.Authenticated {
		if h.badges != nil {
			badges = h.badges.Snapshot()
		}
		badges.CartCount = h.counter.Count()
	}
	c.JSON(http.StatusOK, gin.H{
		"auth":           state,
		"cartCount":      badges.CartCount,
		"unreadMessages": badges.UnreadMessages,
	})
}

// requireAuth sends signed-out callers to the login screen.
func (h *Handler) requireAuth(c *gin.Context) {
	if !h.auth.IsAuthenticated() {
		redirectToLogin(c)
		c.Abort()
		return
	}
	c.Next()
}

func redirectToLogin(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"redirect": "/login"})
}

// render writes a page view with the status code its failure state implies.
func render(c *gin.Context, st storefront.Status, errs validation.FieldErrors, body interface{}) {
	switch {
	case st.Unauthorized:
		redirectToLogin(c)
	case st.Forbidden:
		c.JSON(http.StatusForbidden, body)
	case st.NotFound:
		c.JSON(http.StatusNotFound, body)
	case len(errs) > 0:
		c.JSON(http.StatusUnprocessableEntity, body)
	default:
		c.JSON(http.StatusOK, body)
	}
}

// renderSession writes a view of a stateful page. A 401 seen while
// producing it has already logged the user out.
func (h *Handler) renderSession(c *gin.Context, body interface{}) {
	if !h.auth.IsAuthenticated() {
		redirectToLogin(c)
		return
	}
	c.JSON(http.StatusOK, body)
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return false
	}
	return true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
