// Package api exposes the storefront state over HTTP.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/auth"
	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/models"
	"storefront-service/internal/order"
	"storefront-service/internal/wishlist"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog  *catalog.Service
	cart     *cart.Service
	wishlist *wishlist.Service
	orders   *order.Service
	auth     *auth.Service
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalogSvc *catalog.Service,
	cartSvc *cart.Service,
	wishlistSvc *wishlist.Service,
	orderSvc *order.Service,
	authSvc *auth.Service,
) *Handler {
	return &Handler{
		catalog:  catalogSvc,
		cart:     cartSvc,
		wishlist: wishlistSvc,
		orders:   orderSvc,
		auth:     authSvc,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", h.login)

		protected := v1.Group("")
		protected.Use(h.authRequired())
		{
			protected.POST("/auth/logout", h.logout)
			protected.GET("/auth/me", h.currentUser)

			protected.GET("/products", h.listProducts)
			protected.GET("/products/categories", h.listCategories)
			protected.GET("/products/:id", h.getProduct)
			protected.GET("/products/:id/reviews", h.listReviews)
			protected.POST("/products/:id/reviews", h.submitReview)
			protected.GET("/products/:id/recommendations", h.listRecommendations)

			protected.GET("/recently-viewed", h.listRecentlyViewed)
			protected.POST("/recently-viewed", h.addRecentlyViewed)

			protected.GET("/cart", h.getCart)
			protected.POST("/cart/items", h.addToCart)
			protected.PATCH("/cart/items/:id", h.updateCartItem)
			protected.DELETE("/cart/items/:id", h.removeFromCart)
			protected.DELETE("/cart", h.clearCart)
			protected.POST("/cart/items/:id/save", h.saveForLater)
			protected.POST("/cart/saved/:id/move", h.moveToCart)
			protected.DELETE("/cart/saved/:id", h.removeFromSaved)

			protected.GET("/wishlist", h.getWishlist)
			protected.POST("/wishlist", h.addToWishlist)
			protected.DELETE("/wishlist/:id", h.removeFromWishlist)
			protected.DELETE("/wishlist", h.clearWishlist)

			protected.GET("/shipping-methods", h.listShippingMethods)
			protected.POST("/orders", h.placeOrder)
			protected.GET("/orders", h.listOrders)
			protected.GET("/orders/:id", h.getOrder)
			protected.PATCH("/orders/:id/status", h.updateOrderStatus)
			protected.PATCH("/orders/:id/tracking", h.updateOrderTracking)
			protected.DELETE("/orders", h.clearOrders)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

type loginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	user, err := h.auth.Login(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"token": h.auth.Token(),
	})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) currentUser(c *gin.Context) {
	user := h.auth.User()
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No user in session"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) listProducts(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	if sortOption := c.Query("sort"); sortOption != "" {
		h.catalog.SetSortOption(sortOption)
	}

	_, total, err := h.catalog.FetchProducts(c.Request.Context(), catalog.ProductQuery{
		Skip:        skip,
		Limit:       limit,
		Category:    c.Query("category"),
		SearchQuery: c.Query("q"),
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch products", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":   h.catalog.SortedProducts(),
		"total":      total,
		"totalPages": h.catalog.TotalPages(),
	})
}

func (h *Handler) listCategories(c *gin.Context) {
	cats, err := h.catalog.FetchCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch categories", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	product, err := h.catalog.FetchProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch product", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *Handler) listReviews(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	reviews, err := h.catalog.FetchReviews(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load reviews", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *Handler) submitReview(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	var review models.Review
	if err := c.ShouldBindJSON(&review); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	summary, err := h.catalog.SubmitReview(c.Request.Context(), id, review)
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidRating) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit review", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, summary)
}

func (h *Handler) listRecommendations(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	recs, err := h.catalog.FetchRecommendations(c.Request.Context(), id, limit)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch recommendations", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

func (h *Handler) listRecentlyViewed(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": h.catalog.RecentlyViewed()})
}

func (h *Handler) addRecentlyViewed(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.catalog.AddRecentlyViewed(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record view", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": h.catalog.RecentlyViewed()})
}

func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"items":    h.cart.Items(),
		"saved":    h.cart.SavedItems(),
		"count":    h.cart.ItemCount(),
		"subtotal": h.cart.Subtotal(),
	})
}

func (h *Handler) addToCart(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.cart.AddToCart(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add to cart", "details": err.Error()})
		return
	}
	h.getCart(c)
}

type updateQuantityBody struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) updateCartItem(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	var body updateQuantityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.cart.UpdateQuantity(c.Request.Context(), id, body.Quantity); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart", "details": err.Error()})
		return
	}
	h.getCart(c)
}

func (h *Handler) removeFromCart(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	if err := h.cart.RemoveFromCart(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart", "details": err.Error()})
		return
	}
	h.getCart(c)
}

func (h *Handler) clearCart(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) saveForLater(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	if err := h.cart.SaveForLater(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save item", "details": err.Error()})
		return
	}
	h.getCart(c)
}

func (h *Handler) moveToCart(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	if err := h.cart.MoveToCart(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move item", "details": err.Error()})
		return
	}
	h.getCart(c)
}

func (h *Handler) removeFromSaved(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	if err := h.cart.RemoveFromSaved(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove saved item", "details": err.Error()})
		return
	}
	h.getCart(c)
}

func (h *Handler) getWishlist(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": h.wishlist.Items()})
}

func (h *Handler) addToWishlist(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.wishlist.Add(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add to wishlist", "details": err.Error()})
		return
	}
	h.getWishlist(c)
}

func (h *Handler) removeFromWishlist(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	if err := h.wishlist.Remove(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update wishlist", "details": err.Error()})
		return
	}
	h.getWishlist(c)
}

func (h *Handler) clearWishlist(c *gin.Context) {
	if err := h.wishlist.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear wishlist", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listShippingMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"methods": order.ShippingMethods()})
}

func (h *Handler) placeOrder(c *gin.Context) {
	var req order.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ord, err := h.orders.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		var addrErr *order.InvalidAddressError
		switch {
		case errors.As(err, &addrErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  "Invalid shipping address",
				"fields": addrErr.Fields,
			})
		case errors.Is(err, order.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, order.ErrInvalidStatus):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order", "details": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, ord)
}

func (h *Handler) listOrders(c *gin.Context) {
	if status := c.Query("status"); status != "" {
		c.JSON(http.StatusOK, gin.H{"orders": h.orders.OrdersByStatus(status)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": h.orders.Orders()})
}

func (h *Handler) getOrder(c *gin.Context) {
	ord, found := h.orders.OrderByID(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, ord)
}

type updateStatusBody struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	var body updateStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), body.Status); err != nil {
		if errors.Is(err, order.ErrInvalidStatus) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type updateTrackingBody struct {
	TrackingNumber    *string `json:"trackingNumber"`
	EstimatedDelivery *string `json:"estimatedDelivery"`
}

func (h *Handler) updateOrderTracking(c *gin.Context) {
	var body updateTrackingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.orders.UpdateTracking(c.Request.Context(), c.Param("id"), body.TrackingNumber, body.EstimatedDelivery); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) clearOrders(c *gin.Context) {
	if err := h.orders.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear orders", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return 0, false
	}
	return id, true
}
