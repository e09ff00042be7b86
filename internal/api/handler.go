package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"voice-order-service/config"
	"voice-order-service/internal/hub"
	"voice-order-service/internal/models"
	"voice-order-service/internal/orders"
	"voice-order-service/internal/store"
	"voice-order-service/internal/token"
	"voice-order-service/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Cache is the Redis surface the handlers use: cached connection credentials
// plus the live per-room order record.
type Cache interface {
	SaveSession(ctx context.Context, identity, token, serverURL string, ttl time.Duration) error
	LoadSession(ctx context.Context, identity string) (token, serverURL string, err error)
	DeleteSession(ctx context.Context, identity string) error
	LoadCurrentOrder(ctx context.Context, room string) (*models.OrderRecord, error)
}

// Handler contains HTTP handlers
type Handler struct {
	tokens     *token.Manager
	hub        *hub.Hub
	cache      Cache
	store      *store.Store
	livekit    config.LiveKitConfig
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler. The Postgres store may be nil; the
// archive endpoints then report unavailable.
func NewHandler(tokens *token.Manager, h *hub.Hub, cache Cache, st *store.Store, livekit config.LiveKitConfig, sessionTTL time.Duration) *Handler {
	return &Handler{
		tokens:     tokens,
		hub:        h,
		cache:      cache,
		store:      st,
		livekit:    livekit,
		sessionTTL: sessionTTL,
		logger:     util.GetLogger(),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browser storefronts connect from a different origin in dev.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/token", h.createToken)
	router.GET("/ws", h.serveWebsocket)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/rooms/:room/checkout", h.confirmCheckout)
		v1.POST("/rooms/:room/orders/new", h.placeNewOrder)
		v1.GET("/rooms/:room/orders/current", h.getCurrentOrder)
		v1.GET("/rooms/:room/orders", h.listRoomOrders)
		v1.GET("/orders/history/:id", h.getArchivedOrder)
		v1.GET("/sessions/:identity", h.getSession)
		v1.DELETE("/sessions/:identity", h.deleteSession)
	}
}

// healthCheck reports liveness plus the realtime-server configuration the
// storefront needs to decide whether voice is available.
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"livekit_url": h.livekit.ServerURL,
		"has_key":     h.tokens.Configured(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

type tokenRequest struct {
	RoomName       string `json:"room_name"`
	Identity       string `json:"identity"`
	Metadata       string `json:"metadata,omitempty"`
	ExpiresInHours int    `json:"expires_in_hours,omitempty"`
}

// createToken mints a room access token for a storefront or agent
// participant.
func (h *Handler) createToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if strings.TrimSpace(req.RoomName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room_name is required"})
		return
	}

	identity := strings.TrimSpace(req.Identity)
	if identity == "" {
		// Anonymous kiosk visitors get an ephemeral guest identity.
		identity = models.NewGuestIdentity()
	}

	ttl := time.Duration(req.ExpiresInHours) * time.Hour
	if ttl <= 0 {
		ttl = time.Duration(h.livekit.TokenTTLHours) * time.Hour
	}

	signed, err := h.tokens.Mint(req.RoomName, identity, req.Metadata, ttl)
	if errors.Is(err, token.ErrMissingCredentials) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "LiveKit configuration is missing on the server.",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to mint token",
			"details": err.Error(),
		})
		return
	}

	if err := h.cache.SaveSession(c.Request.Context(), identity, signed, h.livekit.ServerURL, h.sessionTTL); err != nil {
		h.logger.Warn("Failed to cache session credentials",
			zap.String("identity", identity),
			zap.Error(err))
	}

	util.TokensIssuedTotal.Inc()
	c.JSON(http.StatusOK, gin.H{
		"token":    signed,
		"url":      h.livekit.ServerURL,
		"identity": identity,
	})
}

// getSession returns cached connection credentials so the storefront can move
// between views without re-fetching a token.
func (h *Handler) getSession(c *gin.Context) {
	identity := c.Param("identity")

	signed, serverURL, err := h.cache.LoadSession(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load session",
			"details": err.Error(),
		})
		return
	}
	if signed == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cached session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"identity": identity,
		"token":    signed,
		"url":      serverURL,
	})
}

// deleteSession drops cached credentials, e.g. when the customer ends the
// visit before the TTL expires.
func (h *Handler) deleteSession(c *gin.Context) {
	if err := h.cache.DeleteSession(c.Request.Context(), c.Param("identity")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to delete session",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// serveWebsocket upgrades the connection and joins the client to its room.
// The access token doubles as the websocket credential.
func (h *Handler) serveWebsocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is required"})
		return
	}

	claims, err := h.tokens.Verify(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	room := c.Query("room")
	if room == "" {
		room = claims.Video.Room
	}
	if room == "" || !claims.Video.RoomJoin || room != claims.Video.Room {
		c.JSON(http.StatusForbidden, gin.H{"error": "token does not grant this room"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	h.hub.Join(c.Request.Context(), room, claims.Subject, conn)
}

// confirmCheckout completes the mock payment flow for a connected room.
func (h *Handler) confirmCheckout(c *gin.Context) {
	sess := h.hub.Session(c.Param("room"))
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session for room"})
		return
	}

	rec, err := sess.ConfirmCheckout(c.Request.Context())
	if errors.Is(err, orders.ErrEmptyCart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to confirm order",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": rec})
}

// placeNewOrder discards the room's active order and resets its cart.
func (h *Handler) placeNewOrder(c *gin.Context) {
	sess := h.hub.Session(c.Param("room"))
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session for room"})
		return
	}

	if err := sess.PlaceNewOrder(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reset order",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// getCurrentOrder reads the live order record straight from Redis, serving
// kiosk status screens that are not in the websocket room.
func (h *Handler) getCurrentOrder(c *gin.Context) {
	rec, err := h.cache.LoadCurrentOrder(c.Request.Context(), c.Param("room"))
	if errors.Is(err, orders.ErrCorruptRecord) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no current order"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load order",
			"details": err.Error(),
		})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no current order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": rec})
}

// listRoomOrders returns the archived order history for a room, newest first.
func (h *Handler) listRoomOrders(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "order history is not configured"})
		return
	}

	records, err := h.store.GetOrdersByRoom(c.Request.Context(), c.Param("room"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list orders",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": records, "count": len(records)})
}

// getArchivedOrder returns one archived order with its item snapshot.
func (h *Handler) getArchivedOrder(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "order history is not configured"})
		return
	}

	rec, room, err := h.store.GetOrderRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Order not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": rec, "room": room})
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
