package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	ticketAuth "github.com/MrEthical07/ticketAuth"
	"github.com/MrEthical07/ticketAuth/middleware"
)

// CheckFunc reports whether one dependency is reachable.
type CheckFunc func(ctx context.Context) error

type loginRequest struct {
	Mobile   string `form:"mobile" json:"mobile"`
	Password string `form:"password" json:"password"`
}

type userView struct {
	ID            string    `json:"id"`
	Nickname      string    `json:"nickname"`
	Head          string    `json:"head,omitempty"`
	RegisterDate  time.Time `json:"registerDate,omitzero"`
	LastLoginDate time.Time `json:"lastLoginDate,omitzero"`
	LoginCount    uint32    `json:"loginCount"`
}

type namedCheck struct {
	name string
	fn   CheckFunc
}

// Handler owns the API routes.
type Handler struct {
	engine  *ticketAuth.Engine
	logger  *slog.Logger
	metrics http.Handler
	checks  []namedCheck
}

// NewHandler returns a Handler for engine. A nil logger selects
// slog.Default().
func NewHandler(engine *ticketAuth.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine: engine,
		logger: logger.With("component", "httpapi"),
	}
}

// WithMetrics mounts h at GET /metrics.
func (h *Handler) WithMetrics(metrics http.Handler) *Handler {
	h.metrics = metrics
	return h
}

// WithHealthCheck adds a dependency probed by GET /healthz.
func (h *Handler) WithHealthCheck(name string, fn CheckFunc) *Handler {
	h.checks = append(h.checks, namedCheck{name: name, fn: fn})
	sort.Slice(h.checks, func(i, j int) bool { return h.checks[i].name < h.checks[j].name })
	return h
}

// RegisterRoutes adds every route to r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/login/doLogin", h.doLogin)
	r.GET("/healthz", h.healthz)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}

	user := r.Group("/user")
	user.Use(middleware.GinRequireIdentity(h.engine, func(c *gin.Context) {
		fail(c, http.StatusUnauthorized, CodeSessionError, msgSessionError)
	}))
	user.GET("/info", h.userInfo)
}

func (h *Handler) doLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBindError, msgBindPrefix+msgMalformedBody)
		return
	}

	ctx := ticketAuth.WithClientIP(c.Request.Context(), c.ClientIP())
	c.Request = c.Request.WithContext(ctx)

	ticket, err := h.engine.LoginHTTP(c.Writer, c.Request, ticketAuth.Credentials{
		Identifier: req.Mobile,
		Password:   req.Password,
	})
	if err != nil {
		status, env := loginFailure(err)
		if status == http.StatusInternalServerError {
			h.logger.ErrorContext(ctx, "login failed", "error", err)
		}
		c.AbortWithStatusJSON(status, env)
		return
	}

	success(c, ticket)
}

func (h *Handler) userInfo(c *gin.Context) {
	id, ok := middleware.IdentityFromGin(c)
	if !ok {
		fail(c, http.StatusUnauthorized, CodeSessionError, msgSessionError)
		return
	}
	success(c, userView{
		ID:            id.UserID,
		Nickname:      id.Nickname,
		Head:          id.Head,
		RegisterDate:  id.RegisterDate,
		LastLoginDate: id.LastLoginDate,
		LoginCount:    id.LoginCount,
	})
}

func (h *Handler) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := make(map[string]string)
	for _, check := range h.checks {
		if err := check.fn(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "check", check.name, "error", err)
			failed[check.name] = "unavailable"
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
