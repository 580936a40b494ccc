package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sentinelos/dispatch/internal/infrastructure/monitoring"
	"github.com/sentinelos/dispatch/internal/sched/inproc"
	"github.com/sentinelos/dispatch/internal/spm/handle"
	"github.com/sentinelos/dispatch/internal/spm/message"
	"github.com/sentinelos/dispatch/internal/spm/registry"
	"github.com/sentinelos/dispatch/internal/spm/rpc"
	"github.com/sentinelos/dispatch/internal/spm/types"
)

// Handlers serves the read-only inspection API of the dispatch daemon.
type Handlers struct {
	reg        *registry.Registry
	handles    *handle.Table
	pool       *message.Pool
	metrics    *monitoring.Metrics
	shim       *rpc.Shim
	router     *rpc.Router
	completion *inproc.Completion
}

// NewHandlers creates the handler set.
func NewHandlers(
	reg *registry.Registry,
	handles *handle.Table,
	pool *message.Pool,
	metrics *monitoring.Metrics,
	shim *rpc.Shim,
	router *rpc.Router,
	completion *inproc.Completion,
) *Handlers {
	return &Handlers{
		reg:        reg,
		handles:    handles,
		pool:       pool,
		metrics:    metrics,
		shim:       shim,
		router:     router,
		completion: completion,
	}
}

// Root handles health checks.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "online",
		"service":           "spm-dispatch",
		"framework_version": h.shim.FrameworkVersion(),
	})
}

// Services lists the registered service descriptors.
func (h *Handlers) Services(c *gin.Context) {
	services := h.reg.List()

	out := make([]gin.H, 0, len(services))
	for _, s := range services {
		out = append(out, gin.H{
			"sid":                s.SID,
			"name":               s.Name,
			"minor_version":      s.MinorVersion,
			"non_secure_clients": s.NonSecureClients,
			"partition":          s.Partition,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"services": out,
	})
}

// Connections lists live client connections.
func (h *Handlers) Connections(c *gin.Context) {
	conns := h.handles.List()

	out := make([]gin.H, 0, len(conns))
	for _, conn := range conns {
		out = append(out, gin.H{
			"handle":     conn.Handle,
			"sid":        conn.Service.SID,
			"service":    conn.Service.Name,
			"client_id":  conn.ClientID,
			"ns_caller":  conn.NSCaller,
			"created_at": conn.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"connections": out,
	})
}

// Stats reports dispatch core resource usage.
func (h *Handlers) Stats(c *gin.Context) {
	h.metrics.UpdateUptime()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"services":        h.reg.Len(),
			"connections":     h.handles.Len(),
			"pool_in_use":     h.pool.InUse(),
			"pool_capacity":   h.pool.Capacity(),
			"transport_bound": h.router.Registered(),
		},
	})
}

// Metrics serves the Prometheus scrape endpoint.
func (h *Handlers) Metrics() gin.HandlerFunc {
	handler := promhttp.HandlerFor(h.metrics.Registry(), promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.metrics.UpdateUptime()
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

type versionQuery struct {
	SID       uint32 `json:"sid" binding:"required"`
	NonSecure bool   `json:"non_secure"`
}

// VersionQuery submits a service version query the way a mailbox client
// would: the request is parked as a pending transport request, then the
// generic request signal is raised. Unknown and unauthorized both come
// back as the none sentinel, so this is safe to expose.
func (h *Handlers) VersionQuery(c *gin.Context) {
	var q versionQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	result := make(chan uint32, 1)
	err := h.completion.Submit(func() {
		result <- h.shim.Version(&rpc.ClientParams{SID: types.SID(q.SID)}, q.NonSecure)
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	h.router.HandleRequest()

	select {
	case v := <-result:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"version": v,
			"none":    v == types.VersionNone,
		})
	case <-time.After(time.Second):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"success": false,
			"error":   "request not processed",
		})
	}
}
