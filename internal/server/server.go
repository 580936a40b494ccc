package server

import (
	"fmt"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/sentinelos/dispatch/internal/api/http"
	"github.com/sentinelos/dispatch/internal/api/middleware"
	"github.com/sentinelos/dispatch/internal/api/ws"
	"github.com/sentinelos/dispatch/internal/infrastructure/config"
	"github.com/sentinelos/dispatch/internal/infrastructure/logging"
	"github.com/sentinelos/dispatch/internal/infrastructure/monitoring"
	"github.com/sentinelos/dispatch/internal/partitions"
	"github.com/sentinelos/dispatch/internal/sched/inproc"
	"github.com/sentinelos/dispatch/internal/spm/boundary"
	"github.com/sentinelos/dispatch/internal/spm/client"
	"github.com/sentinelos/dispatch/internal/spm/handle"
	"github.com/sentinelos/dispatch/internal/spm/message"
	"github.com/sentinelos/dispatch/internal/spm/registry"
	"github.com/sentinelos/dispatch/internal/spm/rpc"
	"github.com/sentinelos/dispatch/internal/spm/trap"
	"github.com/sentinelos/dispatch/internal/spm/types"
)

// Server assembles the dispatch core, the in-process mailbox, and the
// inspection API into one runnable daemon.
type Server struct {
	router     *gin.Engine
	httpServer *stdhttp.Server

	dispatcher *client.Dispatcher
	mailbox    *inproc.Mailbox
	rpcRouter  *rpc.Router
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// New wires a server from configuration.
func New(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing dispatch daemon",
		zap.String("port", cfg.Server.Port),
		zap.Int("msg_pool", cfg.Dispatch.MessagePool),
		zap.Int("queue_depth", cfg.Dispatch.QueueDepth),
	)

	metrics := monitoring.NewMetrics()

	// Simulated platform memory: one non-secure window in the lower half,
	// one secure window in the upper half.
	half := uint64(cfg.Dispatch.MemorySize) / 2
	layout := &boundary.Layout{
		NonSecure: []boundary.Window{{Base: 0, Len: half}},
		Secure:    []boundary.Window{{Base: half, Len: half}},
	}
	space := boundary.NewSimSpace(cfg.Dispatch.MemorySize, layout)

	reg := registry.New()
	for _, d := range []registry.Descriptor{
		{
			SID:          partitions.SIDStorage,
			Name:         "internal-trusted-storage",
			MinorVersion: 1,
			Policy:       types.PolicyStrict,
			Partition:    "storage",
		},
		{
			SID:              partitions.SIDCrypto,
			Name:             "crypto",
			MinorVersion:     1,
			Policy:           types.PolicyRelaxed,
			NonSecureClients: true,
			Partition:        "crypto",
		},
	} {
		if err := reg.Register(d); err != nil {
			return nil, fmt.Errorf("registering service %#x: %w", uint32(d.SID), err)
		}
	}
	reg.Seal()

	handles := handle.NewTable()
	pool := message.NewPool(cfg.Dispatch.MessagePool)
	rpcRouter := rpc.NewRouter()

	hub := ws.NewHub(logger.Named("ws"))

	mailbox := inproc.New(space, handles, rpcRouter, logger.Named("mailbox")).
		WithMetrics(metrics).
		WithSink(hub)
	if err := mailbox.RegisterPartition("storage", partitions.NewStorage(), cfg.Dispatch.QueueDepth); err != nil {
		return nil, err
	}
	if err := mailbox.RegisterPartition("crypto", partitions.NewCrypto(), cfg.Dispatch.QueueDepth); err != nil {
		return nil, err
	}

	processTrap := trap.NewProcess(logger.Named("trap"))
	dispatcher := client.New(reg, handles, boundary.NewValidator(space), pool, mailbox, processTrap, logger.Named("dispatch")).
		WithMetrics(metrics)
	shim := rpc.NewShim(dispatcher, processTrap)

	completion := inproc.NewCompletion(pool, cfg.Dispatch.QueueDepth).
		WithSink(hub).
		WithMetrics(metrics)
	if st := rpcRouter.Register(completion); st != types.StatusSuccess {
		return nil, fmt.Errorf("registering transport binding: %s", st)
	}

	mailbox.Start()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger.Named("http")))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.GlobalRateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(reg, handles, pool, metrics, shim, rpcRouter, completion)
	router.GET("/", handlers.Root)
	router.GET("/services", handlers.Services)
	router.GET("/connections", handlers.Connections)
	router.GET("/stats", handlers.Stats)
	router.GET("/metrics", handlers.Metrics())
	router.POST("/version-query", handlers.VersionQuery)
	router.GET("/events", hub.HandleConnection)

	return &Server{
		router:     router,
		dispatcher: dispatcher,
		mailbox:    mailbox,
		rpcRouter:  rpcRouter,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
	}, nil
}

// Run starts the inspection HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Dispatch daemon listening", zap.String("addr", addr))

	s.httpServer = &stdhttp.Server{
		Addr:    addr,
		Handler: s.router,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
		return err
	}
	return nil
}

// Close drains the mailbox and releases the transport binding.
func (s *Server) Close() error {
	if s.httpServer != nil {
		s.httpServer.Close()
	}
	s.mailbox.Stop()
	s.rpcRouter.Unregister()
	s.logger.Info("Dispatch daemon stopped")
	_ = s.logger.Sync()
	return nil
}
