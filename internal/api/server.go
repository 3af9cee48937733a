package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/onenet-console/internal/audit"
	"github.com/nerrad567/onenet-console/internal/auth"
	"github.com/nerrad567/onenet-console/internal/device"
	"github.com/nerrad567/onenet-console/internal/infrastructure/config"
	"github.com/nerrad567/onenet-console/internal/infrastructure/database"
	"github.com/nerrad567/onenet-console/internal/infrastructure/influxdb"
	"github.com/nerrad567/onenet-console/internal/infrastructure/logging"
	"github.com/nerrad567/onenet-console/internal/onenet"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// EventPublisher mirrors console events onto the message bus.
// Satisfied by *mqtt.Client.
type EventPublisher interface {
	PublishCacheEvent(event any) error
	PublishDatapoints(deviceID string, points any) error
	IsConnected() bool
}

// DatapointWriter mirrors numeric datapoints into time-series storage.
// Satisfied by *influxdb.Client.
type DatapointWriter interface {
	WriteDatapoints(points []influxdb.Datapoint) int
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	OneNET   config.OneNETConfig
	Console  config.ConsoleConfig
	Logger   *logging.Logger

	Cache  *device.Cache
	OneNet *onenet.Client
	// Minter turns the configured v2 user id and access key into a token
	// when the browser sends no Authorization header.
	Minter onenet.TokenMinter

	// Optional.
	DB       *database.DB
	Sessions *auth.Sessions
	Events   EventPublisher
	Mirror   DatapointWriter
	Activity audit.Log

	Version string
}

// Server is the console's HTTP API server.
//
// It proxies browser requests to OneNET, keeps the device cache in step
// with device queries and fans cache changes out to WebSocket clients and
// the message bus.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	secCfg    config.SecurityConfig
	onenetCfg config.OneNETConfig
	console   config.ConsoleConfig
	logger    *logging.Logger

	cache    *device.Cache
	onenet   *onenet.Client
	minter   onenet.TokenMinter
	db       *database.DB
	sessions *auth.Sessions
	events   EventPublisher
	mirror   DatapointWriter

	activity     audit.Log
	activityCh   chan *audit.Entry
	activityDone chan struct{}

	version   string
	startTime time.Time
	server    *http.Server
	hub       *Hub
	cancel    context.CancelFunc
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Cache == nil {
		return nil, fmt.Errorf("device cache is required")
	}
	if deps.OneNet == nil {
		return nil, fmt.Errorf("onenet client is required")
	}
	if deps.Security.ConsoleAuth.Enabled && deps.Sessions == nil {
		return nil, fmt.Errorf("console auth is enabled but no session manager was provided")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		secCfg:    deps.Security,
		onenetCfg: deps.OneNET,
		console:   deps.Console,
		logger:    deps.Logger,
		cache:     deps.Cache,
		onenet:    deps.OneNet,
		minter:    deps.Minter,
		db:        deps.DB,
		sessions:  deps.Sessions,
		events:    deps.Events,
		mirror:    deps.Mirror,
		version:   deps.Version,
		startTime: time.Now(),
		hub:       NewHub(deps.WS, deps.Logger),
	}
	if deps.Activity != nil {
		s.activity = deps.Activity
		s.activityCh = make(chan *audit.Entry, activityChanSize)
	}

	s.hub.snapshot = s.subscriptionSnapshot
	s.cache.OnChange(s.handleCacheChange)
	return s, nil
}

// Start begins listening for HTTP connections in the background.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)
	if s.activity != nil {
		s.activityDone = make(chan struct{})
		go func() {
			defer close(s.activityDone)
			s.drainActivity(srvCtx)
		}()
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to 10 seconds
// for in-flight requests.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)

	// Queued activity is flushed before the database goes away.
	if s.activityDone != nil {
		select {
		case <-s.activityDone:
		case <-ctx.Done():
		}
	}

	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}

// subscriptionSnapshot returns the first event for a new WebSocket
// subscription. Datapoint subscribers start empty.
func (s *Server) subscriptionSnapshot(channel string) (any, bool) {
	if channel != ChannelCacheDevices {
		return nil, false
	}
	return s.cache.Snapshot(), true
}

// handleCacheChange fans a committed cache mutation out to WebSocket
// subscribers and the message bus. Runs after the cache lock is released.
func (s *Server) handleCacheChange(change device.Change) {
	s.hub.Broadcast(ChannelCacheDevices, change)

	if s.events == nil {
		return
	}
	if err := s.events.PublishCacheEvent(change); err != nil {
		s.logger.Warn("publishing cache change failed", "op", change.Op, "error", err)
	}
}
