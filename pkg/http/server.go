package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"CostCast/pkg/http/middleware"
	applogger "CostCast/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes is implemented by every handler mounted on the server.
type Routes interface {
	RegisterRoutes(e *echo.Echo)
}

// ServerConfig describes the HTTP front of the service.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// CORSOrigins lists allowed browser origins; "*" allows any, empty disables CORS.
	CORSOrigins []string
	// TrustedProxies are CIDRs whose X-Forwarded-For is believed. When empty
	// the client address is the socket peer.
	TrustedProxies []string
	// MetricsPath serves Prometheus; empty disables it.
	MetricsPath   string
	SlowThreshold time.Duration
}

// Server wraps the Echo instance serving the API.
type Server struct {
	echo *echo.Echo
	addr string
	l    *applogger.Logger
}

func NewServer(cfg ServerConfig, l *applogger.Logger, routes ...Routes) (*Server, error) {
	if l == nil {
		l = applogger.NewNop()
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	extractor, err := ipExtractor(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout
	e.IPExtractor = extractor
	e.HTTPErrorHandler = errorHandler(l)

	e.Use(middleware.Recover(l))
	e.Use(middleware.RequestID())
	e.Use(middleware.Observe(l, cfg.SlowThreshold))
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORS(cfg.CORSOrigins))
	}

	for _, r := range routes {
		if r != nil {
			r.RegisterRoutes(e)
		}
	}
	if cfg.MetricsPath != "" {
		e.GET(cfg.MetricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	return &Server{echo: e, addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), l: l}, nil
}

func ipExtractor(trusted []string) (echo.IPExtractor, error) {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect(), nil
	}
	opts := []echo.TrustOption{echo.TrustLoopback(false), echo.TrustLinkLocal(false), echo.TrustPrivateNet(false)}
	for _, cidr := range trusted {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", cidr, err)
		}
		opts = append(opts, echo.TrustIPRange(ipnet))
	}
	return echo.ExtractIPFromXFFHeader(opts...), nil
}

// Start listens in the background.
func (s *Server) Start() error {
	go func() {
		s.l.Info("http server listening", applogger.String("addr", s.addr))
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.l.Error("http server error", applogger.Error(err))
		}
	}()
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.l.Info("http server stopped")
	return nil
}

// Echo exposes the router, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
