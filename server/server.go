// Package server assembles the HTTP server: echo instance, middleware
// stack and the /api/v1 services.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/auralabs/auraglow/internal/profile"
	apiv1 "github.com/auralabs/auraglow/server/router/api/v1"
	"github.com/auralabs/auraglow/store"
)

type Server struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	apiService *apiv1.APIV1Service
}

func NewServer(ctx context.Context, serverProfile *profile.Profile, st *store.Store) (*Server, error) {
	e := echo.New()
	e.Debug = serverProfile.IsDev()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			slog.Error("panic recovered in handler",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()))
			return err
		},
	}))
	e.Use(requestLogger())
	e.Use(echomw.TimeoutWithConfig(echomw.TimeoutConfig{
		Timeout: 60 * time.Second,
	}))

	server := &Server{
		Secret:     serverProfile.Secret,
		Profile:    serverProfile,
		Store:      st,
		echoServer: e,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": serverProfile.Version,
		})
	})

	apiService, err := apiv1.NewAPIV1Service(serverProfile.Secret, serverProfile, st)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create API v1 service")
	}
	apiService.Register(e)
	server.apiService = apiService

	return server, nil
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server listening",
		slog.String("address", address),
		slog.String("mode", s.Profile.Mode),
		slog.String("version", s.Profile.Version))
	if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server gracefully", slog.String("error", err.Error()))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", slog.String("error", err.Error()))
	}
	slog.Info("server stopped")
}

// requestLogger logs one line per request with latency and status.
func requestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Int64("latency_ms", v.Latency.Milliseconds()),
			}
			if v.Status >= http.StatusInternalServerError {
				slog.Error("request", attrs...)
			} else {
				slog.Info("request", attrs...)
			}
			return nil
		},
	})
}
