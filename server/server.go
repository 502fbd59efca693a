package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/fayaz1010/Iqra/internal/curriculum"
	"github.com/fayaz1010/Iqra/internal/profile"
	"github.com/fayaz1010/Iqra/internal/version"
	"github.com/fayaz1010/Iqra/server/internal/observability"
	ratelimit "github.com/fayaz1010/Iqra/server/middleware"
	apiv1 "github.com/fayaz1010/Iqra/server/router/api/v1"
	"github.com/fayaz1010/Iqra/server/runner/reminder"
	"github.com/fayaz1010/Iqra/server/service/progress"
	"github.com/fayaz1010/Iqra/server/service/review"
	"github.com/fayaz1010/Iqra/store"
)

// requestTimeout bounds the work a single API request may do.
const requestTimeout = 30 * time.Second

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer        *echo.Echo
	reminderRunner    *reminder.Runner
	runnerCancelFuncs []context.CancelFunc
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Mode    string `json:"mode"`
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	c, err := curriculum.Default()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load curriculum")
	}

	s := &Server{
		Store:   store,
		Profile: profile,
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.HTTPErrorHandler = apiv1.HTTPErrorHandler
	s.echoServer = echoServer

	metrics := observability.GlobalMetrics()
	limiter := ratelimit.NewRateLimiter(profile.RateLimitPerSecond, profile.RateLimitBurst)
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, observability.HeaderRequestID},
	}))
	echoServer.Use(observability.RequestLogger(slog.Default(), metrics))
	echoServer.Use(limiter.Middleware())
	echoServer.Use(middleware.ContextTimeout(requestTimeout))

	// Register healthz endpoint.
	echoServer.GET("/healthz", func(c echo.Context) error {
		if err := s.Store.GetDriver().GetDB().PingContext(c.Request().Context()); err != nil {
			return errors.Wrap(err, "database unavailable")
		}
		return c.JSON(http.StatusOK, healthResponse{
			Status:  "ok",
			Version: profile.Version,
			Mode:    profile.Mode,
		})
	})

	progressService := progress.NewService(store)
	reviewService := review.NewService(store, c,
		review.WithProgressRecorder(progressService),
		review.WithMaxDailyReviews(profile.MaxDailyReviews),
	)
	apiV1Service := apiv1.NewAPIV1Service(profile, reviewService, progressService, c, metrics)
	apiV1Service.RegisterRoutes(echoServer)

	s.reminderRunner = reminder.NewRunner(store, progressService)

	slog.Debug("server initialized", slog.String("version", version.GetCurrentVersion(profile.Mode)))
	return s, nil
}

func (s *Server) Start(ctx context.Context) error {
	var address, network string
	if len(s.Profile.UNIXSock) == 0 {
		address = fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
		network = "tcp"
	} else {
		address = s.Profile.UNIXSock
		network = "unix"
	}
	listener, err := net.Listen(network, address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}

	go func() {
		s.echoServer.Listener = listener
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	s.StartBackgroundRunners(ctx)

	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	// Cancel all background runners
	for _, cancelFunc := range s.runnerCancelFuncs {
		if cancelFunc != nil {
			cancelFunc()
		}
	}

	// Shutdown echo server.
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	// Close database connection.
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}

	slog.Info("iqra stopped properly")
}

func (s *Server) StartBackgroundRunners(ctx context.Context) {
	reminderCtx, reminderCancel := context.WithCancel(ctx)
	s.runnerCancelFuncs = append(s.runnerCancelFuncs, reminderCancel)

	go func() {
		s.reminderRunner.Run(reminderCtx)
	}()
	slog.Info("started background runners", slog.String("runners", "reminder"))
}
