package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/admincp"
	"github.com/kitabiapp/kitabi/core/certificate"
	"github.com/kitabiapp/kitabi/core/device"
	"github.com/kitabiapp/kitabi/core/exercise"
	"github.com/kitabiapp/kitabi/core/gamify"
	"github.com/kitabiapp/kitabi/core/reading"
	"github.com/kitabiapp/kitabi/core/session"
	"github.com/kitabiapp/kitabi/core/user"
)

type (
	ServerDeps struct {
		Conf   *core.Config
		Logger core.Logger

		UserSvc        user.ServiceInterface
		DeviceSvc      *device.Service
		SessionSvc     *session.Service
		ReadingSvc     *reading.Service
		ExerciseSvc    *exercise.Service
		GamifySvc      *gamify.Service
		CertificateSvc *certificate.Service
		AdminCPSvc     *admincp.Service

		Validate   *validator.Validate
		Translator ut.Translator

		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))
	sess := sessionMiddleware(s.deps.SessionSvc, conf)

	registerUserAPI(v1, jwt, s.deps)
	registerReadingAPI(v1, sess, s.deps)
	registerExerciseAPI(v1, sess, s.deps)
	registerGamifyAPI(v1, sess, s.deps)
	registerCertificateAPI(v1, sess, s.deps)
	registerAdminCPAPI(v1, jwt, sess, s.deps)
}

func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.ServerAddress()); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errs }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Kitabi API!")
}
