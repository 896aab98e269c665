package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/kitabiapp/kitabi/apps/api/echo"
	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/admincp"
	"github.com/kitabiapp/kitabi/core/certificate"
	"github.com/kitabiapp/kitabi/core/device"
	"github.com/kitabiapp/kitabi/core/exercise"
	"github.com/kitabiapp/kitabi/core/gamify"
	"github.com/kitabiapp/kitabi/core/reading"
	"github.com/kitabiapp/kitabi/core/session"
	"github.com/kitabiapp/kitabi/core/user"
	emailsvc "github.com/kitabiapp/kitabi/services/email"
	logsvc "github.com/kitabiapp/kitabi/services/logger"
	"github.com/kitabiapp/kitabi/storage/database"
	inmemdb "github.com/kitabiapp/kitabi/storage/database/inmem"
	sqlxrepos "github.com/kitabiapp/kitabi/storage/database/sqlx"
)

var build = "dev" // set via ldflags

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig(build)
	if err != nil {
		log.Fatalf("loading config: %+v", err)
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrSvc := user.NewService(db, sqlxrepos.NewUserRepository(db), mailSvc, conf)
	deviceSvc := device.NewService(sqlxrepos.NewDeviceRepository(db))
	sessionSvc := session.NewService(
		sqlxrepos.NewSessionRepository(db),
		inmemdb.NewFallbackSessionRepository(),
		conf, logger,
	)
	readingSvc := reading.NewService(sqlxrepos.NewReadingRepository(db))
	gamifySvc := gamify.NewService(sqlxrepos.NewGamifyRepository(db), logger)
	exerciseSvc := exercise.NewService(db, sqlxrepos.NewExerciseRepository(db), gamifySvc, logger)
	certSvc := certificate.NewService(sqlxrepos.NewCertificateRepository(db), readingSvc, mailSvc, conf)
	adminCPSvc := admincp.NewService(sqlxrepos.NewAdminCPRepository(db))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)
	exercise.RegisterValidators(validate, translator)

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		DeviceSvc:      deviceSvc,
		SessionSvc:     sessionSvc,
		ReadingSvc:     readingSvc,
		ExerciseSvc:    exerciseSvc,
		GamifySvc:      gamifySvc,
		CertificateSvc: certSvc,
		AdminCPSvc:     adminCPSvc,
		Validate:       validate,
		Translator:     translator,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}
