package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"restaurant/cmd"
	httpin "restaurant/internal/adapters/in/http"
	"restaurant/internal/adapters/out/persistence"
	"restaurant/internal/core/ports"
	"restaurant/internal/pkg/logging"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	configs, err := cmd.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger := logging.New(configs.LogLevel)

	gormDB, err := openDatabase(configs, logger)
	if err != nil {
		logger.WithError(err).Fatal("cannot open database")
	}

	app := cmd.NewCompositionRoot(configs, gormDB, logger)

	var publishers []ports.OrderPublisher
	relay, err := app.ConnectRelay()
	switch {
	case err != nil:
		logger.WithError(err).Warn("order relay disabled")
	case relay != nil:
		publishers = append(publishers, relay)
		defer func() {
			if err := relay.Close(); err != nil {
				logger.WithError(err).Warn("cannot close order relay")
			}
		}()
	}

	jobManager := app.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		logger.WithError(err).Fatal("cannot start jobs")
	}
	defer jobManager.StopAll()

	server := app.CreateHTTPServer(app.CreateOrderService(publishers...))
	if err := startWebServer(server, configs, logger, app.Hub().Close); err != nil {
		logger.WithError(err).Error("web server stopped")
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func openDatabase(configs cmd.Config, logger logrus.FieldLogger) (*gorm.DB, error) {
	gormDB, err := persistence.Open(configs.Database(), logger)
	if err != nil {
		return nil, err
	}
	if err := persistence.Migrate(gormDB); err != nil {
		return nil, err
	}
	return gormDB, nil
}

// startWebServer serves until SIGINT or SIGTERM, then drains in-flight requests. Streams
// never end on their own, so closeStreams runs before the drain.
func startWebServer(
	server *httpin.Server,
	configs cmd.Config,
	logger logrus.FieldLogger,
	closeStreams func(),
) error {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(echoLogLevel(configs.LogLevel))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	doc, err := httpin.LoadOpenAPI()
	if err != nil {
		return err
	}
	validator, err := httpin.RequestValidator(doc)
	if err != nil {
		return err
	}
	e.Use(validator)
	httpin.RegisterHandlers(e, server)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort))
	}()
	logger.WithField("port", configs.HTTPPort).Info("web server started")

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), configs.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	closeStreams()
	return e.Shutdown(shutdownCtx)
}

func echoLogLevel(level string) log.Lvl {
	switch level {
	case "debug", "trace":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error", "fatal", "panic":
		return log.ERROR
	default:
		return log.INFO
	}
}
