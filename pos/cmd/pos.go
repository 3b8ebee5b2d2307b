package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/inframex/pos/catalog"
	"github.com/inframex/pos/internal/config"
	"github.com/inframex/pos/internal/constants"
	inErrors "github.com/inframex/pos/internal/errors"
	"github.com/inframex/pos/internal/infra"
	"github.com/inframex/pos/internal/log"
	"github.com/inframex/pos/internal/middleware"
	"github.com/inframex/pos/internal/otel"
	"github.com/inframex/pos/pos/internal/controller"
	posOtel "github.com/inframex/pos/pos/internal/otel"
	"github.com/inframex/pos/pos/internal/service"
)

func RunPosService(c context.Context) {
	c, span := posOtel.Tracer.Start(c, "RunPosService")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppPos).
		Str(log.KeyTag, "main RunPosService").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "init config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, "pos")
	logger = logger.With().Any(log.KeyConfig, cfg).Logger()
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(constants.AppPos),
		middleware.Logging,
		middleware.RecoverPanic,
	)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	logger.Info().Msg("initialized router")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	otelShutdowns, err := otel.InitOtelSdk(c, constants.AppPos, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		c = logger.WithContext(c)
		err = otel.ShutdownOtel(c, otelShutdowns)
		if err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing catalog").Logger()
	logger.Info().Msg("initializing catalog")
	c = logger.WithContext(c)
	var productCatalog catalog.Catalog
	if cfg.Database.Host != "" {
		pool := infra.NewDatabaseClient(c, cfg.Database)
		defer func() {
			logger = logger.With().Str(log.KeyProcess, "shutting down database").Logger()
			logger.Info().Msg("shutting down database")
			pool.Close()
			logger.Info().Msg("shutdown database")
		}()
		productCatalog = catalog.NewPostgresCatalog(pool)
	} else {
		logger.Info().Msg("no database configured, using in-memory catalog with seed products")
		productCatalog = catalog.NewMemoryCatalog(catalog.SeedProducts()...)
	}
	if cfg.Cache.Host != "" {
		cache := infra.NewCacheClient(c, cfg.Cache)
		defer func() {
			logger = logger.With().Str(log.KeyProcess, "shutting down cache").Logger()
			logger.Info().Msg("shutting down cache")
			err = cache.Close()
			if err != nil {
				err = fmt.Errorf("failed shutting down cache with error=%w", err)
				inErrors.HandleError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				return
			}
			logger.Info().Msg("shutdown cache")
		}()
		productCatalog = catalog.NewCachedCatalog(productCatalog, cache)
	}
	logger.Info().Msg("initialized catalog")

	logger = logger.With().Str(log.KeyProcess, "initializing pos service").Logger()
	logger.Info().Msg("initializing pos service")
	posService := service.NewPosService(productCatalog)
	logger.Info().Msg("initialized pos service")

	logger = logger.With().Str(log.KeyProcess, "initializing pos controller").Logger()
	logger.Info().Msg("initializing pos controller")
	controller.AttachPosController(router, posService)
	logger.Info().Msg("initialized pos controller")

	logger = logger.With().Str(log.KeyProcess, "initializing server").Logger()
	logger.Info().Msg("initializing server")
	httpServer := http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext:  func(net.Listener) context.Context { return c },
		Handler:      router,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	logger.Info().Msg("initialized server")

	go func() {
		logger = logger.With().Str(log.KeyProcess, "start server").Logger()
		logger.Info().Msgf("start listening request at %s", httpServer.Addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("error=%w occured while server is running", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())

			c = logger.WithContext(c)
			if err := otel.ShutdownOtel(c, otelShutdowns); err != nil {
				err = fmt.Errorf("failed shutting down otel with error=%w", err)
				inErrors.HandleError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				return
			}
			return
		}
		logger.Info().Msg("shutdown server")
	}()

	<-c.Done()
	logger = logger.With().Str(log.KeyProcess, "shutting down http server").Logger()
	logger.Info().Msg("received interuption signal shutting down")
	err = httpServer.Shutdown(c)
	if err != nil {
		err = fmt.Errorf("failed shutting down http server with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("shutdown http server")
}
