package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"inference/internal/api"
	"inference/internal/config"
	"inference/internal/download"
	"inference/internal/extract"
	fileutil "inference/internal/file"
)

func main() {

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load("config.yml")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if err := fileutil.EnsureDir(cfg.ModelsDir); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.ModelsDir).Msg("ensure models dir")
	}

	coordinator := buildCoordinator(cfg)
	pipeline := buildPipeline(cfg)

	router := setupRouter()
	wireAPI(router, coordinator, pipeline, cfg.ModelsDir)

	baseCtx, baseCancel := context.WithCancel(context.Background())
	coordinator.SetBaseContext(baseCtx)

	const (
		readHeaderTimeout = 5 * time.Second
		shutdownTimeout   = 10 * time.Second
	)

	srv := newHTTPServer(cfg.Port, router, readHeaderTimeout)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdownSignal()

	gracefulShutdown(srv, baseCancel, coordinator, shutdownTimeout)
}

func setupRouter() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(api.RequestLogger())
	return r
}

func buildCoordinator(cfg config.Config) *download.Coordinator {
	store := download.NewReadinessStore(cfg.ModelsDir)
	fetcher := download.NewAssetFetcher(store, download.AssetFetcherOptions{
		AssetURLs:    cfg.ModelAssetURLs,
		FetchTimeout: cfg.FetchTimeout(),
	})
	return download.NewCoordinator(download.NewRegistry(), store, fetcher)
}

func buildPipeline(cfg config.Config) *extract.Pipeline {
	var tools *extract.Tools
	if cfg.OCR.Enabled {
		tools = extract.NewTools(extract.ToolsConfig{
			Tesseract: cfg.OCR.Tesseract,
			Pdftotext: cfg.OCR.Pdftotext,
			Pdftoppm:  cfg.OCR.Pdftoppm,
			Language:  cfg.OCR.Language,
			DPI:       cfg.OCR.DPI,
		})
	}
	return extract.NewPipeline(tools)
}

func wireAPI(router *gin.Engine, coordinator *download.Coordinator, pipeline *extract.Pipeline, modelsDir string) {
	apiHandler := api.NewAPI(coordinator, pipeline, modelsDir)
	apiHandler.RegisterRoutes(router)
}

func newHTTPServer(port int, handler http.Handler, readHeaderTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func waitForShutdownSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")
}

func gracefulShutdown(srv *http.Server, cancelBase context.CancelFunc, coordinator *download.Coordinator, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown warning")
	}

	cancelBase()
	done := coordinator.WaitAll(ctx)
	if !done {
		log.Warn().Msg("background downloads did not finish before timeout")
	}
	log.Info().Msg("server exited cleanly")
}
