package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"pricepipe/api"
	"pricepipe/config"
	"pricepipe/metrics"
	"pricepipe/models"
	"pricepipe/scheduler"
	"pricepipe/scraper/marketplace"
	"pricepipe/services"
	"pricepipe/storage"
	"pricepipe/utils"
)

const usage = `Usage: pricepipe <command> [flags]

Commands:
  scrape     scrape the configured marketplaces into *_products_cleaned.csv files
  load       rebuild product_master and product from INPUT_GLOB (destructive)
  recommend  compute today's price recommendations
  schedule   run recommend on RECOMMEND_SCHEDULE until interrupted
  serve      start the read API on HTTP_ADDR
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd := os.Args[1]

	cfg := config.Load()
	logger := utils.NewLoggerWithOptions(os.Stdout, cfg.LogLevel, cfg.LogFormat).
		With("run_id", uuid.NewString()).
		With("command", cmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cmd, os.Args[2:], cfg, logger); err != nil {
		logger.Error("%s failed: %v", cmd, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string, cfg *config.Config, logger *utils.Logger) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	var (
		skipInitial = fs.Bool("skip-initial", false, "schedule: do not run once at startup")
		date        = fs.String("date", "", "recommend: day to compute (YYYY-MM-DD), default today")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := cfg.Validate(cmd == "serve"); err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	switch cmd {
	case "scrape":
		defer pushMetrics(cfg, cmd, logger)
		return runScrape(ctx, cfg, loc, logger)
	case "load":
		defer pushMetrics(cfg, cmd, logger)
		return runLoad(ctx, cfg, loc, logger)
	case "recommend":
		day := time.Now().In(loc)
		if *date != "" {
			if day, err = time.ParseInLocation(time.DateOnly, *date, loc); err != nil {
				return fmt.Errorf("invalid -date %q: %w", *date, err)
			}
		}
		defer pushMetrics(cfg, cmd, logger)
		return runRecommend(ctx, cfg, day, logger)
	case "schedule":
		return runSchedule(ctx, cfg, loc, !*skipInitial, logger)
	case "serve":
		return runServe(ctx, cfg, loc, logger)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runScrape(ctx context.Context, cfg *config.Config, loc *time.Location, logger *utils.Logger) error {
	logger.Info("=== Marketplace scrape starting ===")
	logger.Info("Config: sources %v | concurrency: %d | rate: %dms | max products: %d",
		cfg.ScrapeSources, cfg.MaxConcurrency, cfg.RateLimitMs, cfg.ScrapeMaxProducts)

	files, err := marketplace.New(cfg, loc, logger).Run(ctx)
	for _, f := range files {
		logger.Info("Saved %s", f)
	}
	if err != nil && len(files) == 0 {
		return err
	}
	if err != nil {
		logger.Warn("Some sources failed: %v", err)
	}
	return nil
}

func runLoad(ctx context.Context, cfg *config.Config, loc *time.Location, logger *utils.Logger) error {
	if _, err := storage.FindInputFiles(cfg.InputGlob); err != nil {
		return err
	}

	store, err := storage.Open(ctx, cfg.DSN(), logger)
	if err != nil {
		logger.Error("Make sure PostgreSQL is running: docker compose up -d")
		return err
	}
	defer store.Close()

	ingestor := services.NewIngestor(store, logger, loc)
	if cache := openCache(ctx, cfg, logger); cache != nil {
		defer cache.Close()
		ingestor.WithCache(cache)
	}

	res, err := ingestor.Run(ctx, cfg.InputGlob)
	if err != nil {
		return err
	}
	logger.Info("Load complete: %d files, %d rows (%d flagged), %d masters, %d listings",
		len(res.Files), res.Rows, res.Flagged, res.Masters, res.Listings)
	return nil
}

func newRecommender(ctx context.Context, cfg *config.Config, store *storage.Store, logger *utils.Logger) (*services.Recommender, func()) {
	rec := services.NewRecommender(store, logger).WithReport(cfg.ReportPath)

	cache := openCache(ctx, cfg, logger)
	if cache == nil {
		return rec, func() {}
	}
	return rec.WithCache(cache), func() { _ = cache.Close() }
}

// openCache returns nil when Redis is not configured or not reachable; the
// pipeline then runs without a cache.
func openCache(ctx context.Context, cfg *config.Config, logger *utils.Logger) *storage.RecommendationCache {
	if cfg.RedisAddr == "" {
		return nil
	}
	cache, err := storage.NewRecommendationCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
	if err != nil {
		logger.Warn("Continuing without cache: %v", err)
		return nil
	}
	logger.Info("Connected to Redis at %s", cfg.RedisAddr)
	return cache
}

func runRecommend(ctx context.Context, cfg *config.Config, day time.Time, logger *utils.Logger) error {
	store, err := storage.Open(ctx, cfg.DSN(), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, closeCache := newRecommender(ctx, cfg, store, logger)
	defer closeCache()

	_, err = rec.RecommendFor(ctx, day)
	return err
}

func runSchedule(ctx context.Context, cfg *config.Config, loc *time.Location, runNow bool, logger *utils.Logger) error {
	store, err := storage.Open(ctx, cfg.DSN(), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, closeCache := newRecommender(ctx, cfg, store, logger)
	defer closeCache()

	sched := scheduler.NewCronScheduler(&pushingRecommender{rec: rec, cfg: cfg, logger: logger}, loc, logger)
	if err := sched.Start(ctx, cfg.RecommendSchedule, runNow); err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.RecommendSchedule, err)
	}

	<-ctx.Done()
	sched.Stop()
	return nil
}

// pushMetrics sends the run's collectors to PUSHGATEWAY_URL. It uses its own
// context so an interrupted run still reports how it ended.
func pushMetrics(cfg *config.Config, cmd string, logger *utils.Logger) {
	if cfg.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metrics.Push(ctx, cfg.PushgatewayURL, "pricepipe_"+cmd); err != nil {
		logger.Warn("%v", err)
	}
}

// pushingRecommender pushes metrics after every scheduled run.
type pushingRecommender struct {
	rec    *services.Recommender
	cfg    *config.Config
	logger *utils.Logger
}

func (p *pushingRecommender) RecommendFor(ctx context.Context, day time.Time) (*models.RecommendationReport, error) {
	defer pushMetrics(p.cfg, "schedule", p.logger)
	return p.rec.RecommendFor(ctx, day)
}

func runServe(ctx context.Context, cfg *config.Config, loc *time.Location, logger *utils.Logger) error {
	store, err := storage.Open(ctx, cfg.DSN(), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := storage.EnsureSchema(ctx, store.DB()); err != nil {
		return err
	}

	var cache services.ViewCache
	if c := openCache(ctx, cfg, logger); c != nil {
		defer c.Close()
		cache = c
	}

	handler := api.NewHandler(store.DB(), cache, loc, logger)
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewRouter(handler, cfg.APIKey, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting read API on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down read API...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info("Read API stopped")
	return nil
}
