// Package marketplace scrapes product cards from Indonesian marketplaces with
// a headless Chrome and writes one cleaned CSV file per source.
package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"pricepipe/config"
	"pricepipe/metrics"
	"pricepipe/models"
	"pricepipe/pricing"
	"pricepipe/storage"
	"pricepipe/utils"
)

// ErrNoAttachedPage is returned when a source needs an already-open page but
// the attached browser has none.
var ErrNoAttachedPage = errors.New("no page open in attached browser")

// card is what the in-page script extracts from one product card. Missing
// fields come back empty.
type card struct {
	Name          string `json:"name"`
	Price         string `json:"price"`
	OriginalPrice string `json:"original_price"`
}

// Scraper runs every configured source through a worker pool.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	pool   *utils.WorkerPool
	retry  *utils.RetryConfig
	seen   *utils.KeySet
	loc    *time.Location
	now    func() time.Time
}

// New creates a ready-to-use Scraper.
func New(cfg *config.Config, loc *time.Location, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		logger: logger,
		pool:   utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		seen: utils.NewKeySet(),
		loc:  loc,
		now:  time.Now,
	}
}

// Run scrapes each source and writes <source>_products_cleaned.csv into the
// output directory. It returns the files written. A failing source does not
// stop the others; their errors are joined.
func (s *Scraper) Run(ctx context.Context) (files []string, err error) {
	timer := metrics.NewTimer("scrape")
	defer func() { timer.ObserveDuration(err) }()

	sources, err := SourcesByName(s.cfg.ScrapeSources)
	if err != nil {
		return nil, err
	}

	allocCtx, cancelAlloc := s.newAllocator(ctx)
	defer cancelAlloc()

	results := make([]string, len(sources))
	for i, src := range sources {
		s.pool.Submit(func() error {
			path, err := s.scrapeSource(allocCtx, src)
			if err != nil {
				s.logger.Error("[%s] scrape failed: %v", src.Name, err)
				return fmt.Errorf("%s: %w", src.Name, err)
			}
			results[i] = path
			return nil
		})
	}
	err = s.pool.Wait()

	for _, path := range results {
		if path != "" {
			files = append(files, path)
		}
	}
	s.logger.Info("[scraper] Wrote %d of %d source files", len(files), len(sources))
	return files, err
}

func (s *Scraper) newAllocator(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.ChromeDebugURL != "" {
		s.logger.Info("[scraper] Attaching to browser at %s", s.cfg.ChromeDebugURL)
		return chromedp.NewRemoteAllocator(ctx, s.cfg.ChromeDebugURL)
	}

	chromeBin := findChromeBinary(s.cfg.ChromeBin)
	s.logger.Info("[scraper] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}
	return chromedp.NewExecAllocator(ctx, opts...)
}

func (s *Scraper) scrapeSource(allocCtx context.Context, src Source) (string, error) {
	if src.URL == "" && s.cfg.ChromeDebugURL == "" {
		return "", fmt.Errorf("source needs an attached browser, set CHROME_DEBUG_URL")
	}

	var cards []card
	err := s.retry.Do(allocCtx, "scrape-"+src.Name, func() error {
		found, err := s.extractCards(allocCtx, src)
		if err != nil {
			return err
		}
		cards = found
		return nil
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("[%s] Found %d product cards", src.Name, len(cards))

	listings := buildListings(src, cards, s.now().In(s.loc), s.cfg.ScrapeMaxProducts, s.seen, s.logger)
	metrics.ListingsScraped.WithLabelValues(src.Name).Add(float64(len(listings)))

	path := OutputPath(s.cfg.ScrapeOutputDir, src.Name)
	w, err := storage.NewCSVWriter(path)
	if err != nil {
		return "", err
	}
	if err := w.WriteListings(listings); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("csv: close %q: %w", path, err)
	}
	s.logger.Info("[%s] Saved %d products to %s", src.Name, len(listings), path)
	return path, nil
}

func (s *Scraper) extractCards(allocCtx context.Context, src Source) ([]card, error) {
	ctx, cancel, err := s.pageContext(allocCtx, src)
	if err != nil {
		return nil, err
	}
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, 120*time.Second)
	defer cancelTimeout()

	var actions []chromedp.Action
	if src.URL != "" {
		actions = append(actions, chromedp.Navigate(src.URL), chromedp.Sleep(5*time.Second))
	}
	for i := 0; i < src.Scrolls; i++ {
		actions = append(actions,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(3*time.Second),
		)
	}

	script, err := extractScript(src)
	if err != nil {
		return nil, err
	}
	var cards []card
	actions = append(actions, chromedp.Evaluate(script, &cards))

	if err := chromedp.Run(ctx, actions...); err != nil {
		return nil, fmt.Errorf("chromedp: %w", err)
	}
	return cards, nil
}

// pageContext opens a new tab, or for sources without a URL reuses the first
// page already open in the attached browser.
func (s *Scraper) pageContext(allocCtx context.Context, src Source) (context.Context, context.CancelFunc, error) {
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...any) {}))
	if src.URL != "" {
		return browserCtx, cancelBrowser, nil
	}

	targets, err := chromedp.Targets(browserCtx)
	if err != nil {
		cancelBrowser()
		return nil, nil, fmt.Errorf("chromedp: list targets: %w", err)
	}
	// Targets allocates a blank tab of its own; never attach to it.
	own := chromedp.FromContext(browserCtx).Target
	for _, t := range targets {
		if own != nil && t.TargetID == own.TargetID {
			continue
		}
		if t.Type == "page" {
			pageCtx, cancelPage := chromedp.NewContext(browserCtx, chromedp.WithTargetID(t.TargetID))
			return pageCtx, func() { cancelPage(); cancelBrowser() }, nil
		}
	}
	cancelBrowser()
	return nil, nil, ErrNoAttachedPage
}

// extractScript returns the in-page script collecting cards for src.
func extractScript(src Source) (string, error) {
	classes, err := json.Marshal(map[string]string{
		"card":     src.CardClass,
		"name":     src.NameClass,
		"price":    src.PriceClass,
		"original": src.OriginalPriceClass,
	})
	if err != nil {
		return "", fmt.Errorf("marketplace: encode selectors: %w", err)
	}

	return `(function() {
		var c = ` + string(classes) + `;
		var text = function(root, cls) {
			if (!cls) return '';
			var el = root.getElementsByClassName(cls)[0];
			return el ? el.textContent.trim() : '';
		};
		var cards = document.getElementsByClassName(c.card);
		var out = [];
		for (var i = 0; i < cards.length; i++) {
			out.push({
				name: text(cards[i], c.name),
				price: text(cards[i], c.price),
				original_price: text(cards[i], c.original)
			});
		}
		return out;
	})()`, nil
}

// buildListings turns extracted cards into listings stamped with createdAt.
// Cards missing a name or price are kept with "N/A" and logged. limit caps the
// number of listings; zero means no cap. Cards already seen in this run are
// skipped.
func buildListings(src Source, cards []card, createdAt time.Time, limit int, seen *utils.KeySet, logger *utils.Logger) []*models.RawListing {
	listings := make([]*models.RawListing, 0, len(cards))

	for i, c := range cards {
		if limit > 0 && len(listings) >= limit {
			logger.Info("[%s] Reached the %d product limit", src.Name, limit)
			break
		}

		l := &models.RawListing{
			Name:      orNotAvailable(c.Name),
			Price:     orNotAvailable(c.Price),
			Platform:  src.Name,
			CreatedAt: createdAt,
		}
		if src.HasOriginalPrice() {
			l.OriginalPrice = c.OriginalPrice
			if l.OriginalPrice == "" {
				l.OriginalPrice = l.Price
			}
			l.DiscountPercentage = pricing.DiscountPercentage(l.OriginalPrice, l.Price)
		}

		if !seen.Add(src.Name + "|" + l.Name + "|" + l.Price) {
			logger.Debug("[%s] Skipping duplicate card #%d: %s", src.Name, i+1, l.Name)
			continue
		}
		if l.Name == pricing.NotAvailable || l.Price == pricing.NotAvailable {
			logger.Warn("[%s] Card #%d kept with missing values (name=%q price=%q)", src.Name, i+1, l.Name, l.Price)
		}
		listings = append(listings, l)
	}
	return listings
}

// OutputPath is the CSV file a source is written to.
func OutputPath(dir, source string) string {
	return filepath.Join(dir, source+"_products_cleaned.csv")
}

func orNotAvailable(v string) string {
	if v == "" {
		return pricing.NotAvailable
	}
	return v
}

// findChromeBinary locates a Chrome/Chromium binary, preferring configured.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
