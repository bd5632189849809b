package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pricepipe/metrics"
	"pricepipe/models"
	"pricepipe/pricing"
	"pricepipe/storage"
	"pricepipe/utils"
)

// ViewCache is the part of the recommendation cache the recommender and the
// read API depend on.
type ViewCache interface {
	Get(ctx context.Context, day time.Time) ([]models.RecommendationView, error)
	Set(ctx context.Context, day time.Time, recs []models.RecommendationView) error
	Fill(ctx context.Context, day time.Time, recs []models.RecommendationView) (bool, error)
	Invalidate(ctx context.Context, day time.Time) error
}

// Recommender computes and stores one recommended price per master per day.
type Recommender struct {
	store      *storage.Store
	logger     *utils.Logger
	cache      ViewCache
	reportPath string
	out        io.Writer
}

func NewRecommender(store *storage.Store, logger *utils.Logger) *Recommender {
	return &Recommender{store: store, logger: logger, out: os.Stdout}
}

// WithCache refreshes cache with the day's view after every run.
func (r *Recommender) WithCache(cache ViewCache) *Recommender {
	r.cache = cache
	return r
}

// WithReport writes an XLSX report to path after every run.
func (r *Recommender) WithReport(path string) *Recommender {
	r.reportPath = path
	return r
}

// WithOutput redirects the console summary.
func (r *Recommender) WithOutput(w io.Writer) *Recommender {
	r.out = w
	return r
}

// RecommendFor replaces the recommendations dated day with a fresh set
// derived from the current listings. Running it twice for the same day leaves
// the same rows.
func (r *Recommender) RecommendFor(ctx context.Context, day time.Time) (report *models.RecommendationReport, err error) {
	timer := metrics.NewTimer("recommend")
	defer func() { timer.ObserveDuration(err) }()

	day = DateOf(day)
	report = &models.RecommendationReport{Date: day}

	err = r.store.InTx(ctx, func(tx *sql.Tx) error {
		if err := storage.EnsureSchema(ctx, tx); err != nil {
			return err
		}

		listings, err := storage.FetchPricedListings(ctx, tx)
		if err != nil {
			return err
		}
		r.logger.Info("[recommender] Aggregating %d priced listings", len(listings))

		report.Groups = Aggregate(listings)
		summariseListings(report, listings)

		recs := Recommend(day, report.Groups)
		report.Deleted, report.Inserted, err = storage.ReplaceRecommendations(ctx, tx, day, recs)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("recommender: %s: %w", day.Format(time.DateOnly), err)
	}

	metrics.RecommendationsWritten.Add(float64(report.Inserted))
	r.logger.Info("[recommender] %s: replaced %d recommendations with %d",
		day.Format(time.DateOnly), report.Deleted, report.Inserted)

	r.refreshCache(ctx, day)

	if r.reportPath != "" {
		if err := storage.WriteRecommendationReport(r.reportPath, report); err != nil {
			return report, fmt.Errorf("recommender: %w", err)
		}
		r.logger.Info("[recommender] Report written to %s", r.reportPath)
	}

	Print(r.out, report)
	return report, nil
}

// refreshCache swaps the cached view for day. The database is already
// committed, so failures only cost a cache miss later.
func (r *Recommender) refreshCache(ctx context.Context, day time.Time) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, day); err != nil {
		r.logger.Warn("[recommender] %v", err)
		return
	}
	views, err := storage.ListRecommendations(ctx, r.store.DB(), day)
	if err != nil {
		r.logger.Warn("[recommender] cache warm-up skipped: %v", err)
		return
	}
	if err := r.cache.Set(ctx, day, views); err != nil {
		r.logger.Warn("[recommender] %v", err)
	}
}

// Aggregate groups priced listings by master, ordered by master id. Listings
// without a positive price are ignored, so a master priced only at zero gets
// no group. A row contributes its original price to the maximum only when
// that value is a plain integer, otherwise its sold price.
func Aggregate(listings []models.PricedListing) []models.GroupAggregate {
	type acc struct {
		prices []int64
		maxOrg int64
	}
	groups := make(map[int64]*acc)
	var ids []int64

	for _, l := range listings {
		if l.Price <= 0 {
			continue
		}
		g, ok := groups[l.ProductMasterID]
		if !ok {
			g = &acc{}
			groups[l.ProductMasterID] = g
			ids = append(ids, l.ProductMasterID)
		}
		g.prices = append(g.prices, l.Price)

		candidate := l.Price
		if l.OriginalPrice != nil && pricing.IsPlainInteger(*l.OriginalPrice) {
			if v, err := strconv.ParseInt(*l.OriginalPrice, 10, 64); err == nil {
				candidate = v
			}
		}
		if len(g.prices) == 1 || candidate > g.maxOrg {
			g.maxOrg = candidate
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]models.GroupAggregate, 0, len(ids))
	for _, id := range ids {
		g := groups[id]
		avg := pricing.Average(g.prices)
		out = append(out, models.GroupAggregate{
			ProductMasterID:  id,
			Listings:         len(g.prices),
			AvgPrice:         avg.InexactFloat64(),
			MaxOriginalPrice: g.maxOrg,
			RecommendedPrice: pricing.RecommendedPrice(avg),
		})
	}
	return out
}

// Recommend turns aggregates into recommendation rows dated day.
func Recommend(day time.Time, groups []models.GroupAggregate) []models.PriceRecommendation {
	recs := make([]models.PriceRecommendation, 0, len(groups))
	for _, g := range groups {
		recs = append(recs, models.PriceRecommendation{
			ProductMasterID: g.ProductMasterID,
			Price:           g.RecommendedPrice,
			Date:            day,
		})
	}
	return recs
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func summariseListings(report *models.RecommendationReport, listings []models.PricedListing) {
	report.PricedListings = len(listings)
	for i, l := range listings {
		if i == 0 || l.Price < report.LowestPrice {
			report.LowestPrice = l.Price
		}
		if l.Price > report.HighestPrice {
			report.HighestPrice = l.Price
		}
	}

	var best decimal.Decimal
	for i := range report.Groups {
		g := &report.Groups[i]
		if g.MaxOriginalPrice <= 0 || g.RecommendedPrice >= g.MaxOriginalPrice {
			continue
		}
		gap := decimal.NewFromInt(g.MaxOriginalPrice - g.RecommendedPrice).
			Div(decimal.NewFromInt(g.MaxOriginalPrice))
		if report.MostDiscounted == nil || gap.GreaterThan(best) {
			report.MostDiscounted, best = g, gap
		}
	}
}

// Print writes a console summary of one recommendation run.
func Print(w io.Writer, r *models.RecommendationReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  PRICE RECOMMENDATIONS %s\033[0m\n", r.Date.Format(time.DateOnly))
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Priced listings  : \033[1m%d\033[0m\n", r.PricedListings)
	fmt.Fprintf(w, "  Master products  : \033[1m%d\033[0m\n", len(r.Groups))
	fmt.Fprintf(w, "  Rows replaced    : \033[1m%d\033[0m -> \033[1m%d\033[0m\n", r.Deleted, r.Inserted)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Listing Prices\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.PricedListings > 0 {
		fmt.Fprintf(w, "  Lowest price  : \033[1;32mRp%d\033[0m\n", r.LowestPrice)
		fmt.Fprintf(w, "  Highest price : \033[1;32mRp%d\033[0m\n", r.HighestPrice)
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if r.MostDiscounted != nil {
		g := r.MostDiscounted
		fmt.Fprintf(w, "\033[1;33m  Deepest Markdown\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  Master #%d : Rp%d -> \033[1;31mRp%d\033[0m\n", g.ProductMasterID, g.MaxOriginalPrice, g.RecommendedPrice)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\033[1;33m  Recommended Prices\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.Groups) == 0 {
		fmt.Fprintf(w, "  No recommendations produced\n")
	} else {
		for _, g := range r.Groups {
			fmt.Fprintf(w, "  #%-6d %3d listings  avg Rp%-12.2f \033[1;32mRp%d\033[0m\n",
				g.ProductMasterID, g.Listings, g.AvgPrice, g.RecommendedPrice)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}
