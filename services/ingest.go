package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pricepipe/metrics"
	"pricepipe/models"
	"pricepipe/storage"
	"pricepipe/utils"
)

// IngestResult summarises one load run.
type IngestResult struct {
	Files   []string
	Rows    int
	Flagged int
	LoadResult
}

// LoadCache is the part of the recommendation cache a load has to reset.
type LoadCache interface {
	InvalidateAll(ctx context.Context) (int64, error)
	Set(ctx context.Context, day time.Time, recs []models.RecommendationView) error
}

// Ingestor rebuilds product_master and product from the cleaned CSV files.
type Ingestor struct {
	store      *storage.Store
	normalizer *Normalizer
	loader     *Loader
	cache      LoadCache
	loc        *time.Location
	now        func() time.Time
	logger     *utils.Logger
}

func NewIngestor(store *storage.Store, logger *utils.Logger, loc *time.Location) *Ingestor {
	if loc == nil {
		loc = time.UTC
	}
	return &Ingestor{
		store:      store,
		normalizer: NewNormalizer(logger, loc),
		loader:     NewLoader(logger),
		loc:        loc,
		now:        time.Now,
		logger:     logger,
	}
}

// WithCache resets cache after every committed load.
func (i *Ingestor) WithCache(cache LoadCache) *Ingestor {
	i.cache = cache
	return i
}

// Run reads every file matching pattern, then resets the schema and loads the
// records in one transaction. Files are resolved and read before the database
// is touched, so a bad input leaves existing data intact.
func (i *Ingestor) Run(ctx context.Context, pattern string) (res *IngestResult, err error) {
	timer := metrics.NewTimer("ingest")
	defer func() { timer.ObserveDuration(err) }()

	files, err := storage.FindInputFiles(pattern)
	if err != nil {
		return nil, err
	}

	res = &IngestResult{Files: files}
	rows, err := storage.ReadAllRawRows(files)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		metrics.RowsRead.WithLabelValues(r.SourceFile).Inc()
	}
	res.Rows = len(rows)
	i.logger.Info("[ingest] Read %d rows from %d files", len(rows), len(files))

	normalized := i.normalizer.Normalize(rows)
	res.Flagged = normalized.Flagged

	err = i.store.InTx(ctx, func(tx *sql.Tx) error {
		if err := storage.ResetSchema(ctx, tx); err != nil {
			return err
		}
		loaded, err := i.loader.Load(ctx, tx, normalized.Records)
		if err != nil {
			return err
		}
		res.LoadResult = loaded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	i.logger.Info("[ingest] Loaded %d masters and %d listings", res.Masters, res.Listings)

	i.resetCache(ctx)
	return res, nil
}

// resetCache drops every cached view, since the load emptied
// price_recommendation and renumbered the masters. Today's view is then pinned
// to the empty set so a reader that queried before the commit cannot refill it
// with the removed rows. The load is already committed, so failures only warn.
func (i *Ingestor) resetCache(ctx context.Context) {
	if i.cache == nil {
		return
	}
	n, err := i.cache.InvalidateAll(ctx)
	if err != nil {
		i.logger.Warn("[ingest] %v", err)
		return
	}
	if err := i.cache.Set(ctx, DateOf(i.now().In(i.loc)), nil); err != nil {
		i.logger.Warn("[ingest] %v", err)
		return
	}
	i.logger.Info("[ingest] Dropped %d cached recommendation views", n)
}
