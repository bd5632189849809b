package services

import (
	"context"
	"fmt"

	"pricepipe/metrics"
	"pricepipe/models"
	"pricepipe/pricing"
	"pricepipe/storage"
	"pricepipe/utils"
)

// DefaultMasterType is the type given to every synthesized master.
const DefaultMasterType = "Consumer Goods"

// LoadResult reports the rows written by one Load.
type LoadResult struct {
	Masters  int64
	Listings int64
}

// Loader writes canonical records as product_master and product rows.
type Loader struct {
	logger *utils.Logger
}

func NewLoader(logger *utils.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load inserts one master per distinct group key, then every listing. It
// expects db to be the caller's transaction; any error leaves rollback to
// the caller.
func (l *Loader) Load(ctx context.Context, db storage.DBTX, records []models.CanonicalRecord) (LoadResult, error) {
	var res LoadResult

	masters := BuildMasters(records)
	n, err := storage.InsertProductMasters(ctx, db, masters)
	if err != nil {
		return res, fmt.Errorf("loader: masters: %w", err)
	}
	res.Masters = n
	l.logger.Info("[loader] Inserted %d product masters", n)

	listings := BuildListings(records)
	n, err = storage.InsertProductListings(ctx, db, listings)
	if err != nil {
		return res, fmt.Errorf("loader: listings: %w", err)
	}
	res.Listings = n
	l.logger.Info("[loader] Inserted %d product listings", n)

	metrics.RowsLoaded.WithLabelValues("product_master").Add(float64(res.Masters))
	metrics.RowsLoaded.WithLabelValues("product").Add(float64(res.Listings))
	return res, nil
}

// BuildMasters returns one master per distinct MasterGroupKey in first-seen
// order. The name comes from the first record of the group.
func BuildMasters(records []models.CanonicalRecord) []models.ProductMaster {
	seen := make(map[string]struct{})
	masters := make([]models.ProductMaster, 0)

	for _, r := range records {
		if _, dup := seen[r.MasterGroupKey]; dup {
			continue
		}
		seen[r.MasterGroupKey] = struct{}{}

		typ := DefaultMasterType
		name := r.Name
		detail := fmt.Sprintf("Master data for product group %d", r.ProductMasterID)
		masters = append(masters, models.ProductMaster{
			ID:     r.ProductMasterID,
			Type:   &typ,
			Name:   &name,
			Detail: &detail,
		})
	}
	return masters
}

// BuildListings maps each record to a listing. Price is nil when the raw
// price string holds no digits.
func BuildListings(records []models.CanonicalRecord) []models.ProductListing {
	listings := make([]models.ProductListing, 0, len(records))
	for _, r := range records {
		name, discount, platform := r.Name, r.DiscountPercentage, r.Platform
		l := models.ProductListing{
			ID:                 r.ID,
			Name:               &name,
			OriginalPrice:      r.OriginalPrice,
			DiscountPercentage: &discount,
			Detail:             r.Detail,
			Platform:           &platform,
			ProductMasterID:    r.ProductMasterID,
			CreatedAt:          r.CreatedAt,
		}
		if p, ok := pricing.ParsePrice(r.Price); ok {
			l.Price = &p
		}
		listings = append(listings, l)
	}
	return listings
}
