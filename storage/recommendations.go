package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pricepipe/models"
)

var priceRecommendationColumns = []string{"product_master_id", "price", "date"}

// FetchPricedListings returns every listing with a positive price, ordered by
// master and listing id. NULL prices never satisfy price > 0.
func FetchPricedListings(ctx context.Context, db DBTX) ([]models.PricedListing, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT product_master_id, price, original_price
		FROM product
		WHERE price > 0
		ORDER BY product_master_id, id
	`)
	if err != nil {
		return nil, fmt.Errorf("recommendations: fetch listings: %w", err)
	}
	defer rows.Close()

	var listings []models.PricedListing
	for rows.Next() {
		var (
			l        models.PricedListing
			original sql.NullString
		)
		if err := rows.Scan(&l.ProductMasterID, &l.Price, &original); err != nil {
			return nil, fmt.Errorf("recommendations: scan listing: %w", err)
		}
		if original.Valid {
			l.OriginalPrice = &original.String
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// ReplaceRecommendations deletes every recommendation dated day and inserts
// recs in its place. An empty recs leaves the day with no rows.
func ReplaceRecommendations(ctx context.Context, db DBTX, day time.Time, recs []models.PriceRecommendation) (deleted, inserted int64, err error) {
	date := day.Format(time.DateOnly)

	res, err := db.ExecContext(ctx, "DELETE FROM price_recommendation WHERE date = $1", date)
	if err != nil {
		return 0, 0, fmt.Errorf("recommendations: delete %s: %w", date, err)
	}
	if deleted, err = res.RowsAffected(); err != nil {
		deleted = 0
	}

	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []any{r.ProductMasterID, r.Price, date})
	}
	inserted, err = bulkInsert(ctx, db, "price_recommendation", priceRecommendationColumns, rows)
	if err != nil {
		return deleted, inserted, err
	}
	return deleted, inserted, nil
}
