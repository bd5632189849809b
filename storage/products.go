package storage

import (
	"context"

	"pricepipe/models"
)

var (
	productMasterColumns = []string{"id", "type", "name", "detail"}
	productColumns       = []string{
		"id", "name", "price", "original_price", "discount_percentage",
		"detail", "platform", "product_master_id", "created_at",
	}
)

// InsertProductMasters bulk-inserts master rows.
func InsertProductMasters(ctx context.Context, db DBTX, masters []models.ProductMaster) (int64, error) {
	rows := make([][]any, 0, len(masters))
	for _, m := range masters {
		rows = append(rows, []any{m.ID, m.Type, m.Name, m.Detail})
	}
	return bulkInsert(ctx, db, "product_master", productMasterColumns, rows)
}

// InsertProductListings bulk-inserts listing rows. Masters must already be
// visible to db, or the foreign key rejects the batch.
func InsertProductListings(ctx context.Context, db DBTX, listings []models.ProductListing) (int64, error) {
	rows := make([][]any, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, []any{
			l.ID, l.Name, l.Price, l.OriginalPrice, l.DiscountPercentage,
			l.Detail, l.Platform, l.ProductMasterID, l.CreatedAt,
		})
	}
	return bulkInsert(ctx, db, "product", productColumns, rows)
}
