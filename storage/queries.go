package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pricepipe/models"
)

// ListProductMasters returns all masters ordered by id.
func ListProductMasters(ctx context.Context, db DBTX) ([]models.ProductMaster, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, type, name, detail FROM product_master ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("queries: list masters: %w", err)
	}
	defer rows.Close()

	masters := make([]models.ProductMaster, 0)
	for rows.Next() {
		var (
			m                 models.ProductMaster
			typ, name, detail sql.NullString
		)
		if err := rows.Scan(&m.ID, &typ, &name, &detail); err != nil {
			return nil, fmt.Errorf("queries: scan master: %w", err)
		}
		m.Type, m.Name, m.Detail = nullString(typ), nullString(name), nullString(detail)
		masters = append(masters, m)
	}
	return masters, rows.Err()
}

// ListProducts returns listings ordered by id, restricted to one master when
// masterID is non-zero.
func ListProducts(ctx context.Context, db DBTX, masterID int64) ([]models.ProductListing, error) {
	query := `
		SELECT id, name, price, original_price, discount_percentage, detail,
		       platform, product_master_id, created_at
		FROM product`
	var args []any
	if masterID != 0 {
		query += " WHERE product_master_id = $1"
		args = append(args, masterID)
	}
	query += " ORDER BY id"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("queries: list products: %w", err)
	}
	defer rows.Close()

	listings := make([]models.ProductListing, 0)
	for rows.Next() {
		var (
			l                                models.ProductListing
			name, original, discount, detail sql.NullString
			platform                         sql.NullString
			price                            sql.NullInt64
			createdAt                        sql.NullTime
		)
		if err := rows.Scan(&l.ID, &name, &price, &original, &discount, &detail,
			&platform, &l.ProductMasterID, &createdAt); err != nil {
			return nil, fmt.Errorf("queries: scan product: %w", err)
		}
		l.Name, l.OriginalPrice = nullString(name), nullString(original)
		l.DiscountPercentage, l.Detail = nullString(discount), nullString(detail)
		l.Platform = nullString(platform)
		if price.Valid {
			l.Price = &price.Int64
		}
		if createdAt.Valid {
			l.CreatedAt = &createdAt.Time
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// ListRecommendations returns the recommendations for day joined with the
// master name, ordered by master id.
func ListRecommendations(ctx context.Context, db DBTX, day time.Time) ([]models.RecommendationView, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT pr.product_master_id, pm.name, pr.price, pr.date
		FROM price_recommendation pr
		JOIN product_master pm ON pr.product_master_id = pm.id
		WHERE pr.date = $1
		ORDER BY pr.product_master_id
	`, day.Format(time.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("queries: list recommendations: %w", err)
	}
	defer rows.Close()

	recs := make([]models.RecommendationView, 0)
	for rows.Next() {
		var (
			r    models.RecommendationView
			name sql.NullString
		)
		if err := rows.Scan(&r.ProductMasterID, &name, &r.RecommendedPrice, &r.RecommendationDate.Time); err != nil {
			return nil, fmt.Errorf("queries: scan recommendation: %w", err)
		}
		r.ProductName = name.String
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
