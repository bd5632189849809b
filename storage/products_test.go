package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"pricepipe/models"
)

func strPtr(s string) *string { return &s }
func intPtr(n int64) *int64   { return &n }

func (s *StoreTestSuite) TestInsertProductMasters() {
	masters := []models.ProductMaster{
		{ID: 7, Type: strPtr("Consumer Goods"), Name: strPtr("Rinso 800g"), Detail: strPtr("Master data for product group 7")},
		{ID: 8, Type: strPtr("Consumer Goods"), Name: strPtr("Pepsodent 190g"), Detail: nil},
	}

	s.mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO product_master (id, type, name, detail) VALUES ($1,$2,$3,$4),($5,$6,$7,$8)")).
		WithArgs(int64(7), "Consumer Goods", "Rinso 800g", "Master data for product group 7",
			int64(8), "Consumer Goods", "Pepsodent 190g", nil).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := InsertProductMasters(context.Background(), s.sqlDB, masters)

	s.NoError(err)
	s.Equal(int64(2), n)
}

func (s *StoreTestSuite) TestInsertProductListings_NullPrice() {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	listings := []models.ProductListing{{
		ID:                 1,
		Name:               strPtr("Rinso 800g"),
		Price:              nil,
		OriginalPrice:      strPtr("N/A"),
		DiscountPercentage: strPtr("N/A"),
		Platform:           strPtr("blibli"),
		ProductMasterID:    7,
		CreatedAt:          &created,
	}}

	s.mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO product (id, name, price, original_price, discount_percentage, detail, platform, product_master_id, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)")).
		WithArgs(int64(1), "Rinso 800g", nil, "N/A", "N/A", nil, "blibli", int64(7), created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := InsertProductListings(context.Background(), s.sqlDB, listings)

	s.NoError(err)
	s.Equal(int64(1), n)
}

func (s *StoreTestSuite) TestInsertProductListings_Batches() {
	listings := make([]models.ProductListing, batchSize+3)
	for i := range listings {
		listings[i] = models.ProductListing{ID: int64(i + 1), Price: intPtr(1000), ProductMasterID: 1}
	}

	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product (")).
		WillReturnResult(sqlmock.NewResult(0, int64(batchSize)))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product (")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := InsertProductListings(context.Background(), s.sqlDB, listings)

	s.NoError(err)
	s.Equal(int64(batchSize+3), n)
}

func (s *StoreTestSuite) TestInsertProductListings_ForeignKeyViolation() {
	listings := []models.ProductListing{{ID: 1, ProductMasterID: 99}}

	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product (")).
		WillReturnError(errors.New(`violates foreign key constraint "product_product_master_id_fkey"`))

	_, err := InsertProductListings(context.Background(), s.sqlDB, listings)

	s.Error(err)
	s.Contains(err.Error(), "product: insert batch")
}

func (s *StoreTestSuite) TestBulkInsertEmpty() {
	n, err := InsertProductMasters(context.Background(), s.sqlDB, nil)

	s.NoError(err)
	s.Zero(n)
}

func (s *StoreTestSuite) TestInsertBatchRejectsRaggedRow() {
	_, err := insertBatch(context.Background(), s.sqlDB, "product_master", productMasterColumns, [][]any{{1, "x"}})

	s.Error(err)
	s.Contains(err.Error(), fmt.Sprintf("want %d", len(productMasterColumns)))
}
