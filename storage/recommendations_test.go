package storage

import (
	"context"
	"regexp"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"pricepipe/models"
)

func (s *StoreTestSuite) TestFetchPricedListings() {
	rows := sqlmock.NewRows([]string{"product_master_id", "price", "original_price"}).
		AddRow(int64(7), int64(1000), "1500").
		AddRow(int64(7), int64(1200), nil).
		AddRow(int64(9), int64(500), "abc")

	s.mock.ExpectQuery(regexp.QuoteMeta("FROM product WHERE price > 0")).WillReturnRows(rows)

	listings, err := FetchPricedListings(context.Background(), s.sqlDB)

	s.NoError(err)
	s.Len(listings, 3)
	s.Equal(int64(7), listings[0].ProductMasterID)
	s.Equal("1500", *listings[0].OriginalPrice)
	s.Nil(listings[1].OriginalPrice)
	s.Equal("abc", *listings[2].OriginalPrice)
}

func (s *StoreTestSuite) TestFetchPricedListings_Empty() {
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM product WHERE price > 0")).
		WillReturnRows(sqlmock.NewRows([]string{"product_master_id", "price", "original_price"}))

	listings, err := FetchPricedListings(context.Background(), s.sqlDB)

	s.NoError(err)
	s.Empty(listings)
}

func (s *StoreTestSuite) TestReplaceRecommendations() {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	recs := []models.PriceRecommendation{
		{ProductMasterID: 7, Price: 1000, Date: day},
		{ProductMasterID: 9, Price: 500, Date: day},
	}

	s.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM price_recommendation WHERE date = $1")).
		WithArgs("2025-06-01").
		WillReturnResult(sqlmock.NewResult(0, 4))
	s.mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO price_recommendation (product_master_id, price, date) VALUES ($1,$2,$3),($4,$5,$6)")).
		WithArgs(int64(7), int64(1000), "2025-06-01", int64(9), int64(500), "2025-06-01").
		WillReturnResult(sqlmock.NewResult(0, 2))

	deleted, inserted, err := ReplaceRecommendations(context.Background(), s.sqlDB, day, recs)

	s.NoError(err)
	s.Equal(int64(4), deleted)
	s.Equal(int64(2), inserted)
}

func (s *StoreTestSuite) TestReplaceRecommendations_EmptyOnlyDeletes() {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	s.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM price_recommendation WHERE date = $1")).
		WithArgs("2025-06-01").
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, inserted, err := ReplaceRecommendations(context.Background(), s.sqlDB, day, nil)

	s.NoError(err)
	s.Equal(int64(3), deleted)
	s.Zero(inserted)
}
