package storage

import (
	"context"
	"regexp"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func (s *StoreTestSuite) TestListProductMasters() {
	rows := sqlmock.NewRows([]string{"id", "type", "name", "detail"}).
		AddRow(int64(1), "Consumer Goods", "Rinso 800g", nil).
		AddRow(int64(2), nil, "Pepsodent", "Master data for product group 2")

	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT id, type, name, detail FROM product_master ORDER BY id")).
		WillReturnRows(rows)

	masters, err := ListProductMasters(context.Background(), s.sqlDB)

	s.NoError(err)
	s.Len(masters, 2)
	s.Equal("Rinso 800g", *masters[0].Name)
	s.Nil(masters[0].Detail)
	s.Nil(masters[1].Type)
}

func (s *StoreTestSuite) TestListProducts_Filtered() {
	created := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "name", "price", "original_price", "discount_percentage", "detail",
		"platform", "product_master_id", "created_at",
	}).
		AddRow(int64(3), "Rinso", int64(15000), "20000", "25%", nil, "tokopedia", int64(7), created).
		AddRow(int64(4), "Rinso", nil, nil, "N/A", nil, "blibli", int64(7), nil)

	s.mock.ExpectQuery(regexp.QuoteMeta("FROM product WHERE product_master_id = $1 ORDER BY id")).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	listings, err := ListProducts(context.Background(), s.sqlDB, 7)

	s.NoError(err)
	s.Len(listings, 2)
	s.Equal(int64(15000), *listings[0].Price)
	s.Equal(created, *listings[0].CreatedAt)
	s.Nil(listings[1].Price)
	s.Nil(listings[1].CreatedAt)
}

func (s *StoreTestSuite) TestListProducts_Unfiltered() {
	s.mock.ExpectQuery(`FROM product ORDER BY id`).
		WithArgs().
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "price", "original_price", "discount_percentage", "detail",
			"platform", "product_master_id", "created_at",
		}))

	listings, err := ListProducts(context.Background(), s.sqlDB, 0)

	s.NoError(err)
	s.NotNil(listings)
	s.Empty(listings)
}

func (s *StoreTestSuite) TestListRecommendations() {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"product_master_id", "name", "price", "date"}).
		AddRow(int64(7), "Rinso 800g", int64(1000), day)

	s.mock.ExpectQuery(regexp.QuoteMeta("JOIN product_master pm ON pr.product_master_id = pm.id")).
		WithArgs("2025-06-01").
		WillReturnRows(rows)

	recs, err := ListRecommendations(context.Background(), s.sqlDB, day)

	s.NoError(err)
	s.Len(recs, 1)
	s.Equal("Rinso 800g", recs[0].ProductName)
	s.Equal(int64(1000), recs[0].RecommendedPrice)
	s.Equal(day, recs[0].RecommendationDate.Time)
}
