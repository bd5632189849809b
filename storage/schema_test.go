package storage

import (
	"context"
	"errors"
	"regexp"

	"github.com/DATA-DOG/go-sqlmock"
)

func (s *StoreTestSuite) expectReset() {
	for _, table := range []string{"price_recommendation", "product", "product_master"} {
		s.mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS " + table)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	for _, table := range []string{"product_master", "product", "price_recommendation"} {
		s.mock.ExpectExec(`CREATE TABLE\s+` + table + ` \(`).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
}

func (s *StoreTestSuite) TestResetSchema_DropsChildrenFirstCreatesParentsFirst() {
	s.expectReset()

	s.NoError(ResetSchema(context.Background(), s.sqlDB))
}

func (s *StoreTestSuite) TestResetSchema_Twice() {
	s.expectReset()
	s.expectReset()

	ctx := context.Background()
	s.NoError(ResetSchema(ctx, s.sqlDB))
	s.NoError(ResetSchema(ctx, s.sqlDB))
}

func (s *StoreTestSuite) TestResetSchema_DDLFailureStops() {
	s.mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS price_recommendation")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS product")).
		WillReturnError(errors.New("permission denied"))

	err := ResetSchema(context.Background(), s.sqlDB)

	s.Error(err)
	s.Contains(err.Error(), "drop product")
}

func (s *StoreTestSuite) TestEnsureSchema_NeverDrops() {
	for _, table := range []string{"product_master", "product", "price_recommendation"} {
		s.mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS " + table)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	s.NoError(EnsureSchema(context.Background(), s.sqlDB))
}

func (s *StoreTestSuite) TestCreateStatementsForeignKeys() {
	stmts := createStatements(false)

	s.Len(stmts, 3)
	s.Contains(stmts[1], "product_master_id   INT NOT NULL REFERENCES product_master (id)")
	s.Contains(stmts[2], "PRIMARY KEY (product_master_id, date)")
	s.Contains(stmts[2], "REFERENCES product_master (id)")
}
