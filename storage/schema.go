package storage

import (
	"context"
	"fmt"
)

const (
	createProductMaster = `
		CREATE TABLE %s product_master (
			id     INT PRIMARY KEY,
			type   VARCHAR(100),
			name   VARCHAR(255),
			detail TEXT
		)`

	createProduct = `
		CREATE TABLE %s product (
			id                  INT PRIMARY KEY,
			name                VARCHAR(255),
			price               INT,
			original_price      VARCHAR(50),
			discount_percentage VARCHAR(50),
			detail              VARCHAR(100),
			platform            VARCHAR(50),
			product_master_id   INT NOT NULL REFERENCES product_master (id),
			created_at          TIMESTAMPTZ
		)`

	createPriceRecommendation = `
		CREATE TABLE %s price_recommendation (
			product_master_id INT REFERENCES product_master (id),
			price             INT,
			date              DATE,
			PRIMARY KEY (product_master_id, date)
		)`
)

// dropOrder lists tables children first; creation runs it in reverse.
var dropOrder = []string{"price_recommendation", "product", "product_master"}

func createStatements(ifNotExists bool) []string {
	clause := ""
	if ifNotExists {
		clause = "IF NOT EXISTS"
	}
	return []string{
		fmt.Sprintf(createProductMaster, clause),
		fmt.Sprintf(createProduct, clause),
		fmt.Sprintf(createPriceRecommendation, clause),
	}
}

// ResetSchema drops the three pipeline tables and recreates them empty.
// It destroys every master, listing and recommendation. Run it inside the
// load transaction so a failed load leaves the previous data in place.
func ResetSchema(ctx context.Context, db DBTX) error {
	for _, table := range dropOrder {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("schema: drop %s: %w", table, err)
		}
	}
	for _, stmt := range createStatements(false) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema: create: %w", err)
		}
	}
	return nil
}

// EnsureSchema creates missing tables and leaves existing ones untouched.
func EnsureSchema(ctx context.Context, db DBTX) error {
	for _, stmt := range createStatements(true) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema: ensure: %w", err)
		}
	}
	return nil
}
