package models

import "time"

// RawListing holds one product card as scraped from a marketplace page.
// It is written to a per-source CSV file, which is the loader's input.
type RawListing struct {
	Name               string
	Price              string
	OriginalPrice      string
	DiscountPercentage string
	Platform           string
	CreatedAt          time.Time
}

// RawRow is one CSV row keyed by the source file's own header names.
type RawRow struct {
	SourceFile string
	Line       int
	Fields     map[string]string
}

// CanonicalRecord is a source-agnostic row produced by the normalizer.
// Optional values are nil when the source did not provide them.
type CanonicalRecord struct {
	ID                 int64
	Name               string
	Price              string
	OriginalPrice      *string
	DiscountPercentage string
	Detail             *string
	Platform           string
	MasterGroupKey     string
	ProductMasterID    int64
	CreatedAt          *time.Time
}
