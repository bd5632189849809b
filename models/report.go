package models

import "time"

// PricedListing is the slice of a listing the recommender aggregates over.
type PricedListing struct {
	ProductMasterID int64
	Price           int64
	OriginalPrice   *string
}

// GroupAggregate holds the per-master aggregation of priced listings.
type GroupAggregate struct {
	ProductMasterID  int64
	Listings         int
	AvgPrice         float64
	MaxOriginalPrice int64
	RecommendedPrice int64
}

// RecommendationReport summarises one recommendation run.
type RecommendationReport struct {
	Date           time.Time
	Groups         []GroupAggregate
	PricedListings int
	Deleted        int64
	Inserted       int64
	LowestPrice    int64
	HighestPrice   int64
	MostDiscounted *GroupAggregate
}
