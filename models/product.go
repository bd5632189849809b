package models

import "time"

// ProductMaster is the canonical identity that groups listings of the same
// underlying product.
type ProductMaster struct {
	ID     int64   `json:"id"`
	Type   *string `json:"type"`
	Name   *string `json:"name"`
	Detail *string `json:"detail"`
}

// ProductListing is one source-specific, time-stamped observation of a
// product. Price is nil when the raw price string held no digits.
type ProductListing struct {
	ID                 int64      `json:"id"`
	Name               *string    `json:"name"`
	Price              *int64     `json:"price"`
	OriginalPrice      *string    `json:"original_price"`
	DiscountPercentage *string    `json:"discount_percentage"`
	Detail             *string    `json:"detail"`
	Platform           *string    `json:"platform"`
	ProductMasterID    int64      `json:"product_master_id"`
	CreatedAt          *time.Time `json:"created_at"`
}

// PriceRecommendation is the suggested price for a master product on a day.
type PriceRecommendation struct {
	ProductMasterID int64     `json:"product_master_id"`
	Price           int64     `json:"price"`
	Date            time.Time `json:"date"`
}

// RecommendationView is a recommendation joined with its master's name, as
// served by the read API.
type RecommendationView struct {
	ProductMasterID    int64  `json:"product_master_id"`
	ProductName        string `json:"product_name"`
	RecommendedPrice   int64  `json:"recommended_price"`
	RecommendationDate Date   `json:"recommendation_date"`
}

// Date is a calendar day encoded in JSON as "2006-01-02".
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	t, err := time.Parse(`"`+time.DateOnly+`"`, string(data))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
