package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"pricepipe/models"
)

const reportSheet = "Sheet1"

var reportHeader = []any{
	"product_master_id", "listings", "avg_price", "max_original_price", "recommended_price", "date",
}

// WriteRecommendationReport saves one row per aggregated master to an XLSX
// workbook at path.
func WriteRecommendationReport(path string, report *models.RecommendationReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("xlsx: create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(reportSheet, "A1", &reportHeader); err != nil {
		return fmt.Errorf("xlsx: write header: %w", err)
	}

	date := report.Date.Format(time.DateOnly)
	for i, g := range report.Groups {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx: cell for row %d: %w", i+2, err)
		}
		row := []any{g.ProductMasterID, g.Listings, g.AvgPrice, g.MaxOriginalPrice, g.RecommendedPrice, date}
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", path, err)
	}
	return nil
}
