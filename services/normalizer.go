package services

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"pricepipe/metrics"
	"pricepipe/models"
	"pricepipe/pricing"
	"pricepipe/utils"
)

// Canonical field names every source column is mapped onto.
const (
	fieldName               = "name"
	fieldPrice              = "price"
	fieldOriginalPrice      = "original_price"
	fieldDiscountPercentage = "discount_percentage"
	fieldDetail             = "detail"
	fieldPlatform           = "platform"
	fieldProductMasterID    = "product_master_id"
	fieldCreatedAt          = "created_at"
)

// columnAliases maps squashed header names to canonical fields. A source "id"
// column has no entry and is ignored.
var columnAliases = map[string]string{
	"name":               fieldName,
	"productname":        fieldName,
	"title":              fieldName,
	"price":              fieldPrice,
	"soldprice":          fieldPrice,
	"harga":              fieldPrice,
	"originalprice":      fieldOriginalPrice,
	"discountpercentage": fieldDiscountPercentage,
	"discount":           fieldDiscountPercentage,
	"detail":             fieldDetail,
	"description":        fieldDetail,
	"platform":           fieldPlatform,
	"source":             fieldPlatform,
	"productmasterid":    fieldProductMasterID,
	"masterid":           fieldProductMasterID,
	"createdat":          fieldCreatedAt,
	"scrapedat":          fieldCreatedAt,
	"timestamp":          fieldCreatedAt,
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// IDSequence hands out consecutive ids. It is scoped to one run, so ids are
// not stable across runs over the same input.
type IDSequence struct {
	next int64
}

// NewIDSequence returns a sequence whose first id is start.
func NewIDSequence(start int64) *IDSequence {
	return &IDSequence{next: start}
}

func (s *IDSequence) Next() int64 {
	id := s.next
	s.next++
	return id
}

// NormalizeResult is the output of one Normalize call.
type NormalizeResult struct {
	Records []models.CanonicalRecord
	// Flagged counts records kept although their name or price is "N/A".
	Flagged int
}

// Normalizer maps source rows with heterogeneous headers onto canonical
// records and assigns listing and master ids.
type Normalizer struct {
	logger *utils.Logger
	loc    *time.Location
}

// NewNormalizer creates a Normalizer. Zone-less timestamps are read in loc.
func NewNormalizer(logger *utils.Logger, loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{logger: logger, loc: loc}
}

// Normalize converts rows in order. Records are never dropped: rows with an
// "N/A" name or price are kept and counted in Flagged.
func (n *Normalizer) Normalize(rows []models.RawRow) *NormalizeResult {
	type pending struct {
		rec      models.CanonicalRecord
		masterID int64
		explicit bool
	}

	items := make([]pending, 0, len(rows))
	var maxExplicit int64
	flagged := 0

	for _, row := range rows {
		fields := canonicalFields(row.Fields)

		rec := models.CanonicalRecord{
			Name:               normaliseText(fields[fieldName]),
			Price:              strings.TrimSpace(fields[fieldPrice]),
			OriginalPrice:      optional(fields[fieldOriginalPrice]),
			DiscountPercentage: strings.TrimSpace(fields[fieldDiscountPercentage]),
			Detail:             optional(fields[fieldDetail]),
			Platform:           normalisePlatform(fields[fieldPlatform]),
			CreatedAt:          n.parseTimestamp(fields[fieldCreatedAt]),
		}
		if rec.DiscountPercentage == "" {
			rec.DiscountPercentage = pricing.NotAvailable
		}
		if rec.Platform == "" {
			rec.Platform = platformFromFile(row.SourceFile)
		}

		if isNotAvailable(rec.Name) || isNotAvailable(rec.Price) {
			flagged++
			n.logger.Warn("[normalizer] %s:%d kept with missing values (name=%q price=%q)",
				row.SourceFile, row.Line, rec.Name, rec.Price)
		}

		p := pending{rec: rec}
		if id, ok := explicitMasterID(fields[fieldProductMasterID]); ok {
			p.masterID, p.explicit = id, true
			if id > maxExplicit {
				maxExplicit = id
			}
		}
		items = append(items, p)
	}

	listingIDs := NewIDSequence(1)
	masterIDs := NewIDSequence(maxExplicit + 1)
	byName := make(map[string]int64)

	records := make([]models.CanonicalRecord, 0, len(items))
	for _, p := range items {
		rec := p.rec
		rec.ID = listingIDs.Next()

		if p.explicit {
			rec.MasterGroupKey = "id:" + strconv.FormatInt(p.masterID, 10)
			rec.ProductMasterID = p.masterID
		} else {
			key := "name:" + strings.ToLower(rec.Name)
			id, ok := byName[key]
			if !ok {
				id = masterIDs.Next()
				byName[key] = id
			}
			rec.MasterGroupKey = key
			rec.ProductMasterID = id
		}
		records = append(records, rec)
	}

	if flagged > 0 {
		metrics.RecordsFlagged.Add(float64(flagged))
	}
	n.logger.Info("[normalizer] Normalized %d rows into %d masters (%d flagged)",
		len(records), countMasters(records), flagged)

	return &NormalizeResult{Records: records, Flagged: flagged}
}

// canonicalFields squashes each header and keeps the first non-empty value per
// canonical field. Headers are visited in sorted order so the choice between
// two aliases of the same field is deterministic.
func canonicalFields(raw map[string]string) map[string]string {
	headers := make([]string, 0, len(raw))
	for h := range raw {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	out := make(map[string]string, len(raw))
	for _, h := range headers {
		field, ok := columnAliases[squashHeader(h)]
		if !ok {
			continue
		}
		if strings.TrimSpace(out[field]) != "" {
			continue
		}
		out[field] = raw[h]
	}
	return out
}

func squashHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '_' || r == '-' {
			return -1
		}
		return r
	}, h)
}

func (n *Normalizer) parseTimestamp(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, n.loc); err == nil {
			return &t
		}
	}
	return nil
}

func explicitMasterID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// platformFromFile derives the platform from the file name prefix,
// "tokopedia_products_cleaned.csv" -> "tokopedia".
func platformFromFile(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if i := strings.Index(base, "_"); i > 0 {
		base = base[:i]
	}
	return normalisePlatform(base)
}

func optional(raw string) *string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	return &v
}

func isNotAvailable(v string) bool {
	return v == "" || v == pricing.NotAvailable
}

func countMasters(records []models.CanonicalRecord) int {
	keys := make(map[string]struct{}, len(records))
	for _, r := range records {
		keys[r.MasterGroupKey] = struct{}{}
	}
	return len(keys)
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func normalisePlatform(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
