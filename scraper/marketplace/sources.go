package marketplace

import (
	"fmt"
	"strings"
)

// Source describes where one marketplace lists its products and which
// class names mark a product card and its fields.
type Source struct {
	Name string
	// URL is opened before scraping. Empty means the page already open in an
	// attached browser (CHROME_DEBUG_URL) is scraped as-is.
	URL     string
	Scrolls int

	CardClass          string
	NameClass          string
	PriceClass         string
	OriginalPriceClass string
}

// HasOriginalPrice reports whether the source shows a pre-discount price.
func (s Source) HasOriginalPrice() bool {
	return s.OriginalPriceClass != ""
}

var knownSources = map[string]Source{
	"tokopedia": {
		Name:               "tokopedia",
		URL:                "https://www.tokopedia.com/unilever-official-store/product",
		Scrolls:            3,
		CardClass:          "y-oybT3IAd310DVdH3OwVg==",
		NameClass:          "+tnoqZhn89+NHUA43BpiJg==",
		PriceClass:         "urMOIDHH7I0Iy1Dv2oFaNw== HJhoi0tEIlowsgSNDNWVXg==",
		OriginalPriceClass: "hC1B8wTAoPszbEZj80w6Qw==",
	},
	"blibli": {
		Name:               "blibli",
		Scrolls:            2,
		CardClass:          "elf-product-card__container",
		NameClass:          "els-product__title",
		PriceClass:         "els-product__fixed-price",
		OriginalPriceClass: "els-product__discount-price",
	},
	"indomaret": {
		Name:       "indomaret",
		URL:        "https://www.klikindomaret.com/search/?key=unilever",
		Scrolls:    5,
		CardClass:  "card-product relative h-[254px] w-full !border des:h-[363px] sm:!w-[160px] md:!w-[148px] lg:!w-[169px] des:!w-full overflow-hidden",
		NameClass:  "md-0 line-clamp-2 text-b1 text-neutral-70 des:mb-2",
		PriceClass: "wrp-price",
	},
}

// SourcesByName resolves configured source names, keeping their order.
func SourcesByName(names []string) ([]Source, error) {
	sources := make([]Source, 0, len(names))
	for _, name := range names {
		src, ok := knownSources[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("marketplace: unknown source %q", name)
		}
		sources = append(sources, src)
	}
	return sources, nil
}
