package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw    string
		want   int64
		wantOK bool
	}{
		{"Rp 1.250.000", 1250000, true},
		{"Rp12.500", 12500, true},
		{"12500", 12500, true},
		{" 3 x Rp 9,900 ", 39900, true},
		{"", 0, false},
		{"N/A", 0, false},
		{"gratis", 0, false},
		{"99999999999999999999999", 0, false},
		{"Rp 2.147.483.647", 2147483647, true},
		{"Rp 2.147.483.648", 0, false},
		{"Rp 25.000 - Rp 30.000", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParsePrice(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParsePrice(%q) = (%d, %v); want (%d, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDiscountPercentage(t *testing.T) {
	tests := []struct {
		original string
		sold     string
		want     string
	}{
		{"Rp 20.000", "Rp 15.000", "25%"},
		{"Rp 30.000", "Rp 20.000", "33%"},
		{"Rp 30.000", "Rp 10.000", "67%"},
		{"Rp 200", "Rp 199", "0%"}, // 0.5 rounds to even
		{"Rp 200", "Rp 197", "2%"}, // 1.5 rounds to even
		{"Rp 15.000", "Rp 15.000", "0%"},
		{"Rp 10.000", "Rp 15.000", "0%"},
		{"0", "0", "0%"},
		{"N/A", "Rp 15.000", "N/A"},
		{"Rp 15.000", "", "N/A"},
	}

	for _, tt := range tests {
		got := DiscountPercentage(tt.original, tt.sold)
		if got != tt.want {
			t.Errorf("DiscountPercentage(%q, %q) = %q; want %q", tt.original, tt.sold, got, tt.want)
		}
	}
}

func TestIsPlainInteger(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"15000", true},
		{"0", true},
		{"Rp15.000", false},
		{"abc", false},
		{"", false},
		{"-5", false},
	}

	for _, tt := range tests {
		if got := IsPlainInteger(tt.raw); got != tt.want {
			t.Errorf("IsPlainInteger(%q) = %v; want %v", tt.raw, got, tt.want)
		}
	}
}

func TestAverage(t *testing.T) {
	if got := Average([]int64{1000, 1200}); !got.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("Average = %s; want 1100", got)
	}
	if got := Average(nil); !got.IsZero() {
		t.Errorf("Average(nil) = %s; want 0", got)
	}
}

func TestRecommendedPrice(t *testing.T) {
	tests := []struct {
		avg  string
		want int64
	}{
		{"1100", 1000},   // 1045
		{"1200", 1100},   // 1140
		{"1105.5", 1100}, // 1050.225
		{"15000", 14200}, // 14250, tie goes to the even hundred
		{"17000", 16200}, // 16150, tie goes to the even hundred
		{"1000", 1000},   // 950, tie goes to the even hundred
		{"0", 0},
	}

	for _, tt := range tests {
		got := RecommendedPrice(decimal.RequireFromString(tt.avg))
		if got != tt.want {
			t.Errorf("RecommendedPrice(%s) = %d; want %d", tt.avg, got, tt.want)
		}
	}
}
