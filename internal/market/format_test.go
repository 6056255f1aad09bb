package market

import "testing"

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "0"},
		{-1, "0"},
		{0.0000000042, "4.20e-09"},
		{0.00000099, "9.90e-07"},
		{0.000001, "0.000001"},
		{0.00123, "0.00123"},
		{0.00123456789, "0.00123457"},
		{0.0099999999, "0.01"},
		{0.01, "0.0100"},
		{0.5, "0.5000"},
		{0.9999, "0.9999"},
		{1, "1.00"},
		{1.005, "1.00"},
		{42.4242, "42.42"},
		{999.99, "999.99"},
		{1000, "1,000.00"},
		{1234.56, "1,234.56"},
		{123456.78, "123,456.78"},
		{95000, "95,000.00"},
	}
	for _, tt := range tests {
		got := FormatPrice(tt.input)
		if got != tt.want {
			t.Errorf("FormatPrice(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatPriceIdempotent(t *testing.T) {
	for _, v := range []float64{0.00042, 0.42, 42, 42000} {
		first := FormatPrice(v)
		second := FormatPrice(v)
		if first != second {
			t.Errorf("FormatPrice(%v) not stable: %q vs %q", v, first, second)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "N/A"},
		{-5, "N/A"},
		{1, "1.00"},
		{999.99, "999.99"},
		{1000, "1.00K"},
		{1500, "1.50K"},
		{999999, "1000.00K"},
		{1e6, "1.00M"},
		{1500000, "1.50M"},
		{123456789, "123.46M"},
		{1e9, "1.00B"},
		{2.5e9, "2.50B"},
		{1e12, "1.00T"},
		{3.21e12, "3.21T"},
	}
	for _, tt := range tests {
		got := FormatUSD(tt.input)
		if got != tt.want {
			t.Errorf("FormatUSD(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAddCommas(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0", "0"},
		{"100", "100"},
		{"1000", "1,000"},
		{"12345", "12,345"},
		{"1234567", "1,234,567"},
		{"1000.50", "1,000.50"},
		{"12345678.99", "12,345,678.99"},
	}
	for _, tt := range tests {
		got := addCommas(tt.input)
		if got != tt.want {
			t.Errorf("addCommas(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
