package telegram

import (
	"strings"
	"testing"

	"github.com/web3-frozen/token-watchlist/internal/market"
	"github.com/web3-frozen/token-watchlist/internal/store"
)

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"5", 5, false},
		{"7.5", 7.5, false},
		{"100", 100, false},
		{"0.1", 0.1, false},
		{" 10 ", 10, false},
		{"10%", 10, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"100.01", 0, true},
		{"101", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"5,5", 0, true},
	}
	for _, tt := range tests {
		got, err := parseThreshold(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseThreshold(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseThreshold(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormatListEntry(t *testing.T) {
	e := store.Entry{
		TokenAddress:   "0xabc",
		ChainID:        "ethereum",
		Symbol:         "PEPE",
		DropThreshold:  5,
		ReferencePrice: 1.00,
		InitialPrice:   0.80,
	}

	token := &market.TokenData{PriceUsd: 1.00}
	got := formatListEntry(e, token)
	for _, want := range []string{"PEPE", "ethereum", "$1.00", "+25.00% since added", "±5%"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatListEntry = %q, missing %q", got, want)
		}
	}

	got = formatListEntry(e, nil)
	if !strings.Contains(got, "price unavailable") {
		t.Errorf("formatListEntry without token = %q, want price unavailable", got)
	}
}
