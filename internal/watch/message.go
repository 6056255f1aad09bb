package watch

import (
	"fmt"

	"github.com/web3-frozen/token-watchlist/internal/market"
	"github.com/web3-frozen/token-watchlist/internal/store"
)

// alertMessage builds the HTML notification for a fired alert.
func alertMessage(e store.Entry, token *market.TokenData, pct float64) string {
	direction := "📈"
	if pct < 0 {
		direction = "📉"
	}

	totalPct := 0.0
	if e.InitialPrice > 0 {
		totalPct = (token.PriceUsd - e.InitialPrice) / e.InitialPrice * 100
	}

	msg := fmt.Sprintf("%s <b>%s</b> moved %+.2f%% since the last alert\n\n", direction, e.Symbol, pct)
	msg += fmt.Sprintf("Price: $%s\n", market.FormatPrice(token.PriceUsd))
	msg += fmt.Sprintf("Market cap: %s\n", market.FormatUSD(token.MarketCap))
	msg += fmt.Sprintf("Previous alert price: $%s\n", market.FormatPrice(e.ReferencePrice))
	msg += fmt.Sprintf("Added at: $%s (%+.2f%% total)\n", market.FormatPrice(e.InitialPrice), totalPct)
	msg += fmt.Sprintf("Alert threshold: ±%.4g%%\n", e.DropThreshold)
	msg += fmt.Sprintf("Chain: %s\n", e.ChainID)
	msg += fmt.Sprintf("Address: <code>%s</code>\n", e.TokenAddress)
	if token.URL != "" {
		msg += fmt.Sprintf("\n🔗 %s", token.URL)
	}
	return msg
}
