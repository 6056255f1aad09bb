package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"github.com/web3-frozen/token-watchlist/internal/metrics"
)

const (
	dexScreenerAPI = "https://api.dexscreener.com"

	// DexScreener caps the token batch endpoint at 30 addresses per call.
	batchLimit = 30

	// Pause between successive batch calls to stay under the rate limit.
	batchPacing = 250 * time.Millisecond
)

// TokenData is a point-in-time view of a token's best trading pair.
// It is produced fresh on every fetch and never cached across cycles.
type TokenData struct {
	ChainID        string  `json:"chain_id"`
	Address        string  `json:"address"`
	Name           string  `json:"name"`
	Symbol         string  `json:"symbol"`
	PriceUsd       float64 `json:"price_usd"`
	MarketCap      float64 `json:"market_cap"`
	LiquidityUsd   float64 `json:"liquidity_usd"`
	PriceChange24h float64 `json:"price_change_24h"`
	DexID          string  `json:"dex_id"`
	URL            string  `json:"url"`
}

// pair mirrors the DexScreener pair object.
type pair struct {
	ChainID   string `json:"chainId"`
	DexID     string `json:"dexId"`
	URL       string `json:"url"`
	BaseToken struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUsd  string `json:"priceUsd"`
	Liquidity *struct {
		Usd float64 `json:"usd"`
	} `json:"liquidity"`
	Fdv         float64 `json:"fdv"`
	MarketCap   float64 `json:"marketCap"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
}

// Client fetches token data from the DexScreener public API.
type Client struct {
	client  *http.Client
	baseURL string
}

func New() *Client {
	return &Client{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: dexScreenerAPI,
	}
}

// Lookup fetches the current data for a single token. A token with no
// trading pairs yields (nil, nil); callers treat that as "no data".
func (c *Client) Lookup(ctx context.Context, chainID, address string) (*TokenData, error) {
	res, err := c.LookupBatch(ctx, chainID, []string{address})
	if err != nil {
		return nil, err
	}
	return res[strings.ToLower(address)], nil
}

// LookupBatch fetches data for up to any number of token addresses on one
// chain, splitting the request into chunks of at most 30 addresses.
// Addresses without a known pair are simply absent from the result map,
// which is keyed by lowercase address.
func (c *Client) LookupBatch(ctx context.Context, chainID string, addresses []string) (map[string]*TokenData, error) {
	chainID = strings.ToLower(chainID)
	result := make(map[string]*TokenData, len(addresses))

	for i := 0; i < len(addresses); i += batchLimit {
		if i > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(batchPacing):
			}
		}

		end := i + batchLimit
		if end > len(addresses) {
			end = len(addresses)
		}
		chunk := make([]string, 0, end-i)
		for _, a := range addresses[i:end] {
			chunk = append(chunk, strings.ToLower(a))
		}

		pairs, err := c.fetchPairs(ctx, chainID, chunk)
		if err != nil {
			return result, err
		}

		byAddress := make(map[string][]pair)
		for _, p := range pairs {
			addr := strings.ToLower(p.BaseToken.Address)
			byAddress[addr] = append(byAddress[addr], p)
		}
		for addr, candidates := range byAddress {
			if td := tokenFromPair(chainID, addr, bestPair(candidates)); td != nil {
				result[addr] = td
			}
		}
	}
	return result, nil
}

func (c *Client) fetchPairs(ctx context.Context, chainID string, addresses []string) ([]pair, error) {
	start := time.Now()
	url := fmt.Sprintf("%s/tokens/v1/%s/%s", c.baseURL, chainID, strings.Join(addresses, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.MarketFetchTotal.WithLabelValues(chainID, "error").Inc()
		return nil, fmt.Errorf("dexscreener API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.MarketFetchTotal.WithLabelValues(chainID, "error").Inc()
		return nil, fmt.Errorf("dexscreener API status: %d", resp.StatusCode)
	}

	var pairs []pair
	if err := json.NewDecoder(resp.Body).Decode(&pairs); err != nil {
		metrics.MarketFetchTotal.WithLabelValues(chainID, "error").Inc()
		return nil, fmt.Errorf("decode dexscreener response: %w", err)
	}

	metrics.MarketFetchTotal.WithLabelValues(chainID, "ok").Inc()
	metrics.MarketFetchDuration.WithLabelValues(chainID).Observe(time.Since(start).Seconds())
	return pairs, nil
}

// Search runs a free-text token search and returns the matching pairs as
// token data, in API order.
func (c *Client) Search(ctx context.Context, query string) ([]*TokenData, error) {
	url := fmt.Sprintf("%s/latest/dex/search?q=%s", c.baseURL, neturl.QueryEscape(strings.TrimSpace(query)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dexscreener search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dexscreener search status: %d", resp.StatusCode)
	}

	var body struct {
		Pairs []pair `json:"pairs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	tokens := make([]*TokenData, 0, len(body.Pairs))
	for _, p := range body.Pairs {
		addr := strings.ToLower(p.BaseToken.Address)
		if td := tokenFromPair(strings.ToLower(p.ChainID), addr, p); td != nil {
			tokens = append(tokens, td)
		}
	}
	return tokens, nil
}

// bestPair picks the pair with the highest USD liquidity. A nil liquidity
// object counts as zero. Ties keep the first-encountered pair.
func bestPair(pairs []pair) pair {
	best := pairs[0]
	bestLiq := pairLiquidity(best)
	for _, p := range pairs[1:] {
		if liq := pairLiquidity(p); liq > bestLiq {
			best = p
			bestLiq = liq
		}
	}
	return best
}

func pairLiquidity(p pair) float64 {
	if p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.Usd
}

func tokenFromPair(chainID, address string, p pair) *TokenData {
	price, err := strconv.ParseFloat(p.PriceUsd, 64)
	if err != nil {
		return nil
	}

	marketCap := p.MarketCap
	if marketCap == 0 {
		marketCap = p.Fdv
	}

	return &TokenData{
		ChainID:        chainID,
		Address:        address,
		Name:           p.BaseToken.Name,
		Symbol:         p.BaseToken.Symbol,
		PriceUsd:       price,
		MarketCap:      marketCap,
		LiquidityUsd:   pairLiquidity(p),
		PriceChange24h: p.PriceChange.H24,
		DexID:          p.DexID,
		URL:            p.URL,
	}
}
