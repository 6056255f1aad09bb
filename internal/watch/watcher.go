package watch

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/web3-frozen/token-watchlist/internal/market"
	"github.com/web3-frozen/token-watchlist/internal/metrics"
	"github.com/web3-frozen/token-watchlist/internal/store"
)

const (
	// Delay before the first sweep so the bot's connection is up before
	// any alert could be dispatched.
	warmupDelay = 10 * time.Second

	defaultInterval = time.Minute
)

// AlertFunc sends a message to a Telegram chat.
type AlertFunc func(chatID int64, message string) error

// Watchlist is the slice of the store the watcher needs.
type Watchlist interface {
	ListAll(ctx context.Context) ([]store.Entry, error)
	UpdateReferencePrice(ctx context.Context, address, chain string, chatID int64, price float64) error
}

// MarketData provides batched token lookups per chain.
type MarketData interface {
	LookupBatch(ctx context.Context, chainID string, addresses []string) (map[string]*market.TokenData, error)
}

// Watcher sweeps the whole watchlist on a fixed interval and fires an
// alert whenever an entry's price has moved past its threshold relative
// to the entry's reference price. The watcher owns its own schedule:
// Start while running replaces the previous schedule, Stop cancels all
// future ticks and lets an in-flight sweep finish.
type Watcher struct {
	store    Watchlist
	market   MarketData
	alertFn  AlertFunc
	logger   *slog.Logger
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}

	statsMu sync.RWMutex
	stats   SweepStats
}

// SweepStats describes the most recent completed sweep.
type SweepStats struct {
	LastSweepAt    time.Time `json:"last_sweep_at"`
	LastDurationMs int64     `json:"last_duration_ms"`
	Entries        int       `json:"entries"`
	AlertsFired    int       `json:"alerts_fired"`
}

func New(s Watchlist, m MarketData, alertFn AlertFunc, logger *slog.Logger, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Watcher{
		store:    s,
		market:   m,
		alertFn:  alertFn,
		logger:   logger,
		interval: interval,
	}
}

// Start schedules the first sweep after the warm-up delay and then one
// sweep per interval. If the watcher is already running, the previous
// schedule is stopped first so timers never double up.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()

	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.run(w.stop, w.done)
	w.logger.Info("watcher started", "interval", w.interval.String())
}

// Stop cancels all pending and future ticks. An in-flight sweep is not
// aborted; Stop returns once it has finished.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

func (w *Watcher) stopLocked() {
	if w.stop == nil {
		return
	}
	close(w.stop)
	<-w.done
	w.stop = nil
	w.done = nil
	w.logger.Info("watcher stopped")
}

func (w *Watcher) run(stop, done chan struct{}) {
	defer close(done)

	warmup := time.NewTimer(warmupDelay)
	defer warmup.Stop()
	select {
	case <-stop:
		return
	case <-warmup.C:
	}

	w.Sweep(context.Background())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.Sweep(context.Background())
		}
	}
}

// Sweep runs one full pass over the watchlist: list everything, batch
// one market fetch per chain, then evaluate each entry. Per-chain
// failures are isolated; a storage read failure degrades to a no-op.
func (w *Watcher) Sweep(ctx context.Context) {
	start := time.Now()

	entries, err := w.store.ListAll(ctx)
	if err != nil {
		w.logger.Error("list watchlist failed", "error", err)
		metrics.SweepTotal.WithLabelValues("error").Inc()
		return
	}
	metrics.WatchlistSize.Set(float64(len(entries)))

	fired := 0
	if len(entries) > 0 {
		groups, order := groupByChain(entries)
		for _, chain := range order {
			fired += w.sweepChain(ctx, chain, groups[chain])
		}
	}

	metrics.SweepTotal.WithLabelValues("ok").Inc()
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	metrics.SweepLastSuccess.SetToCurrentTime()
	w.recordStats(start, len(entries), fired)
}

func (w *Watcher) sweepChain(ctx context.Context, chain string, group []store.Entry) int {
	addresses := make([]string, 0, len(group))
	seen := make(map[string]bool, len(group))
	for _, e := range group {
		if !seen[e.TokenAddress] {
			seen[e.TokenAddress] = true
			addresses = append(addresses, e.TokenAddress)
		}
	}

	tokens, err := w.market.LookupBatch(ctx, chain, addresses)
	if err != nil {
		w.logger.Warn("batch fetch failed, skipping chain this cycle", "chain", chain, "error", err)
		return 0
	}

	fired := 0
	for _, e := range group {
		token := tokens[e.TokenAddress]
		if token == nil {
			w.logger.Warn("no market data for entry", "chain", chain, "address", e.TokenAddress)
			continue
		}
		if w.evaluate(ctx, e, token) {
			fired++
		}
	}
	return fired
}

// evaluate fires an alert when the price moved at least the entry's
// threshold percent in either direction, then rebases the reference
// price to the triggering price. The rebase happens even when the
// notification fails, so continuous drift re-alerts per threshold step
// rather than once.
func (w *Watcher) evaluate(ctx context.Context, e store.Entry, token *market.TokenData) bool {
	fire, pct := checkThreshold(e.ReferencePrice, token.PriceUsd, e.DropThreshold)
	if !fire {
		return false
	}

	msg := alertMessage(e, token, pct)
	if err := w.alertFn(e.ChatID, msg); err != nil {
		w.logger.Error("send alert failed", "chat_id", e.ChatID, "symbol", e.Symbol, "error", err)
		metrics.AlertsFailedTotal.WithLabelValues(e.ChainID).Inc()
	} else {
		metrics.AlertsSentTotal.WithLabelValues(e.ChainID).Inc()
	}

	if err := w.store.UpdateReferencePrice(ctx, e.TokenAddress, e.ChainID, e.ChatID, token.PriceUsd); err != nil {
		// The alert was already delivered; the worst case is one
		// duplicate alert next cycle.
		w.logger.Error("update reference price failed", "chain", e.ChainID, "address", e.TokenAddress, "error", err)
	}
	return true
}

// checkThreshold reports whether the move from ref to cur reaches the
// threshold, and the signed percent change used. Non-positive prices on
// either side never fire.
func checkThreshold(ref, cur, threshold float64) (bool, float64) {
	if ref <= 0 || cur <= 0 {
		return false, 0
	}
	pct := (cur - ref) / ref * 100
	return math.Abs(pct) >= threshold, pct
}

// groupByChain buckets entries per chain, chains ordered by first
// appearance in the listing.
func groupByChain(entries []store.Entry) (map[string][]store.Entry, []string) {
	groups := make(map[string][]store.Entry)
	var order []string
	for _, e := range entries {
		if _, ok := groups[e.ChainID]; !ok {
			order = append(order, e.ChainID)
		}
		groups[e.ChainID] = append(groups[e.ChainID], e)
	}
	return groups, order
}

func (w *Watcher) recordStats(start time.Time, entries, fired int) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats = SweepStats{
		LastSweepAt:    start,
		LastDurationMs: time.Since(start).Milliseconds(),
		Entries:        entries,
		AlertsFired:    fired,
	}
}

// Stats returns the stats of the most recent completed sweep.
func (w *Watcher) Stats() SweepStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	return w.stats
}
