package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/web3-frozen/token-watchlist/internal/market"
	"github.com/web3-frozen/token-watchlist/internal/session"
	"github.com/web3-frozen/token-watchlist/internal/store"
)

const telegramAPI = "https://api.telegram.org/bot"

// Watchlist is the slice of the store the bot needs.
type Watchlist interface {
	Add(ctx context.Context, address, chain string, chatID int64, name, symbol string, threshold, price float64) (*store.Entry, error)
	Remove(ctx context.Context, address, chain string, chatID int64) (bool, error)
	ListByChat(ctx context.Context, chatID int64) ([]store.Entry, error)
	UpdateThreshold(ctx context.Context, address, chain string, chatID int64, threshold float64) (bool, error)
}

// MarketData provides token lookups and search.
type MarketData interface {
	Lookup(ctx context.Context, chainID, address string) (*market.TokenData, error)
	LookupBatch(ctx context.Context, chainID string, addresses []string) (map[string]*market.TokenData, error)
	Search(ctx context.Context, query string) ([]*market.TokenData, error)
}

// Sessions holds per-chat conversation state.
type Sessions interface {
	Get(ctx context.Context, chatID int64) (*session.Conversation, error)
	Set(ctx context.Context, chatID int64, conv *session.Conversation) error
	Clear(ctx context.Context, chatID int64) error
}

type Bot struct {
	token      string
	api        string
	store      Watchlist
	market     MarketData
	sessions   Sessions
	logger     *slog.Logger
	client     *http.Client
	retryDelay time.Duration
	offset     int64
}

func NewBot(token string, s Watchlist, m MarketData, sessions Sessions, logger *slog.Logger) *Bot {
	return &Bot{
		token:      token,
		api:        telegramAPI,
		store:      s,
		market:     m,
		sessions:   sessions,
		logger:     logger,
		client:     &http.Client{Timeout: 30 * time.Second},
		retryDelay: 5 * time.Second,
	}
}

// SendMessage sends a text message to a Telegram chat.
func (b *Bot) SendMessage(chatID int64, text string) error {
	payload := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, _ := json.Marshal(payload)

	resp, err := b.client.Post(
		b.api+b.token+"/sendMessage",
		"application/json",
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Description string `json:"description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("telegram API error %d: %s", resp.StatusCode, errResp.Description)
	}
	return nil
}

// Run starts the long-polling loop for incoming Telegram messages.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("telegram bot started")
	for {
		select {
		case <-ctx.Done():
			return
		default:
			b.poll(ctx)
		}
	}
}

func (b *Bot) poll(ctx context.Context) {
	url := fmt.Sprintf("%s%s/getUpdates?offset=%d&timeout=30", b.api, b.token, b.offset)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		b.logger.Error("create poll request", "error", err)
		return
	}

	resp, err := b.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		b.logger.Error("poll updates", "error", err)
		time.Sleep(b.retryDelay)
		return
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
		Result      []struct {
			UpdateID int64 `json:"update_id"`
			Message  *struct {
				Chat struct {
					ID int64 `json:"id"`
				} `json:"chat"`
				Text string `json:"text"`
			} `json:"message"`
		} `json:"result"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		b.logger.Error("decode updates", "error", err)
		return
	}

	if !result.OK {
		// A bad token or a second poller answers with a decodable
		// ok:false; without a pause this would hot-loop against the API.
		b.logger.Error("getUpdates rejected", "status", resp.StatusCode, "description", result.Description)
		time.Sleep(b.retryDelay)
		return
	}

	for _, u := range result.Result {
		b.offset = u.UpdateID + 1
		if u.Message == nil {
			continue
		}
		b.dispatch(ctx, u.Message.Chat.ID, strings.TrimSpace(u.Message.Text))
	}
}

func (b *Bot) dispatch(ctx context.Context, chatID int64, text string) {
	args := strings.Fields(text)
	command := ""
	if len(args) > 0 {
		command = strings.ToLower(args[0])
	}

	switch {
	case command == "/start" || command == "/help":
		b.handleHelp(chatID)
	case command == "/add":
		b.handleAdd(ctx, chatID)
	case command == "/remove":
		b.handleRemove(ctx, chatID, args[1:])
	case command == "/list":
		b.handleList(ctx, chatID)
	case command == "/threshold":
		b.handleThreshold(ctx, chatID, args[1:])
	case command == "/price":
		b.handlePrice(ctx, chatID)
	case command == "/cancel":
		b.handleCancel(ctx, chatID)
	case strings.HasPrefix(command, "/"):
		_ = b.SendMessage(chatID, "Unknown command. Send /help for available commands.")
	default:
		b.handleConversation(ctx, chatID, text)
	}
}

func (b *Bot) handleHelp(chatID int64) {
	msg := "🤖 <b>Token Watchlist Bot</b>\n\n" +
		"Track DEX tokens and get alerted when the price moves past your threshold.\n\n" +
		"Commands:\n" +
		"/add — Track a new token (guided)\n" +
		"/remove &lt;chain&gt; &lt;address&gt; — Stop tracking a token\n" +
		"/list — Show your watchlist with live prices\n" +
		"/threshold &lt;chain&gt; &lt;address&gt; &lt;percent&gt; — Change an alert threshold\n" +
		"/price — Search a token by name or symbol\n" +
		"/cancel — Abort the current command\n" +
		"/help — Show this message"
	_ = b.SendMessage(chatID, msg)
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64) {
	conv := &session.Conversation{State: session.StateAwaitingChain}
	if err := b.sessions.Set(ctx, chatID, conv); err != nil {
		b.logger.Error("save conversation", "chat_id", chatID, "error", err)
		_ = b.SendMessage(chatID, "❌ Something went wrong. Please try again.")
		return
	}
	_ = b.SendMessage(chatID, "Which chain is the token on? (e.g. ethereum, solana, bsc, base)")
}

func (b *Bot) handlePrice(ctx context.Context, chatID int64) {
	conv := &session.Conversation{State: session.StateAwaitingQuery}
	if err := b.sessions.Set(ctx, chatID, conv); err != nil {
		b.logger.Error("save conversation", "chat_id", chatID, "error", err)
		_ = b.SendMessage(chatID, "❌ Something went wrong. Please try again.")
		return
	}
	_ = b.SendMessage(chatID, "Send me a token name or symbol to search.")
}

func (b *Bot) handleCancel(ctx context.Context, chatID int64) {
	if err := b.sessions.Clear(ctx, chatID); err != nil {
		b.logger.Error("clear conversation", "chat_id", chatID, "error", err)
	}
	_ = b.SendMessage(chatID, "Cancelled.")
}

// handleConversation advances the chat's multi-step command state machine
// on plain (non-command) text.
func (b *Bot) handleConversation(ctx context.Context, chatID int64, text string) {
	conv, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		b.logger.Error("load conversation", "chat_id", chatID, "error", err)
		_ = b.SendMessage(chatID, "❌ Something went wrong. Please try again.")
		return
	}

	switch conv.State {
	case session.StateAwaitingChain:
		conv.ChainID = strings.ToLower(strings.TrimSpace(text))
		conv.State = session.StateAwaitingAddress
		if err := b.sessions.Set(ctx, chatID, conv); err != nil {
			b.logger.Error("save conversation", "chat_id", chatID, "error", err)
			return
		}
		_ = b.SendMessage(chatID, "Now send the token contract address.")

	case session.StateAwaitingAddress:
		conv.TokenAddress = strings.ToLower(strings.TrimSpace(text))
		conv.State = session.StateAwaitingThreshold
		if err := b.sessions.Set(ctx, chatID, conv); err != nil {
			b.logger.Error("save conversation", "chat_id", chatID, "error", err)
			return
		}
		_ = b.SendMessage(chatID, "What percent move should trigger an alert? (a number above 0, up to 100)")

	case session.StateAwaitingThreshold:
		threshold, err := parseThreshold(text)
		if err != nil {
			// Stay in this state so the chat can retry.
			_ = b.SendMessage(chatID, "Please send a number above 0 and up to 100, e.g. 5 or 7.5.")
			return
		}
		b.finishAdd(ctx, chatID, conv, threshold)

	case session.StateAwaitingQuery:
		b.handleSearch(ctx, chatID, text)
		_ = b.sessions.Clear(ctx, chatID)

	default:
		_ = b.SendMessage(chatID, "Unknown command. Send /help for available commands.")
	}
}

func (b *Bot) finishAdd(ctx context.Context, chatID int64, conv *session.Conversation, threshold float64) {
	defer func() {
		_ = b.sessions.Clear(ctx, chatID)
	}()

	token, err := b.market.Lookup(ctx, conv.ChainID, conv.TokenAddress)
	if err != nil {
		b.logger.Warn("lookup for add failed", "chain", conv.ChainID, "address", conv.TokenAddress, "error", err)
		_ = b.SendMessage(chatID, "❌ Couldn't reach market data right now. Please try /add again in a minute.")
		return
	}
	if token == nil || token.PriceUsd <= 0 {
		_ = b.SendMessage(chatID, fmt.Sprintf("❌ No trading pairs with a usable price found for <code>%s</code> on %s.", conv.TokenAddress, conv.ChainID))
		return
	}

	entry, err := b.store.Add(ctx, conv.TokenAddress, conv.ChainID, chatID, token.Name, token.Symbol, threshold, token.PriceUsd)
	if err == store.ErrDuplicate {
		_ = b.SendMessage(chatID, fmt.Sprintf("You are already watching <b>%s</b> on %s. Use /threshold to adjust its alert.", token.Symbol, conv.ChainID))
		return
	}
	if err != nil {
		b.logger.Error("add entry", "chat_id", chatID, "error", err)
		_ = b.SendMessage(chatID, "❌ Failed to save the entry. Please try again.")
		return
	}

	msg := fmt.Sprintf("✅ Watching <b>%s</b> on %s\n\n", entry.Symbol, entry.ChainID)
	msg += fmt.Sprintf("Price: $%s\n", market.FormatPrice(token.PriceUsd))
	msg += fmt.Sprintf("Market cap: %s\n", market.FormatUSD(token.MarketCap))
	msg += fmt.Sprintf("Liquidity: %s\n", market.FormatUSD(token.LiquidityUsd))
	msg += fmt.Sprintf("Alert threshold: ±%.4g%%\n\n", entry.DropThreshold)
	msg += "You'll get a message whenever the price moves that much from the last alert price."
	_ = b.SendMessage(chatID, msg)
}

func (b *Bot) handleRemove(ctx context.Context, chatID int64, args []string) {
	if len(args) != 2 {
		_ = b.SendMessage(chatID, "Usage: /remove &lt;chain&gt; &lt;address&gt;")
		return
	}

	removed, err := b.store.Remove(ctx, args[1], args[0], chatID)
	if err != nil {
		b.logger.Error("remove entry", "chat_id", chatID, "error", err)
		_ = b.SendMessage(chatID, "❌ Failed to remove the entry. Please try again.")
		return
	}
	if !removed {
		_ = b.SendMessage(chatID, "That token isn't on your watchlist. Check /list.")
		return
	}
	_ = b.SendMessage(chatID, "🗑 Removed. You won't get alerts for it anymore.")
}

func (b *Bot) handleThreshold(ctx context.Context, chatID int64, args []string) {
	if len(args) != 3 {
		_ = b.SendMessage(chatID, "Usage: /threshold &lt;chain&gt; &lt;address&gt; &lt;percent&gt;")
		return
	}

	threshold, err := parseThreshold(args[2])
	if err != nil {
		_ = b.SendMessage(chatID, "The percent must be a number above 0 and up to 100, e.g. 5 or 7.5.")
		return
	}

	updated, err := b.store.UpdateThreshold(ctx, args[1], args[0], chatID, threshold)
	if err != nil {
		b.logger.Error("update threshold", "chat_id", chatID, "error", err)
		_ = b.SendMessage(chatID, "❌ Failed to update the threshold. Please try again.")
		return
	}
	if !updated {
		_ = b.SendMessage(chatID, "That token isn't on your watchlist. Check /list.")
		return
	}
	_ = b.SendMessage(chatID, fmt.Sprintf("✅ Alert threshold set to ±%.4g%%.", threshold))
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	entries, err := b.store.ListByChat(ctx, chatID)
	if err != nil {
		b.logger.Error("list entries", "chat_id", chatID, "error", err)
		_ = b.SendMessage(chatID, "❌ Failed to load your watchlist. Please try again.")
		return
	}
	if len(entries) == 0 {
		_ = b.SendMessage(chatID, "Your watchlist is empty. Send /add to track a token.")
		return
	}

	// One batched lookup per chain for live prices; a failed chain just
	// shows its entries without a current price.
	prices := make(map[string]*market.TokenData)
	byChain := make(map[string][]string)
	for _, e := range entries {
		byChain[e.ChainID] = append(byChain[e.ChainID], e.TokenAddress)
	}
	for chain, addresses := range byChain {
		tokens, err := b.market.LookupBatch(ctx, chain, addresses)
		if err != nil {
			b.logger.Warn("list batch fetch failed", "chain", chain, "error", err)
			continue
		}
		for addr, td := range tokens {
			prices[chain+"/"+addr] = td
		}
	}

	msg := fmt.Sprintf("📋 <b>Your watchlist</b> (%d)\n\n", len(entries))
	for _, e := range entries {
		msg += formatListEntry(e, prices[e.ChainID+"/"+e.TokenAddress])
	}
	_ = b.SendMessage(chatID, msg)
}

func formatListEntry(e store.Entry, token *market.TokenData) string {
	line := fmt.Sprintf("• <b>%s</b> (%s)", e.Symbol, e.ChainID)
	if token != nil && token.PriceUsd > 0 {
		line += fmt.Sprintf(" — $%s", market.FormatPrice(token.PriceUsd))
		if e.InitialPrice > 0 {
			total := (token.PriceUsd - e.InitialPrice) / e.InitialPrice * 100
			line += fmt.Sprintf(" (%+.2f%% since added)", total)
		}
	} else {
		line += " — price unavailable"
	}
	line += fmt.Sprintf("\n  threshold ±%.4g%%, last alert at $%s\n", e.DropThreshold, market.FormatPrice(e.ReferencePrice))
	return line
}

func (b *Bot) handleSearch(ctx context.Context, chatID int64, query string) {
	results, err := b.market.Search(ctx, query)
	if err != nil {
		b.logger.Warn("token search failed", "query", query, "error", err)
		_ = b.SendMessage(chatID, "❌ Search failed. Please try again in a minute.")
		return
	}
	if len(results) == 0 {
		_ = b.SendMessage(chatID, "No tokens matched. Try a different name or symbol.")
		return
	}

	if len(results) > 5 {
		results = results[:5]
	}
	msg := fmt.Sprintf("🔍 Top matches for <b>%s</b>:\n\n", query)
	for _, td := range results {
		msg += fmt.Sprintf("<b>%s</b> (%s via %s)\n", td.Symbol, td.ChainID, td.DexID)
		msg += fmt.Sprintf("  $%s · mcap %s · liq %s\n", market.FormatPrice(td.PriceUsd), market.FormatUSD(td.MarketCap), market.FormatUSD(td.LiquidityUsd))
		msg += fmt.Sprintf("  <code>%s</code>\n", td.Address)
	}
	msg += "\nUse /add to start tracking one."
	_ = b.SendMessage(chatID, msg)
}
