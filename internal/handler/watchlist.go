package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/web3-frozen/token-watchlist/internal/store"
)

// ListWatchlist returns the watchlist entries for one chat.
func ListWatchlist(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatIDStr := r.URL.Query().Get("chat_id")
		if chatIDStr == "" {
			http.Error(w, `{"error":"chat_id required"}`, http.StatusBadRequest)
			return
		}

		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			http.Error(w, `{"error":"invalid chat_id"}`, http.StatusBadRequest)
			return
		}

		entries, err := s.ListByChat(r.Context(), chatID)
		if err != nil {
			http.Error(w, `{"error":"failed to list watchlist"}`, http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []store.Entry{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(entries)
	}
}
