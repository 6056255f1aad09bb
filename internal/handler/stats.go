package handler

import (
	"encoding/json"
	"net/http"

	"github.com/web3-frozen/token-watchlist/internal/store"
	"github.com/web3-frozen/token-watchlist/internal/watch"
)

// Stats reports the most recent sweep plus the current watchlist size.
func Stats(w *watch.Watcher, s *store.Store) http.HandlerFunc {
	type response struct {
		Sweep         watch.SweepStats `json:"sweep"`
		WatchlistSize int              `json:"watchlist_size"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		resp := response{Sweep: w.Stats()}

		size, err := s.Count(r.Context())
		if err != nil {
			http.Error(rw, `{"error":"failed to read watchlist size"}`, http.StatusInternalServerError)
			return
		}
		resp.WatchlistSize = size

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}
