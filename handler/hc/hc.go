package hc

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pandodao/drm-wallet/core"
)

// Network reports the latest known network state.
type Network interface {
	Network() core.NetworkState
}

func Handler(version string, network Network) http.Handler {
	t := time.Now()
	fn := func(w http.ResponseWriter, r *http.Request) {
		n := network.Network()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"version":      version,
			"uptime":       time.Since(t).String(),
			"connected":    n.IsConnected,
			"block_height": n.LatestBlockHeight,
		})
	}

	return http.HandlerFunc(fn)
}
