package api

import (
	"context"
	"net/http"
	"time"

	"github.com/pandodao/drm-wallet/core"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// handleWebsocket pushes the root state once on connect and again after
// every change. Slow clients skip intermediate versions.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With("remote_addr", r.RemoteAddr)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logger.Error("websocket.Accept", "err", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	changed := make(chan struct{}, 1)
	changed <- struct{}{}

	unsubscribe := s.store.Subscribe(func(core.RootState) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	// the read side only exists to notice the client going away
	ctx := conn.CloseRead(r.Context())

	var sent uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-changed:
		}

		snapshot := s.store.Snapshot()
		if sent != 0 && snapshot.Version == sent {
			continue
		}

		writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := wsjson.Write(writeCtx, conn, snapshot)
		cancel()
		if err != nil {
			logger.Debug("wsjson.Write", "err", err)
			return
		}

		sent = snapshot.Version
	}
}
