package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/service/address"
	"github.com/pandodao/drm-wallet/service/asset"
	"github.com/pandodao/drm-wallet/service/keystore"
	"github.com/pandodao/drm-wallet/service/transfer"
	"github.com/pandodao/drm-wallet/service/wallet"
	"github.com/pandodao/drm-wallet/state"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

var (
	codec     = address.New(address.FixtureParams)
	drm       = core.Asset{Symbol: "DRM", Precision: 8}
	recipient = "drm1234567890abcdef1234567890abcdef12345678"
)

type network struct {
	mu    sync.Mutex
	count int
	err   error
}

func (n *network) Broadcast(context.Context, *core.Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.count++
	return n.err
}

func (n *network) Blocks(context.Context, uint64, int) ([]core.BlockEvent, error) {
	return nil, nil
}

func (n *network) broadcasts() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

func newServer(t *testing.T, net *network, cache *redis.Client) (*httptest.Server, *state.Store) {
	t.Helper()

	signer, err := keystore.New(codec, strings.Repeat("07", 32))
	if err != nil {
		t.Fatal(err)
	}

	store := state.New()
	wallets := wallet.New(store, transfer.New(codec), signer, net, asset.New(asset.Config{Assets: []core.Asset{drm}}), slog.Default())
	if err := wallets.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}

	err = store.Dispatch(state.RecordConfirmedAction{Tx: &core.Transaction{
		ID:        "genesis",
		To:        signer.Address(),
		Amount:    decimal.NewFromInt(25),
		Asset:     drm,
		Source:    core.TransactionSourceReward,
		CreatedAt: time.Unix(0, 0).UTC(),
	}})
	if err != nil {
		t.Fatal(err)
	}

	s := New(store, wallets, cache, slog.Default(), Config{IdempotencyTTL: time.Minute})
	svr := httptest.NewServer(s.Handler())
	t.Cleanup(svr.Close)
	return svr, store
}

func newCache(t *testing.T) *redis.Client {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func do(t *testing.T, method, url, body string, header map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s %s: %v", method, url, err)
	}

	return resp, out
}

func TestSendAndRead(t *testing.T) {
	net := &network{}
	svr, store := newServer(t, net, nil)

	resp, body := do(t, http.MethodPost, svr.URL+"/transactions", `{"recipient":"`+recipient+`","amount":"10","asset":"drm"}`, nil)
	if resp.StatusCode != http.StatusCreated || body["status"] != "pending" {
		t.Fatalf("send = %d %v", resp.StatusCode, body)
	}

	id, _ := body["id"].(string)

	resp, body = do(t, http.MethodGet, svr.URL+"/transactions/"+id, "", nil)
	if resp.StatusCode != http.StatusOK || body["id"] != id {
		t.Fatalf("find = %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodGet, svr.URL+"/transactions?limit=1", "", nil)
	if resp.StatusCode != http.StatusOK || body["total"] != float64(2) {
		t.Fatalf("list = %d %v", resp.StatusCode, body)
	}

	// newest first
	if txs, _ := body["transactions"].([]any); len(txs) != 1 || txs[0].(map[string]any)["id"] != id {
		t.Fatalf("list page = %v", body["transactions"])
	}

	resp, body = do(t, http.MethodGet, svr.URL+"/wallet", "", nil)
	if balances, _ := body["balances"].([]any); resp.StatusCode != http.StatusOK || body["is_initialized"] != true || len(balances) != 1 {
		t.Fatalf("wallet = %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodGet, svr.URL+"/network", "", nil)
	if pending, _ := body["pending_confirmations"].([]any); resp.StatusCode != http.StatusOK || len(pending) != 1 {
		t.Fatalf("network = %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodPost, svr.URL+"/transactions/"+id+"/cancel", "", nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "cancelled" {
		t.Fatalf("cancel = %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodPost, svr.URL+"/transactions/"+id+"/cancel", "", nil)
	if resp.StatusCode != http.StatusConflict || body["code"] != "invalid_transition" {
		t.Fatalf("second cancel = %d %v", resp.StatusCode, body)
	}

	if store.Wallet().Error == nil {
		t.Fatal("rejected cancel did not set the error flag")
	}
}

func TestErrors(t *testing.T) {
	net := &network{}
	svr, _ := newServer(t, net, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"bad json", http.MethodPost, "/transactions", `{`, http.StatusBadRequest, "bad_request"},
		{"missing field", http.MethodPost, "/transactions", `{"recipient":"` + recipient + `","asset":"drm"}`, http.StatusBadRequest, "bad_request"},
		{"bad address", http.MethodPost, "/transactions", `{"recipient":"btc1xyz","amount":"1","asset":"drm"}`, http.StatusBadRequest, "invalid_address"},
		{"bad amount", http.MethodPost, "/transactions", `{"recipient":"` + recipient + `","amount":"-1","asset":"drm"}`, http.StatusBadRequest, "invalid_amount"},
		{"insufficient", http.MethodPost, "/transactions", `{"recipient":"` + recipient + `","amount":"100","asset":"drm"}`, http.StatusUnprocessableEntity, "insufficient_balance"},
		{"unknown asset", http.MethodPost, "/transactions", `{"recipient":"` + recipient + `","amount":"1","asset":"eth"}`, http.StatusBadRequest, "unknown_asset"},
		{"unknown tx", http.MethodGet, "/transactions/nope", "", http.StatusNotFound, "not_found"},
		{"cancel unknown", http.MethodPost, "/transactions/nope/cancel", "", http.StatusNotFound, "unknown_transaction_id"},
		{"bad offset", http.MethodGet, "/transactions?offset=x", "", http.StatusBadRequest, "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, svr.URL+tt.path, tt.body, nil)
			if resp.StatusCode != tt.status || body["code"] != tt.code {
				t.Fatalf("got %d %v", resp.StatusCode, body)
			}
		})
	}

	if net.broadcasts() != 0 {
		t.Fatalf("broadcasts = %d", net.broadcasts())
	}
}

func TestSendBroadcastFailure(t *testing.T) {
	net := &network{err: &core.BroadcastError{Err: errors.New("connection refused")}}
	svr, store := newServer(t, net, nil)

	resp, body := do(t, http.MethodPost, svr.URL+"/transactions", `{"recipient":"`+recipient+`","amount":"1","asset":"drm"}`, nil)
	if resp.StatusCode != http.StatusBadGateway || body["code"] != "broadcast_failed" {
		t.Fatalf("send = %d %v", resp.StatusCode, body)
	}

	tx, _ := body["transaction"].(map[string]any)
	if tx == nil || tx["status"] != "pending" {
		t.Fatalf("transaction = %v", body["transaction"])
	}

	if len(store.Network().PendingConfirmations) != 1 {
		t.Fatalf("network = %+v", store.Network())
	}
}

func TestIdempotency(t *testing.T) {
	net := &network{}
	svr, store := newServer(t, net, newCache(t))

	header := map[string]string{idempotencyKeyHeader: "key-1"}
	payload := `{"recipient":"` + recipient + `","amount":"1","asset":"drm"}`

	first, body1 := do(t, http.MethodPost, svr.URL+"/transactions", payload, header)
	second, body2 := do(t, http.MethodPost, svr.URL+"/transactions", payload, header)

	if first.StatusCode != http.StatusCreated || second.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, %d", first.StatusCode, second.StatusCode)
	}

	if body1["id"] != body2["id"] || second.Header.Get("Idempotent-Replayed") != "true" {
		t.Fatalf("replay = %v, %v", body1, body2)
	}

	if net.broadcasts() != 1 || len(store.Wallet().Transactions) != 2 {
		t.Fatalf("broadcasts = %d, txs = %d", net.broadcasts(), len(store.Wallet().Transactions))
	}

	// a different key is a different request
	header[idempotencyKeyHeader] = "key-2"
	if resp, body := do(t, http.MethodPost, svr.URL+"/transactions", payload, header); resp.StatusCode != http.StatusCreated || body["id"] == body1["id"] {
		t.Fatalf("send = %d %v", resp.StatusCode, body)
	}
}

func TestWalletEndpoints(t *testing.T) {
	svr, store := newServer(t, &network{}, nil)

	resp, body := do(t, http.MethodPost, svr.URL+"/wallet/loading", `{"loading":true}`, nil)
	if resp.StatusCode != http.StatusOK || body["is_loading"] != true {
		t.Fatalf("loading = %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodPost, svr.URL+"/wallet/reset", "", nil)
	if resp.StatusCode != http.StatusOK || body["is_initialized"] != false {
		t.Fatalf("reset = %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodPost, svr.URL+"/wallet/initialize", "", nil)
	if resp.StatusCode != http.StatusOK || body["is_initialized"] != true {
		t.Fatalf("initialize = %d %v", resp.StatusCode, body)
	}

	if len(store.Wallet().Transactions) != 0 {
		t.Fatal("history survived reset")
	}

	resp, body = do(t, http.MethodGet, svr.URL+"/state", "", nil)
	if resp.StatusCode != http.StatusOK || body["version"] == float64(0) {
		t.Fatalf("state = %d %v", resp.StatusCode, body)
	}
}

func TestWebsocket(t *testing.T) {
	svr, store := newServer(t, &network{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(svr.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	type push struct {
		Version uint64           `json:"version"`
		Mining  core.MiningState `json:"mining"`
	}

	var first push
	if err := wsjson.Read(ctx, conn, &first); err != nil {
		t.Fatal(err)
	}

	if first.Version != store.Version() {
		t.Fatalf("first push version = %d, want %d", first.Version, store.Version())
	}

	if err := store.Dispatch(state.SetMiningStatusAction{Active: true, HashRate: 3}); err != nil {
		t.Fatal(err)
	}

	var next push
	if err := wsjson.Read(ctx, conn, &next); err != nil {
		t.Fatal(err)
	}

	if next.Version != first.Version+1 || !next.Mining.IsActive {
		t.Fatalf("next push = %+v", next)
	}
}
