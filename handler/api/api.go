package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/service/wallet"
	"github.com/pandodao/drm-wallet/state"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

type Config struct {
	IdempotencyTTL time.Duration `valid:"required"`
}

// New returns the wallet API. cache may be nil, in which case
// Idempotency-Key is only honored for concurrent requests in this process.
func New(
	store *state.Store,
	wallets *wallet.Service,
	cache *redis.Client,
	logger *slog.Logger,
	cfg Config,
) *Server {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &Server{
		store:   store,
		wallets: wallets,
		cache:   cache,
		logger:  logger.With("handler", "api"),
		ttl:     cfg.IdempotencyTTL,
		sf:      &singleflight.Group{},
	}
}

type Server struct {
	store   *state.Store
	wallets *wallet.Service
	cache   *redis.Client
	logger  *slog.Logger
	ttl     time.Duration
	sf      *singleflight.Group
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/state", s.handleState)
	r.Get("/network", s.handleNetwork)
	r.Get("/mining", s.handleMining)
	r.Get("/ws", s.handleWebsocket)

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", s.handleListTransactions)
		r.Get("/{id}", s.handleFindTransaction)

		r.Group(func(r chi.Router) {
			r.Use(s.idempotency)
			r.Post("/", s.handleSend)
			r.Post("/{id}/cancel", s.handleCancel)
		})
	})

	r.Route("/wallet", func(r chi.Router) {
		r.Get("/", s.handleWallet)

		r.Group(func(r chi.Router) {
			r.Use(s.idempotency)
			r.Post("/initialize", s.handleInitialize)
			r.Post("/reset", s.handleReset)
			r.Post("/loading", s.handleLoading)
		})
	})

	return r
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, s.store.Wallet())
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, s.store.Network())
}

func (s *Server) handleMining(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, s.store.Mining())
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, badRequest(key + " must be a non-negative integer")
	}

	return n, nil
}

type transactionsResponse struct {
	Total        int                 `json:"total"`
	Offset       int                 `json:"offset"`
	Transactions []*core.Transaction `json:"transactions"`
}

// handleListTransactions pages through the history, newest first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		renderError(w, err)
		return
	}

	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		renderError(w, err)
		return
	}

	txs := s.store.Wallet().Transactions
	resp := transactionsResponse{
		Total:        len(txs),
		Offset:       offset,
		Transactions: []*core.Transaction{},
	}

	for i := len(txs) - 1 - offset; i >= 0 && len(resp.Transactions) < limit; i-- {
		resp.Transactions = append(resp.Transactions, txs[i])
	}

	renderJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFindTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tx, ok := s.store.Transaction(id)
	if !ok {
		renderError(w, &core.ErrorInfo{Code: "not_found", Message: "transaction " + id + " not found"})
		return
	}

	renderJSON(w, http.StatusOK, tx)
}

type sendResult struct {
	tx  *core.Transaction
	err error
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req wallet.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, badRequest("invalid request body"))
		return
	}

	if _, err := govalidator.ValidateStruct(req); err != nil {
		renderError(w, badRequest(err.Error()))
		return
	}

	send := func() (any, error) {
		tx, err := s.wallets.Send(r.Context(), req)
		return sendResult{tx: tx, err: err}, nil
	}

	var res sendResult
	if key := r.Header.Get(idempotencyKeyHeader); key != "" {
		v, _, _ := s.sf.Do("send:"+key, send)
		res = v.(sendResult)
	} else {
		v, _ := send()
		res = v.(sendResult)
	}

	if res.err != nil {
		renderErrorWithTx(w, res.err, res.tx)
		return
	}

	renderJSON(w, http.StatusCreated, res.tx)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	tx, err := s.wallets.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, tx)
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	if err := s.wallets.Initialize(r.Context()); err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, s.store.Wallet())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.wallets.Reset(r.Context()); err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, s.store.Wallet())
}

func (s *Server) handleLoading(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Loading bool `json:"loading"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		renderError(w, badRequest("invalid request body"))
		return
	}

	if err := s.wallets.SetLoading(r.Context(), body.Loading); err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, s.store.Wallet())
}
