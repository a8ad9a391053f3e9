package network

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-resty/resty/v2"
	"github.com/pandodao/drm-wallet/core"
)

type Config struct {
	Endpoint string        `valid:"required,url" mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type service struct {
	client *resty.Client
	codec  core.AddressCodec
}

func New(cfg Config, codec core.AddressCodec) core.NetworkService {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &service{client: client, codec: codec}
}

type transactionRequest struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Symbol    string `json:"symbol"`
	Signature string `json:"signature"`
	CreatedAt int64  `json:"created_at"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *errorResponse) Error() string {
	if e.Code == "" {
		return e.Message
	}

	return e.Code + ": " + e.Message
}

func (s *service) Broadcast(ctx context.Context, tx *core.Transaction) error {
	body := transactionRequest{
		ID:        tx.ID,
		From:      tx.From.String(),
		To:        tx.To.String(),
		Amount:    tx.Amount.String(),
		Symbol:    tx.Asset.Symbol,
		Signature: tx.Signature,
		CreatedAt: tx.CreatedAt.UnixMilli(),
	}

	r, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		SetError(&errorResponse{}).
		Post("/transactions")
	if err != nil {
		return &core.BroadcastError{Err: err}
	}

	if r.IsError() {
		return &core.BroadcastError{Err: responseError(r), Rejected: r.StatusCode() < http.StatusInternalServerError}
	}

	return nil
}

func (s *service) Blocks(ctx context.Context, fromHeight uint64, limit int) ([]core.BlockEvent, error) {
	var envelopes []core.EventEnvelope
	r, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"from":  strconv.FormatUint(fromHeight, 10),
			"limit": strconv.Itoa(limit),
		}).
		SetResult(&envelopes).
		SetError(&errorResponse{}).
		Get("/blocks")
	if err != nil {
		return nil, err
	}

	if r.IsError() {
		return nil, responseError(r)
	}

	blocks := make([]core.BlockEvent, 0, len(envelopes))
	for _, env := range envelopes {
		ev, err := env.Decode(s.codec)
		if err != nil {
			return nil, fmt.Errorf("decode block %d: %w", env.Height, err)
		}

		block, ok := ev.(core.BlockEvent)
		if !ok {
			return nil, fmt.Errorf("unexpected %s event in block list", ev.Kind())
		}

		blocks = append(blocks, block)
	}

	return blocks, nil
}

func responseError(r *resty.Response) error {
	if e, ok := r.Error().(*errorResponse); ok && (e.Code != "" || e.Message != "") {
		return e
	}

	return fmt.Errorf("unexpected status %s", r.Status())
}
