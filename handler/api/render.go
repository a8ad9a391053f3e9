package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/oxtoacart/bpool"
	"github.com/pandodao/drm-wallet/core"
)

var bufPool = bpool.NewBufferPool(64)

var codeStatus = map[string]int{
	"bad_request":               http.StatusBadRequest,
	"invalid_address":           http.StatusBadRequest,
	"invalid_amount":            http.StatusBadRequest,
	"invalid_transaction":       http.StatusBadRequest,
	"unknown_asset":             http.StatusBadRequest,
	"self_transfer_not_allowed": http.StatusBadRequest,
	"malformed_prefix":          http.StatusBadRequest,
	"invalid_length":            http.StatusBadRequest,
	"invalid_character":         http.StatusBadRequest,
	"checksum_mismatch":         http.StatusBadRequest,
	"insufficient_balance":      http.StatusUnprocessableEntity,
	"not_initialized":           http.StatusConflict,
	"invalid_transition":        http.StatusConflict,
	"unknown_transaction_id":    http.StatusNotFound,
	"not_found":                 http.StatusNotFound,
	"broadcast_failed":          http.StatusBadGateway,
	"duplicate_request":         http.StatusConflict,
}

type errorResponse struct {
	*core.ErrorInfo
	Transaction *core.Transaction `json:"transaction,omitempty"`
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	buf := bufPool.Get()
	defer bufPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(v); err != nil {
		slog.Error("json.Encode", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func statusOf(info *core.ErrorInfo) int {
	if status, ok := codeStatus[info.Code]; ok {
		return status
	}

	return http.StatusInternalServerError
}

func renderError(w http.ResponseWriter, err error) {
	renderErrorWithTx(w, err, nil)
}

func renderErrorWithTx(w http.ResponseWriter, err error, tx *core.Transaction) {
	info := core.NewErrorInfo(err)
	renderJSON(w, statusOf(info), errorResponse{ErrorInfo: info, Transaction: tx})
}

func badRequest(msg string) *core.ErrorInfo {
	return &core.ErrorInfo{Code: "bad_request", Message: msg}
}
