package core

import (
	"errors"
	"fmt"
)

type AddressErrorKind uint8

const (
	AddressMalformedPrefix AddressErrorKind = iota + 1
	AddressInvalidLength
	AddressInvalidCharacter
	AddressChecksumMismatch
)

var addressErrorCodes = map[AddressErrorKind]string{
	AddressMalformedPrefix:  "malformed_prefix",
	AddressInvalidLength:    "invalid_length",
	AddressInvalidCharacter: "invalid_character",
	AddressChecksumMismatch: "checksum_mismatch",
}

func (k AddressErrorKind) String() string {
	if s, ok := addressErrorCodes[k]; ok {
		return s
	}

	return fmt.Sprintf("AddressErrorKind(%d)", uint8(k))
}

type AddressError struct {
	Kind  AddressErrorKind
	Input string
}

func (e *AddressError) Error() string {
	if e.Input == "" {
		return "address: " + e.Kind.String()
	}

	return fmt.Sprintf("address %q: %s", e.Input, e.Kind)
}

func (e *AddressError) Is(target error) bool {
	t, ok := target.(*AddressError)
	return ok && t.Kind == e.Kind
}

var (
	ErrMalformedPrefix  = &AddressError{Kind: AddressMalformedPrefix}
	ErrInvalidLength    = &AddressError{Kind: AddressInvalidLength}
	ErrInvalidCharacter = &AddressError{Kind: AddressInvalidCharacter}
	ErrChecksumMismatch = &AddressError{Kind: AddressChecksumMismatch}
)

type BuildErrorKind uint8

const (
	BuildInvalidAddress BuildErrorKind = iota + 1
	BuildInvalidAmount
	BuildInsufficientBalance
	BuildSelfTransferNotAllowed
	BuildUnknownAsset
)

var buildErrorCodes = map[BuildErrorKind]string{
	BuildInvalidAddress:         "invalid_address",
	BuildInvalidAmount:          "invalid_amount",
	BuildInsufficientBalance:    "insufficient_balance",
	BuildSelfTransferNotAllowed: "self_transfer_not_allowed",
	BuildUnknownAsset:           "unknown_asset",
}

func (k BuildErrorKind) String() string {
	if s, ok := buildErrorCodes[k]; ok {
		return s
	}

	return fmt.Sprintf("BuildErrorKind(%d)", uint8(k))
}

type BuildError struct {
	Kind BuildErrorKind
	Err  error
}

func (e *BuildError) Error() string {
	msg := buildErrorMessages[e.Kind]
	if msg == "" {
		msg = e.Kind.String()
	}

	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}

	return msg
}

var buildErrorMessages = map[BuildErrorKind]string{
	BuildInvalidAddress:         "invalid address",
	BuildInvalidAmount:          "invalid amount",
	BuildInsufficientBalance:    "insufficient balance",
	BuildSelfTransferNotAllowed: "self transfer not allowed",
	BuildUnknownAsset:           "unknown asset",
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

func (e *BuildError) Is(target error) bool {
	t, ok := target.(*BuildError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidAddress         = &BuildError{Kind: BuildInvalidAddress}
	ErrInvalidAmount          = &BuildError{Kind: BuildInvalidAmount}
	ErrInsufficientBalance    = &BuildError{Kind: BuildInsufficientBalance}
	ErrSelfTransferNotAllowed = &BuildError{Kind: BuildSelfTransferNotAllowed}
	ErrUnknownAsset           = &BuildError{Kind: BuildUnknownAsset}
)

type TransitionErrorKind uint8

const (
	TransitionUnknownTransactionID TransitionErrorKind = iota + 1
	TransitionInvalid
)

func (k TransitionErrorKind) String() string {
	switch k {
	case TransitionUnknownTransactionID:
		return "unknown_transaction_id"
	case TransitionInvalid:
		return "invalid_transition"
	default:
		return fmt.Sprintf("TransitionErrorKind(%d)", uint8(k))
	}
}

type TransitionError struct {
	Kind TransitionErrorKind
	TxID string
	From TransactionStatus
	To   TransactionStatus
}

func (e *TransitionError) Error() string {
	switch e.Kind {
	case TransitionUnknownTransactionID:
		return fmt.Sprintf("unknown transaction id %q", e.TxID)
	case TransitionInvalid:
		return fmt.Sprintf("transaction %s: invalid transition %s -> %s", e.TxID, e.From, e.To)
	default:
		return e.Kind.String()
	}
}

func (e *TransitionError) Is(target error) bool {
	t, ok := target.(*TransitionError)
	return ok && t.Kind == e.Kind
}

var (
	ErrUnknownTransactionID = &TransitionError{Kind: TransitionUnknownTransactionID}
	ErrInvalidTransition    = &TransitionError{Kind: TransitionInvalid}
)

// BroadcastError wraps whatever the network collaborator returned. Rejected
// is set when the network answered and refused the transaction, as opposed
// to being unreachable.
type BroadcastError struct {
	Err      error
	Rejected bool
}

func (e *BroadcastError) Error() string {
	return "broadcast failed: " + e.Err.Error()
}

func (e *BroadcastError) Unwrap() error {
	return e.Err
}

// ErrCorruptedState is returned when a persisted state fails invariant checks.
var ErrCorruptedState = errors.New("corrupted wallet state")

// ErrorInfo is the serializable projection of an error kept in WalletState.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorInfo) Error() string {
	return e.Message
}

// NewErrorInfo maps a domain error to its code; nil stays nil.
func NewErrorInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}

	var (
		addrErr       *AddressError
		buildErr      *BuildError
		transitionErr *TransitionError
		broadcastErr  *BroadcastError
		info          *ErrorInfo
	)

	code := "internal"
	switch {
	case errors.As(err, &info):
		return &ErrorInfo{Code: info.Code, Message: info.Message}
	case errors.As(err, &buildErr):
		code = buildErr.Kind.String()
	case errors.As(err, &addrErr):
		code = addrErr.Kind.String()
	case errors.As(err, &transitionErr):
		code = transitionErr.Kind.String()
	case errors.As(err, &broadcastErr):
		code = "broadcast_failed"
	case errors.Is(err, ErrCorruptedState):
		code = "corrupted_state"
	}

	return &ErrorInfo{Code: code, Message: err.Error()}
}
