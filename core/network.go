package core

import "context"

// NetworkService is the network collaborator.
type NetworkService interface {
	Broadcast(ctx context.Context, tx *Transaction) error
	Blocks(ctx context.Context, fromHeight uint64, limit int) ([]BlockEvent, error)
}

// Signer is the key/identity collaborator. It owns the private key; the
// wallet core only sees the address and the resulting signature.
type Signer interface {
	Address() Address
	Sign(ctx context.Context, tx *Transaction) error
}
