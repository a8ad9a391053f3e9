package keystore

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/pandodao/drm-wallet/core"
	"github.com/zeebo/blake3"
	"lukechampine.com/frand"
)

// Keystore is the exported form of a wallet key.
type Keystore struct {
	PrivateKey string `json:"private_key" yaml:"private_key"`
	PublicKey  string `json:"public_key" yaml:"public_key"`
	Address    string `json:"address" yaml:"address"`
}

type signer struct {
	key     ed25519.PrivateKey
	address core.Address
}

// New loads a signer from a hex encoded ed25519 seed.
func New(codec core.AddressCodec, privateKey string) (core.Signer, error) {
	seed, err := hex.DecodeString(strings.TrimSpace(privateKey))
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}

	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}

	key := ed25519.NewKeyFromSeed(seed)
	addr, err := AddressOf(codec, key.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}

	return &signer{key: key, address: addr}, nil
}

// Generate creates a fresh key and returns its keystore.
func Generate(codec core.AddressCodec) (*Keystore, error) {
	seed := frand.Bytes(ed25519.SeedSize)
	s, err := New(codec, hex.EncodeToString(seed))
	if err != nil {
		return nil, err
	}

	return s.(*signer).Keystore(), nil
}

// AddressOf derives the wallet address of a public key: the hex blake3
// digest truncated to whatever payload length the codec accepts.
func AddressOf(codec core.AddressCodec, pub ed25519.PublicKey) (core.Address, error) {
	sum := blake3.Sum256(pub)
	payload := hex.EncodeToString(sum[:])

	for l := len(payload); l > 0; l-- {
		if addr, err := codec.Encode(payload[:l]); err == nil {
			return addr, nil
		}
	}

	return core.Address{}, errors.New("codec payload longer than public key digest")
}

func (s *signer) Address() core.Address {
	return s.address
}

func (s *signer) Keystore() *Keystore {
	return &Keystore{
		PrivateKey: hex.EncodeToString(s.key.Seed()),
		PublicKey:  hex.EncodeToString(s.key.Public().(ed25519.PublicKey)),
		Address:    s.address.String(),
	}
}

func (s *signer) Sign(_ context.Context, tx *core.Transaction) error {
	if tx.From != s.address {
		return fmt.Errorf("transaction %s is not from %s", tx.ID, s.address)
	}

	tx.Signature = hex.EncodeToString(ed25519.Sign(s.key, Digest(tx)))
	return nil
}

// Digest is the message a transaction signature covers.
func Digest(tx *core.Transaction) []byte {
	h := blake3.New()
	_, _ = fmt.Fprintf(h, "%s|%s|%s|%s|%s", tx.ID, tx.From, tx.To, tx.Amount.String(), tx.Asset.Symbol)
	return h.Sum(nil)
}

// Verify checks tx.Signature against pub.
func Verify(pub ed25519.PublicKey, tx *core.Transaction) bool {
	sig, err := hex.DecodeString(tx.Signature)
	if err != nil {
		return false
	}

	return ed25519.Verify(pub, Digest(tx), sig)
}
