package keystore

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/service/address"
	"github.com/shopspring/decimal"
)

func TestNew(t *testing.T) {
	for _, params := range []address.Params{address.DefaultParams, address.FixtureParams} {
		codec := address.New(params)
		ks, err := Generate(codec)
		if err != nil {
			t.Fatal(err)
		}

		s, err := New(codec, ks.PrivateKey)
		if err != nil {
			t.Fatal(err)
		}

		if got := s.Address().String(); got != ks.Address {
			t.Fatalf("address = %s, want %s", got, ks.Address)
		}

		if _, err := codec.Validate(ks.Address); err != nil {
			t.Fatalf("derived address does not validate: %v", err)
		}
	}
}

func TestNewInvalidKey(t *testing.T) {
	codec := address.New(address.DefaultParams)
	for _, key := range []string{"", "zz", strings.Repeat("ab", 16)} {
		if _, err := New(codec, key); err == nil {
			t.Errorf("New(%q) should fail", key)
		}
	}
}

func TestSign(t *testing.T) {
	codec := address.New(address.DefaultParams)
	s, err := New(codec, strings.Repeat("01", ed25519.SeedSize))
	if err != nil {
		t.Fatal(err)
	}

	tx := &core.Transaction{
		ID:     "tx-1",
		From:   s.Address(),
		To:     s.Address(),
		Amount: decimal.NewFromInt(3),
		Asset:  core.Asset{Symbol: "DRM", Precision: 8},
	}

	if err := s.Sign(context.Background(), tx); err != nil {
		t.Fatal(err)
	}

	pub, _ := hex.DecodeString(s.(*signer).Keystore().PublicKey)
	if !Verify(pub, tx) {
		t.Fatal("signature does not verify")
	}

	tx.Amount = decimal.NewFromInt(4)
	if Verify(pub, tx) {
		t.Fatal("tampered transaction verifies")
	}

	tx.From = core.Address{}
	if err := s.Sign(context.Background(), tx); err == nil {
		t.Fatal("signing a foreign transaction should fail")
	}
}
