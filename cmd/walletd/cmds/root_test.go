package cmds

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/service/address"
	"github.com/pandodao/drm-wallet/service/keystore"
	"github.com/pandodao/drm-wallet/store"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type transactions struct {
	txs []*core.Transaction
}

func (s *transactions) Save(context.Context, []*core.Transaction) error { return nil }

func (s *transactions) DeleteAll(context.Context) error { return nil }

func (s *transactions) Find(_ context.Context, id string) (*core.Transaction, error) {
	for _, tx := range s.txs {
		if tx.ID == id {
			return tx, nil
		}
	}

	return nil, sql.ErrNoRows
}

func (s *transactions) List(_ context.Context, offset, limit int) ([]*core.Transaction, error) {
	txs := s.txs[min(offset, len(s.txs)):]
	if limit > 0 && limit < len(txs) {
		txs = txs[:limit]
	}

	return txs, nil
}

func newCmd(t *testing.T) *Cmd {
	t.Helper()

	codec := address.New(address.FixtureParams)
	to, err := codec.Validate("drm1" + strings.Repeat("c", 39))
	if err != nil {
		t.Fatal(err)
	}

	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	return &Cmd{
		Codec: codec,
		Transactions: &transactions{txs: []*core.Transaction{
			{ID: "a", To: to, Amount: decimal.NewFromInt(2), Asset: core.Asset{Symbol: "DRM", Precision: 8}, Status: core.TransactionStatusConfirmed, Source: core.TransactionSourceReward, CreatedAt: at},
			{ID: "b", To: to, Amount: decimal.RequireFromString("0.5"), Asset: core.Asset{Symbol: "DRM", Precision: 8}, Status: core.TransactionStatusPending, Source: core.TransactionSourceTransfer, CreatedAt: at},
		}},
	}
}

func TestExportTransactions(t *testing.T) {
	c := newCmd(t)

	var buf bytes.Buffer
	cmd := c.exportTransactionsCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--offset", "1"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}

	var out []exportedTransaction
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}

	if len(out) != 1 || out[0].ID != "b" || out[0].Amount != "0.50000000" || out[0].Status != "pending" {
		t.Fatalf("out = %+v", out)
	}
}

func TestExportTransaction(t *testing.T) {
	c := newCmd(t)

	var buf bytes.Buffer
	cmd := c.exportTransactionCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"missing"})
	if err := cmd.ExecuteContext(context.Background()); !store.IsErrNotFound(err) {
		t.Fatalf("err = %v", err)
	}
}

func TestKeygen(t *testing.T) {
	c := newCmd(t)

	var buf bytes.Buffer
	cmd := c.keygenCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}

	var out struct {
		Wallet keystore.Keystore `yaml:"wallet"`
	}

	if err := yaml.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}

	signer, err := keystore.New(c.Codec, out.Wallet.PrivateKey)
	if err != nil {
		t.Fatal(err)
	}

	if signer.Address().String() != out.Wallet.Address {
		t.Fatalf("address = %s, want %s", out.Wallet.Address, signer.Address())
	}
}
