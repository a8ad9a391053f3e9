package cmds

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/service/keystore"
	"github.com/pandodao/generic"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type Cmd struct {
	Transactions core.TransactionStore
	Codec        core.AddressCodec
}

func (c *Cmd) Run(ctx context.Context, args []string) error {
	root := &cobra.Command{
		Use:   "walletd",
		Short: "drm wallet daemon maintenance commands",
	}

	root.AddCommand(c.exportTransactionsCmd())
	root.AddCommand(c.exportTransactionCmd())
	root.AddCommand(c.keygenCmd())

	root.SetArgs(args)
	root.SetOut(os.Stdout)

	return root.ExecuteContext(ctx)
}

type exportedTransaction struct {
	ID          string `json:"id"`
	From        string `json:"from,omitempty"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
	Asset       string `json:"asset"`
	Status      string `json:"status"`
	Source      string `json:"source"`
	CreatedAt   string `json:"created_at"`
	BlockHeight uint64 `json:"block_height,omitempty"`
}

func exportTransaction(tx *core.Transaction) exportedTransaction {
	return exportedTransaction{
		ID:          tx.ID,
		From:        tx.From.String(),
		To:          tx.To.String(),
		Amount:      tx.Amount.StringFixed(tx.Asset.Precision),
		Asset:       tx.Asset.Symbol,
		Status:      tx.Status.String(),
		Source:      string(tx.Source),
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
		BlockHeight: tx.BlockHeight,
	}
}

func (c *Cmd) exportTransactionsCmd() *cobra.Command {
	var offset, limit int

	cmd := &cobra.Command{
		Use:   "export-transactions",
		Short: "export the persisted transaction history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			txs, err := c.Transactions.List(ctx, offset, limit)
			if err != nil {
				return err
			}

			return jsonPrint(cmd, generic.MapSlice(txs, exportTransaction))
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "skip the first n transactions")
	cmd.Flags().IntVar(&limit, "limit", 0, "max transactions, 0 for all")
	return cmd
}

func (c *Cmd) exportTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-transaction",
		Short: "export a persisted transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tx, err := c.Transactions.Find(ctx, args[0])
			if err != nil {
				return err
			}

			return jsonPrint(cmd, exportTransaction(tx))
		},
	}
}

func (c *Cmd) keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "generate a wallet key, printed as a config snippet",
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := keystore.Generate(c.Codec)
			if err != nil {
				return err
			}

			return yamlPrint(cmd, map[string]*keystore.Keystore{"wallet": ks})
		},
	}
}

func jsonPrint(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yamlPrint(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}
