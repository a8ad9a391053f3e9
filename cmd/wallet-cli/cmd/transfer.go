/*
Copyright © 2024 pando
*/
package cmd

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var transferOpt struct {
	key       string
	recipient string
	amount    string
	asset     string
}

// transferCmd represents the transfer command
var transferCmd = &cobra.Command{
	Use:   "transfer [id]",
	Short: "send a transfer, or show one by id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return show(cmd, "/transactions/"+args[0])
		}

		if transferOpt.key == "" {
			transferOpt.key = uuid.NewString()
		}

		r := getClient().R().
			SetContext(cmd.Context()).
			SetHeader("Idempotency-Key", transferOpt.key).
			SetBody(map[string]string{
				"recipient": transferOpt.recipient,
				"amount":    transferOpt.amount,
				"asset":     transferOpt.asset,
			})

		out, err := call(r, http.MethodPost, "/transactions")
		if out != nil {
			_ = printOutput(cmd, out)
		}

		if err != nil {
			cmd.PrintErrln("retry with --key", transferOpt.key)
		}

		return err
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "cancel a pending transfer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return post(cmd, "/transactions/"+args[0]+"/cancel", nil)
	},
}

var historyOpt struct {
	offset int
	limit  int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "list transactions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := getClient().R().
			SetContext(cmd.Context()).
			SetQueryParam("offset", strconv.Itoa(historyOpt.offset)).
			SetQueryParam("limit", strconv.Itoa(historyOpt.limit))

		out, err := call(r, http.MethodGet, "/transactions")
		if err != nil {
			return err
		}

		return printOutput(cmd, out)
	},
}

func init() {
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(historyCmd)

	transferCmd.Flags().StringVar(&transferOpt.key, "key", "", "idempotency key (optional)")
	transferCmd.Flags().StringVar(&transferOpt.recipient, "to", "", "recipient address")
	transferCmd.Flags().StringVar(&transferOpt.amount, "amount", "", "amount")
	transferCmd.Flags().StringVar(&transferOpt.asset, "asset", "DRM", "asset symbol")

	historyCmd.Flags().IntVar(&historyOpt.offset, "offset", 0, "offset")
	historyCmd.Flags().IntVar(&historyOpt.limit, "limit", 20, "limit")
}
