/*
Copyright © 2024 pando
*/
package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "show the wallet state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return show(cmd, "/wallet")
	},
}

var stateCmd = &cobra.Command{
	Use:       "state [network|mining]",
	Short:     "show the full state or one slice of it",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"network", "mining"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return show(cmd, "/"+args[0])
		}

		return show(cmd, "/state")
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "bind the wallet to the daemon key",
	RunE: func(cmd *cobra.Command, args []string) error {
		return post(cmd, "/wallet/initialize", nil)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "clear balances and history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return post(cmd, "/wallet/reset", nil)
	},
}

func init() {
	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(resetCmd)
}

func show(cmd *cobra.Command, path string) error {
	r := getClient().R().SetContext(cmd.Context())
	out, err := call(r, http.MethodGet, path)
	if err != nil {
		return err
	}

	return printOutput(cmd, out)
}

func post(cmd *cobra.Command, path string, body any) error {
	r := getClient().R().SetContext(cmd.Context())
	if body != nil {
		r.SetBody(body)
	}

	out, err := call(r, http.MethodPost, path)
	if err != nil {
		return err
	}

	return printOutput(cmd, out)
}
