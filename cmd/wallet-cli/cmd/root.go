/*
Copyright © 2024 pando
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "wallet-cli",
	Short:        "http client for the drm wallet daemon",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("endpoint", "l", "http://localhost:8080/api", "api endpoint")
	rootCmd.PersistentFlags().StringP("output", "o", "json", "output format, json or yaml")
	viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
}

type apiError struct {
	Code        string         `json:"code"`
	Message     string         `json:"message"`
	Transaction map[string]any `json:"transaction,omitempty"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func getClient() *resty.Client {
	return resty.New().
		SetBaseURL(viper.GetString("endpoint")).
		SetHeader("Content-Type", "application/json").
		SetError(&apiError{})
}

// call sends the request and decodes the json body, failing on non 2xx
// responses.
func call(r *resty.Request, method, url string) (any, error) {
	var out any
	resp, err := r.SetResult(&out).Execute(method, url)
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		if e, ok := resp.Error().(*apiError); ok && e.Code != "" {
			if e.Transaction != nil {
				return e.Transaction, e
			}

			return nil, e
		}

		return nil, fmt.Errorf("%s %s: %s", method, url, resp.Status())
	}

	return out, nil
}

func printOutput(cmd *cobra.Command, v any) error {
	if viper.GetString("output") == "yaml" {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	cmd.Println(string(b))
	return nil
}
