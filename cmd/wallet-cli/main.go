package main

import "github.com/pandodao/drm-wallet/cmd/wallet-cli/cmd"

func main() {
	cmd.Execute()
}
