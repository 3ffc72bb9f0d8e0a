package main

import (
	"os"

	"github.com/jrsteele09/go-pkce-gateway/cmd/server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
