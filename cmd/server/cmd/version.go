package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-pkce-gateway/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("go-pkce-gateway", version.Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
