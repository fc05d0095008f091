package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag  string
	chatFlag string
	rootCmd  = &cobra.Command{
		Use:   "ledgerctl",
		Short: "CLI client for the post ledger REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Ledger service base URL")
	rootCmd.PersistentFlags().StringVarP(&chatFlag, "chat", "c", "", "Chat scope (required for all operations)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func requireChat() error {
	if chatFlag == "" {
		return fmt.Errorf("--chat required")
	}
	return nil
}
