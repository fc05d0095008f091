package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	backupCmd := &cobra.Command{Use: "backup", Short: "Snapshot export and restore"}

	var outFile string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export a chat's ledger as a snapshot document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireChat(); err != nil {
				return err
			}
			data, err := doGet(fmt.Sprintf("/api/chats/%s/backup", chatFlag))
			if err != nil {
				return err
			}
			if outFile != "" {
				return os.WriteFile(outFile, data, 0o644)
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the snapshot to a file instead of stdout")
	backupCmd.AddCommand(exportCmd)

	restoreCmd := &cobra.Command{
		Use:   "restore SNAPSHOT_FILE",
		Short: "Validate a snapshot and request a confirmation token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireChat(); err != nil {
				return err
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var snapshot json.RawMessage
			if err := json.Unmarshal(raw, &snapshot); err != nil {
				return fmt.Errorf("snapshot file is not valid JSON: %w", err)
			}
			data, err := doPostJSON(fmt.Sprintf("/api/chats/%s/restore", chatFlag), snapshot)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	backupCmd.AddCommand(restoreCmd)

	confirmCmd := &cobra.Command{
		Use:   "confirm TOKEN",
		Short: "Confirm a pending restore; replaces the chat's ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireChat(); err != nil {
				return err
			}
			payload := map[string]string{"token": args[0]}
			data, err := doPostJSON(fmt.Sprintf("/api/chats/%s/restore/confirm", chatFlag), payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	backupCmd.AddCommand(confirmCmd)

	discardCmd := &cobra.Command{
		Use:   "discard",
		Short: "Discard a pending restore without applying it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireChat(); err != nil {
				return err
			}
			data, err := doDelete(fmt.Sprintf("/api/chats/%s/restore", chatFlag))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	backupCmd.AddCommand(discardCmd)

	rootCmd.AddCommand(backupCmd)
}
