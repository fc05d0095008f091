package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	var userId, name, textFile string
	submitCmd := &cobra.Command{
		Use:   "submit [TEXT]",
		Short: "Submit a post (first line is the character name)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireChat(); err != nil {
				return err
			}
			if userId == "" {
				return fmt.Errorf("--user required")
			}
			var text string
			switch {
			case textFile != "":
				data, err := os.ReadFile(textFile)
				if err != nil {
					return err
				}
				text = string(data)
			case len(args) == 1:
				text = args[0]
			default:
				return fmt.Errorf("provide post text as an argument or via --file")
			}

			payload := map[string]interface{}{
				"user_id":      userId,
				"display_name": name,
				"text":         text,
				"submitted_at": time.Now().UTC().Format(time.RFC3339Nano),
			}
			data, err := doPostJSON(fmt.Sprintf("/api/chats/%s/posts", chatFlag), payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, strings.TrimSpace(string(data)))
			return nil
		},
	}
	submitCmd.Flags().StringVarP(&userId, "user", "u", "", "User ID (required)")
	submitCmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	submitCmd.Flags().StringVarP(&textFile, "file", "f", "", "Read post text from a file")
	_ = submitCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(submitCmd)
}
