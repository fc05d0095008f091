package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	var period string

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the per-user leaderboard for a chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireChat(); err != nil {
				return err
			}
			data, err := doGet(fmt.Sprintf("/api/chats/%s/stats?period=%s", chatFlag, period))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	statsCmd.Flags().StringVarP(&period, "period", "p", "", "Period: today, week, month, all (default month)")
	rootCmd.AddCommand(statsCmd)

	var topPeriod string
	var limit int
	topCmd := &cobra.Command{
		Use:   "top",
		Short: "Show the top N users for a chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireChat(); err != nil {
				return err
			}
			data, err := doGet(fmt.Sprintf("/api/chats/%s/stats/top?period=%s&limit=%d", chatFlag, topPeriod, limit))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	topCmd.Flags().StringVarP(&topPeriod, "period", "p", "", "Period: today, week, month, all (default month)")
	topCmd.Flags().IntVarP(&limit, "limit", "l", 10, "Number of users to show")
	rootCmd.AddCommand(topCmd)

	mystatsCmd := &cobra.Command{
		Use:   "mystats USER_ID",
		Short: "Show one user's all-time totals in a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireChat(); err != nil {
				return err
			}
			data, err := doGet(fmt.Sprintf("/api/chats/%s/users/%s/stats", chatFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	rootCmd.AddCommand(mystatsCmd)

	dbStatsCmd := &cobra.Command{
		Use:   "db-stats",
		Short: "Show ledger totals for a chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireChat(); err != nil {
				return err
			}
			data, err := doGet(fmt.Sprintf("/api/chats/%s/db-stats", chatFlag))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	rootCmd.AddCommand(dbStatsCmd)
}
