package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Track income and expenses by category",
	Long: `Tracker records income and expense transactions, keeps running totals
per category and serves a web page with the balance, a category chart and the
transaction history.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	rootCmd.AddCommand(serveCmd, addCmd, deleteCmd, listCmd, summaryCmd)
}
