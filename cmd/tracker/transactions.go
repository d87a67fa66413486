package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tracker/internal/backend"
	"tracker/internal/cli"
	"tracker/internal/config"
	applog "tracker/internal/log"
	"tracker/internal/render"
	"tracker/internal/services"
)

var (
	listJSON    bool
	summaryJSON bool
)

var addCmd = &cobra.Command{
	Use:   "add <category> <name> <amount>",
	Short: "Record a transaction",
	Long: `Record a transaction in the configured store.

Category is one of income, grocery, restaurant, transit, car, home or other.
Amount is a non-negative decimal such as 12.50.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(res *backend.BackendResult, currency string) error {
			tx, err := res.Service.Record(cmd.Context(), services.Input{
				Category: args[0],
				Name:     args[1],
				Amount:   args[2],
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %s %s %s\n",
				tx.ID, tx.Category.Label(), tx.Name, render.Display(tx.Amount, currency))
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a transaction by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(res *backend.BackendResult, _ string) error {
			removed, err := res.Service.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("transaction %q not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackend(cmd, func(res *backend.BackendResult, currency string) error {
			view := render.Build(res.Ledger.Snapshot(), currency)
			if listJSON {
				return writeJSON(cmd.OutOrStdout(), view.History)
			}
			return writeHistory(cmd.OutOrStdout(), view.History)
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show income, expense, balance and the per-category breakdown",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackend(cmd, func(res *backend.BackendResult, currency string) error {
			view := render.Build(res.Ledger.Snapshot(), currency)
			if summaryJSON {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			return writeSummary(cmd.OutOrStdout(), view)
		})
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON")
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "print JSON")
}

type cmdEnv struct {
	logger *slog.Logger
	cfg    *config.Config
}

// setup loads the env file, configures logging on stderr and validates the
// configuration.
func setup(cmd *cobra.Command, component string) (cmdEnv, error) {
	cli.LoadEnvFile(envFile)
	cfg := config.Load()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger := cli.SetupLogger(cmd.ErrOrStderr(), cfg.LogLevel, component)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		return cmdEnv{}, err
	}
	return cmdEnv{logger: logger, cfg: cfg}, nil
}

func withBackend(cmd *cobra.Command, fn func(res *backend.BackendResult, currency string) error) error {
	env, err := setup(cmd, applog.ComponentCLI)
	if err != nil {
		return err
	}
	res, err := cli.OpenBackend(cmd.Context(), env.logger, env.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			env.logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()
	return fn(res, env.cfg.Currency)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeHistory(w io.Writer, rows []render.HistoryRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "no transactions")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tNAME\tAMOUNT")
	for _, r := range rows {
		amount := r.Amount
		if !r.Income {
			amount = "-" + amount
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Category, r.Name, amount)
	}
	return tw.Flush()
}

func writeSummary(w io.Writer, v render.View) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Income\t%s\n", v.IncomeDisplay)
	fmt.Fprintf(tw, "Expense\t%s\n", v.ExpenseDisplay)
	fmt.Fprintf(tw, "Balance\t%s\n", v.BalanceDisplay)
	fmt.Fprintln(tw)
	for _, c := range v.Categories {
		fmt.Fprintf(tw, "%s\t%s\t%d%%\n", c.Label, c.Amount, c.Percent)
	}
	if v.Chart.Empty {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, v.Chart.Message)
	}
	return tw.Flush()
}
