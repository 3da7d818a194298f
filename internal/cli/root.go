package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	ConfigPath string
	LogLevel   string
}

func NewRootCmd() *cobra.Command {
	ro := &rootOptions{}
	a := &app{}

	cmd := &cobra.Command{
		Use:   "banksim",
		Short: "Run a bank through booms, busts and tax season",
		Long: `banksim simulates a small bank one day at a time.

Customers deposit and borrow, the economy drifts between regimes, the tax
man comes once a year and the bank can play the stock market with its cash.
State is saved after every operation, so each command picks up where the
last one left off.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&ro.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&ro.LogLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.load(ro)
	}

	cmd.AddCommand(
		newRunCmd(a),
		newStatusCmd(a),
		newHistoryCmd(a),
		newCustomersCmd(a),
		newLoansCmd(a),
		newCentralCmd(a),
		newTaxCmd(a),
		newDepositCmd(a),
		newWithdrawCmd(a),
		newLoanCmd(a),
		newBorrowCmd(a),
		newRepayCmd(a),
		newStocksCmd(a),
		newReplayCmd(a),
		newJournalCmd(a),
		newConfigCmd(),
		newVersionCmd(),
	)
	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
