package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/banksim/bank"
	"github.com/rustyeddy/banksim/credit"
	"github.com/rustyeddy/banksim/money"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the bank at a glance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBank(cmdContext(cmd), func(e *bank.Engine) error {
				printSummary(cmd.OutOrStdout(), e.Summary())
				return nil
			})
		},
	}
}

func printSummary(w io.Writer, s bank.Summary) {
	t := newTable(w)
	fmt.Fprintf(t, "Day\t%d\n", s.Day)
	fmt.Fprintf(t, "Balance\t%s\n", money.Format(s.Balance))
	fmt.Fprintf(t, "Customer deposits\t%s\n", money.Format(s.TotalDeposits))
	fmt.Fprintf(t, "Interest earned\t%s\n", money.Format(s.InterestEarned))
	fmt.Fprintf(t, "Customers\t%s\n", humanize.Comma(int64(s.Customers)))
	fmt.Fprintf(t, "Active loans\t%s\n", humanize.Comma(int64(s.Loans)))
	fmt.Fprintf(t, "Central bank debt\t%s\n", money.Format(s.CentralBankDebt))
	fmt.Fprintf(t, "Portfolio value\t%s\n", money.Format(s.PortfolioValue))
	fmt.Fprintf(t, "Economy\t%s\n", s.Regime)
	fmt.Fprintf(t, "Yearly income\t%s\n", money.Format(s.YearlyIncome))
	fmt.Fprintf(t, "Next collection\tin %d days\n", s.DaysUntilCollection)
	fmt.Fprintf(t, "Next tax payment\tin %d days\n", s.DaysUntilTax)
	t.Flush()
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		transactions bool
		limit        int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent bank history",
		Long: `History prints the entries of the rolling history window. With
--transactions it prints the capped transaction feed instead. Older
entries live on in the journal (see banksim journal).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.withBank(cmdContext(cmd), func(e *bank.Engine) error {
				t := newTable(out)
				defer t.Flush()

				if transactions {
					txs := e.Transactions()
					if limit > 0 && len(txs) > limit {
						txs = txs[len(txs)-limit:]
					}
					fmt.Fprintln(t, "SEQ\tDAY\tKIND\tAMOUNT")
					for _, tx := range txs {
						fmt.Fprintf(t, "%d\t%d\t%s\t%s\n", tx.Seq, tx.Day, tx.Kind, money.Format(tx.Amount))
					}
					return nil
				}

				hist := e.History()
				if limit > 0 && len(hist) > limit {
					hist = hist[len(hist)-limit:]
				}
				for _, h := range hist {
					fmt.Fprintf(t, "Day %d\t%s\n", h.Day, h.Description)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&transactions, "transactions", "t", false, "show the transaction feed")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the last n rows")
	return cmd
}

func newCustomersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "customers",
		Short: "List customers with their credit and balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBank(cmdContext(cmd), func(e *bank.Engine) error {
				t := newTable(cmd.OutOrStdout())
				defer t.Flush()
				fmt.Fprintln(t, "ID\tSCORE\tTIER\tDEPOSITS\tLOANS")
				for _, c := range e.Customers() {
					fmt.Fprintf(t, "%d\t%d\t%s\t%s\t%d\n",
						c.ID, c.CreditScore, credit.TierOf(c.CreditScore), money.Format(c.DepositBalance), len(c.Loans))
				}
				return nil
			})
		},
	}
}

func newLoansCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "loans",
		Short: "List outstanding customer loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBank(cmdContext(cmd), func(e *bank.Engine) error {
				t := newTable(cmd.OutOrStdout())
				defer t.Flush()
				fmt.Fprintln(t, "ID\tCUSTOMER\tPRINCIPAL\tRATE\tDAYS LEFT\tACCRUED")
				for _, l := range e.Loans() {
					fmt.Fprintf(t, "%s\t%d\t%s\t%s\t%d\t%s\n", l.ID, l.CustomerID, money.Format(l.Principal),
						money.Percent(l.Rate), l.DaysLeft, money.Format(money.Round(l.Accrued)))
				}
				return nil
			})
		},
	}
}

func newCentralCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "central",
		Short: "List loans owed to the central bank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBank(cmdContext(cmd), func(e *bank.Engine) error {
				t := newTable(cmd.OutOrStdout())
				defer t.Flush()
				fmt.Fprintln(t, "#\tPRINCIPAL\tRATE\tDAYS LEFT\tDUE")
				for i, l := range e.CentralBankLoans() {
					fmt.Fprintf(t, "%d\t%s\t%s\t%d\t%s\n", i, money.Format(l.Principal),
						money.Percent(l.Rate), l.DaysLeft, money.Format(l.Due()))
				}
				return nil
			})
		},
	}
}

func newTaxCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tax",
		Short: "Show income and past tax assessments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.withBank(cmdContext(cmd), func(e *bank.Engine) error {
				months := e.MonthlyIncome()
				fmt.Fprintf(out, "Yearly income: %s over %d month(s)\n\n", money.Format(e.YearlyIncome()), len(months))

				t := newTable(out)
				defer t.Flush()
				fmt.Fprintln(t, "DAY\tINCOME\tRATE\tAMOUNT\tSTATUS")
				for _, r := range e.TaxHistory() {
					fmt.Fprintf(t, "%d\t%s\t%s\t%s\t%s\n", r.Day, money.Format(r.Income),
						money.Percent(r.Rate), money.Format(r.Amount), r.Note)
				}
				return nil
			})
		},
	}
}
