package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/banksim/bank"
	"github.com/rustyeddy/banksim/money"
)

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad amount %q: %w", s, err)
	}
	if !money.Finite(v) {
		return 0, fmt.Errorf("bad amount %q: %w", s, bank.ErrInvalidAmount)
	}
	return v, nil
}

// optCustomer returns nil unless the flag was given.
func optCustomer(cmd *cobra.Command, id int) *int {
	if !cmd.Flags().Changed("customer") {
		return nil
	}
	return &id
}

func newDepositCmd(a *app) *cobra.Command {
	var customer int
	cmd := &cobra.Command{
		Use:   "deposit <amount>",
		Short: "Deposit money for a customer",
		Long: `Deposit credits a customer's deposit account and the bank's cash.
Without --customer the bank picks an existing customer half the time and
signs up a new one otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return a.withBank(cmdContext(cmd), func(e *bank.Engine) error {
				id, err := e.Deposit(cmdContext(cmd), amount, optCustomer(cmd, customer))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Customer %d deposited %s\n", id, money.Format(amount))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&customer, "customer", "c", 0, "customer id")
	return cmd
}

func newWithdrawCmd(a *app) *cobra.Command {
	var customer int
	cmd := &cobra.Command{
		Use:   "withdraw <amount>",
		Short: "Withdraw a customer's money",
		Long: `Withdraw pays out of a customer's deposits. Asking for more than the
customer holds pays out everything they have.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return a.withBank(cmdContext(cmd), func(e *bank.Engine) error {
				w, err := e.Withdraw(cmdContext(cmd), amount, optCustomer(cmd, customer))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Customer %d withdrew %s\n", w.CustomerID, money.Format(w.Amount))
				if w.Clamped {
					fmt.Fprintln(cmd.OutOrStdout(), "(limited to the customer's balance)")
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&customer, "customer", "c", 0, "customer id")
	return cmd
}

func newLoanCmd(a *app) *cobra.Command {
	var (
		customer int
		rate     float64
		approver string
	)
	cmd := &cobra.Command{
		Use:   "loan <amount> <years>",
		Short: "Lend money to a customer",
		Long: `Loan issues a loan from the bank's cash. The rate defaults to the
customer's credit tier rate scaled by the economy. With --approver the
request is reviewed first and may be declined or countered.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			years, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("bad years %q: %w", args[1], err)
			}
			out := cmd.OutOrStdout()
			ap, err := approverFor(approver, cmd.InOrStdin(), out)
			if err != nil {
				return err
			}

			req := bank.LoanRequest{
				Amount:          amount,
				Years:           years,
				CustomerID:      optCustomer(cmd, customer),
				RequireApproval: ap != nil,
			}
			if cmd.Flags().Changed("rate") {
				req.Rate = &rate
			}
			return a.withBank(cmdContext(cmd), func(e *bank.Engine) error {
				l, err := e.GiveLoan(cmdContext(cmd), req, ap)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Loan %s: %s to customer %d at %s for %d days\n",
					l.ID, money.Format(l.Principal), l.CustomerID, money.Percent(l.Rate), l.DaysLeft)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&customer, "customer", "c", 0, "customer id (default: a new customer)")
	cmd.Flags().Float64Var(&rate, "rate", 0, "annual rate override, e.g. 0.05")
	cmd.Flags().StringVar(&approver, "approver", "accept", "who reviews the request: accept|policy|prompt")
	return cmd
}

func newBorrowCmd(a *app) *cobra.Command {
	var rate float64
	cmd := &cobra.Command{
		Use:   "borrow <amount> <years>",
		Short: "Borrow from the central bank",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			years, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("bad years %q: %w", args[1], err)
			}
			return a.withBank(cmdContext(cmd), func(e *bank.Engine) error {
				l, err := e.BorrowCentralBank(cmdContext(cmd), amount, years, rate)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Borrowed %s at %s, due in %d days\n",
					money.Format(l.Principal), money.Percent(l.Rate), l.DaysLeft)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&rate, "rate", 0, "annual rate (default bank.central_bank_rate)")
	return cmd
}

func newRepayCmd(a *app) *cobra.Command {
	var (
		index  int
		amount float64
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "repay",
		Short: "Repay the central bank",
		Long: `Repay pays a central bank loan, interest first. Without flags the
oldest loan is paid off in full. --all pays off every loan or nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.withBank(cmdContext(cmd), func(e *bank.Engine) error {
				if all {
					rs, err := e.RepayAllCentralBank(cmdContext(cmd))
					if err != nil {
						return err
					}
					var total float64
					for _, r := range rs {
						total = money.Sum(total, r.Total())
					}
					fmt.Fprintf(out, "Repaid %d loan(s), %s in total\n", len(rs), money.Format(total))
					return nil
				}

				var idx *int
				if cmd.Flags().Changed("index") {
					idx = &index
				}
				var amt *float64
				if cmd.Flags().Changed("amount") {
					amt = &amount
				}
				r, err := e.RepayCentralBank(cmdContext(cmd), idx, amt)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Repaid %s (%s interest, %s principal)\n",
					money.Format(r.Total()), money.Format(r.InterestPaid), money.Format(r.PrincipalPaid))
				if r.Closed {
					fmt.Fprintln(out, "Loan paid off")
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&index, "index", "i", 0, "loan number as listed by 'banksim central'")
	cmd.Flags().Float64VarP(&amount, "amount", "a", 0, "amount to pay (default: everything owed)")
	cmd.Flags().BoolVar(&all, "all", false, "pay off every central bank loan")
	return cmd
}
