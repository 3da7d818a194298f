package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/banksim/bank"
	"github.com/rustyeddy/banksim/replay"
)

func newReplayCmd(a *app) *cobra.Command {
	var (
		strict   bool
		approver string
	)
	cmd := &cobra.Command{
		Use:   "replay <scenario.csv>",
		Short: "Apply a scripted scenario to the bank",
		Long: `Replay reads day,action,arg1,arg2,arg3 rows and applies them in order,
advancing the bank to each row's day first.

Actions: deposit, withdraw, loan, borrow, repay, repay_all, buy, sell, advance.

Example:
  0,deposit,1000
  0,loan,5000,2
  30,borrow,10000,1
  45,buy,AAPL,10
  60,advance,305`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ap, err := approverFor(approver, cmd.InOrStdin(), out)
			if err != nil {
				return err
			}
			return a.withBank(cmdContext(cmd), func(e *bank.Engine) error {
				res, err := replay.CSV(cmdContext(cmd), args[0], e, replay.Options{Strict: strict, Approver: ap})
				fmt.Fprintf(out, "Applied %d of %d row(s), advanced %d day(s)\n", res.Applied, res.Rows, res.Days)
				for _, r := range res.Refusals {
					fmt.Fprintf(out, "  line %d %s refused: %v\n", r.Line, r.Action, r.Err)
				}
				if err != nil {
					return err
				}
				printSummary(out, e.Summary())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "stop at the first refused operation")
	cmd.Flags().StringVar(&approver, "approver", "accept", "who reviews scripted loans: accept|policy|prompt")
	return cmd
}
