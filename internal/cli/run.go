package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/banksim/bank"
	"github.com/rustyeddy/banksim/events"
	"github.com/rustyeddy/banksim/money"
	"github.com/rustyeddy/banksim/runner"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		days      int
		realtime  bool
		eventProb float64
		approver  string
		quiet     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Advance the simulation with random customer activity",
		Long: `Run advances the bank day by day. After each day a random customer
event (deposit, withdrawal or loan request) fires with the configured
probability.

By default a batch of simulation.days days runs as fast as possible. With
--realtime a day passes on every simulation.tick until interrupted.

Examples:
  banksim run --days 365
  banksim run --realtime --approver prompt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !cmd.Flags().Changed("days") {
				days = a.cfg.Simulation.Days
			}
			if !cmd.Flags().Changed("event-prob") {
				eventProb = a.cfg.Simulation.EventProbability
			}
			if eventProb < 0 || eventProb > 1 {
				return fmt.Errorf("--event-prob must be between 0 and 1")
			}

			out := cmd.OutOrStdout()
			ap, err := approverFor(approver, cmd.InOrStdin(), out)
			if err != nil {
				return err
			}

			return a.withBank(ctx, func(e *bank.Engine) error {
				r := runner.New(e, events.NewGenerator(a.src(1), ap), a.src(2),
					runner.WithEventProbability(eventProb),
					runner.WithLogger(a.log),
					runner.OnDay(func(d runner.Day) {
						if !quiet {
							printDay(out, d)
						}
					}),
				)

				if realtime {
					fmt.Fprintf(out, "Running in real time (%s), Ctrl-C to stop\n", a.cfg.Simulation.Tick)
					if err := r.Realtime(ctx, a.cfg.Simulation.Tick); err != nil {
						return err
					}
				} else if _, err := r.Batch(ctx, days); err != nil && ctx.Err() == nil {
					return err
				}

				fmt.Fprintln(out)
				printSummary(out, e.Summary())
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&days, "days", "n", 30, "days to simulate (default simulation.days)")
	cmd.Flags().BoolVar(&realtime, "realtime", false, "advance one day per simulation.tick until interrupted")
	cmd.Flags().Float64Var(&eventProb, "event-prob", 0.5, "chance of a customer event after each day (default simulation.event_probability)")
	cmd.Flags().StringVar(&approver, "approver", "policy", "who reviews loan requests: accept|policy|prompt")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only print the final summary")
	return cmd
}

// printDay reports the notable things that happened on a day.
func printDay(w io.Writer, d runner.Day) {
	r := d.Report
	if d.Event != "" {
		fmt.Fprintf(w, "Day %4d  %s\n", r.Day, d.Event)
	}
	for _, l := range r.MaturedLoans {
		fmt.Fprintf(w, "Day %4d  Loan to customer %d matured (%s)\n", r.Day, l.CustomerID, money.Format(l.Principal))
	}
	if r.MonthlyIncome != nil {
		fmt.Fprintf(w, "Day %4d  Month closed: collected %s, paid %s, net %s\n",
			r.Day, money.Format(r.Collected), money.Format(r.Paid), money.Format(*r.MonthlyIncome))
	}
	if r.EconomyMessage != "" {
		fmt.Fprintf(w, "Day %4d  %s\n", r.Day, r.EconomyMessage)
	}
	if r.Tax != nil {
		fmt.Fprintf(w, "Day %4d  Tax: %s (%s)\n", r.Day, money.Format(r.Tax.Amount), r.Tax.Note)
	}
	if r.CentralOverdue > 0 {
		fmt.Fprintf(w, "Day %4d  WARNING: %d central bank loan(s) overdue\n", r.Day, r.CentralOverdue)
	}
	if r.MarketUpdated {
		fmt.Fprintf(w, "Day %4d  Stock market updated\n", r.Day)
	}
}

// cmdContext returns the command's context, or Background outside Execute.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
