package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/banksim/bank"
	"github.com/rustyeddy/banksim/money"
)

func newStocksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stocks",
		Short: "Trade on the stock market with the bank's cash",
		Long: `The market lists a rotating set of stocks. Every update interval the
listings rotate and reprice; stocks the bank holds keep their last price
until they are listed again.

Subcommands:
  list       - Show the stocks available to buy
  buy        - Buy shares of a listed stock
  sell       - Sell shares the bank holds
  portfolio  - Show holdings marked to market
  prices     - Show the price history of a ticker`,
	}
	cmd.AddCommand(
		newStocksListCmd(a),
		newStocksTradeCmd(a, "buy"),
		newStocksTradeCmd(a, "sell"),
		newPortfolioCmd(a),
		newPricesCmd(a),
	)
	return cmd
}

func newStocksListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the stocks available to buy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBank(cmdContext(cmd), func(e *bank.Engine) error {
				m := e.Market()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Next market update in %d days\n\n", m.DaysUntilUpdate)

				t := newTable(out)
				defer t.Flush()
				fmt.Fprintln(t, "TICKER\tNAME\tPRICE\tCHANGE\t52W HIGH\t52W LOW\tP/E\tD/E")
				for _, l := range m.Available {
					fmt.Fprintf(t, "%s\t%s\t%s\t%+.2f%%\t%s\t%s\t%.1f\t%.2f\n", l.Ticker, l.Name,
						money.Format(l.Price), l.DailyChangePercent, money.Format(l.High52),
						money.Format(l.Low52), l.PERatio, l.DebtEquity)
				}
				return nil
			})
		},
	}
}

func newStocksTradeCmd(a *app, side string) *cobra.Command {
	return &cobra.Command{
		Use:   side + " <ticker> <shares>",
		Short: strings.ToUpper(side[:1]) + side[1:] + " shares",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker := strings.ToUpper(args[0])
			shares, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("bad shares %q: %w", args[1], err)
			}
			return a.withBank(cmdContext(cmd), func(e *bank.Engine) error {
				ctx := cmdContext(cmd)
				out := cmd.OutOrStdout()
				if side == "buy" {
					t, err := e.BuyStock(ctx, ticker, shares)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Bought %d %s at %s for %s\n", t.Shares, t.Ticker, money.Format(t.Price), money.Format(t.Amount))
					return nil
				}
				t, err := e.SellStock(ctx, ticker, shares)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Sold %d %s at %s for %s (profit: %s)\n", t.Shares, t.Ticker,
					money.Format(t.Price), money.Format(t.Amount), money.Format(t.ProfitLoss))
				return nil
			})
		},
	}
}

func newPortfolioCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Show holdings marked to market",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBank(cmdContext(cmd), func(e *bank.Engine) error {
				m := e.Market()
				out := cmd.OutOrStdout()
				if len(m.Holdings) == 0 {
					fmt.Fprintln(out, "No holdings")
					return nil
				}

				t := newTable(out)
				fmt.Fprintln(t, "TICKER\tSHARES\tAVG PRICE\tPRICE\tVALUE")
				for _, h := range m.Holdings {
					fmt.Fprintf(t, "%s\t%d\t%s\t%s\t%s\n", h.Ticker, h.Shares,
						money.Format(h.AvgPrice), money.Format(h.Price), money.Format(h.Value))
				}
				t.Flush()
				fmt.Fprintf(out, "\nPortfolio value %s, return %s (%+.2f%%)\n",
					money.Format(m.PortfolioValue), money.Format(m.TotalReturn), m.PercentReturn)
				return nil
			})
		},
	}
}

func newPricesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prices <ticker>",
		Short: "Show the price history of a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker := strings.ToUpper(args[0])
			return a.withBank(cmdContext(cmd), func(e *bank.Engine) error {
				prices := e.PriceHistory(ticker)
				if len(prices) == 0 {
					return fmt.Errorf("unknown ticker %s", ticker)
				}
				strs := make([]string, len(prices))
				for i, p := range prices {
					strs[i] = money.Format(p)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", ticker, strings.Join(strs, " "))
				return nil
			})
		},
	}
}
