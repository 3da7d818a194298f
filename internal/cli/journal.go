package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/banksim/journal"
)

func newJournalCmd(a *app) *cobra.Command {
	var org bool
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query the permanent activity journal",
		Long: `The journal keeps every history entry the bank ever recorded, long
after it leaves the rolling history window.

Subcommands:
  tail     - Show the latest entries
  between  - Show the entries of a range of days
  entry    - Show a single entry by sequence number

Examples:
  banksim journal tail -n 50
  banksim journal between 0 365 --org > year1.org`,
	}
	cmd.PersistentFlags().BoolVar(&org, "org", false, "render as an org-mode outline")

	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest entries",
		Args:  cobra.NoArgs,
	}
	n := tail.Flags().IntP("lines", "n", 20, "number of entries")
	tail.RunE = func(cmd *cobra.Command, args []string) error {
		return a.withJournal(func(r journal.Reader) error {
			es, err := r.Tail(*n)
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), "Latest entries", es, org)
		})
	}

	between := &cobra.Command{
		Use:   "between <start-day> <end-day>",
		Short: "Show the entries of days start through end",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("bad start day %q: %w", args[0], err)
			}
			end, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("bad end day %q: %w", args[1], err)
			}
			return a.withJournal(func(r journal.Reader) error {
				es, err := r.ListBetween(start, end)
				if err != nil {
					return err
				}
				return printEntries(cmd.OutOrStdout(), fmt.Sprintf("Days %d to %d", start, end), es, org)
			})
		},
	}

	entry := &cobra.Command{
		Use:   "entry <seq>",
		Short: "Show a single entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad sequence number %q: %w", args[0], err)
			}
			return a.withJournal(func(r journal.Reader) error {
				e, err := r.Get(seq)
				if err != nil {
					return err
				}
				return printEntries(cmd.OutOrStdout(), fmt.Sprintf("Entry %d", seq), []journal.Entry{e}, org)
			})
		},
	}

	cmd.AddCommand(tail, between, entry)
	return cmd
}

// withJournal opens the configured journal for reading.
func (a *app) withJournal(fn func(journal.Reader) error) error {
	path := a.cfg.Journal.Path
	switch a.cfg.Journal.Type {
	case "sqlite":
		j, err := journal.NewSQLite(path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer j.Close()
		return fn(j)
	case "csv":
		es, err := journal.ReadCSV(path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		return fn(journal.Entries(es))
	default:
		return fmt.Errorf("no journal configured (journal.type is %q)", a.cfg.Journal.Type)
	}
}

func printEntries(w io.Writer, title string, es []journal.Entry, org bool) error {
	if org {
		s, err := journal.FormatOrg(title, es)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, s)
		return err
	}
	t := newTable(w)
	defer t.Flush()
	for _, e := range es {
		fmt.Fprintf(t, "%d\tDay %d\t%s\n", e.Seq, e.Day, e.Description)
	}
	return nil
}
