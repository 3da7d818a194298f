package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rustyeddy/banksim/bank"
	"github.com/rustyeddy/banksim/credit"
	"github.com/rustyeddy/banksim/events"
	"github.com/rustyeddy/banksim/money"
)

// approverFor maps an --approver flag value to an Approver. "accept"
// returns nil, which issues loans as asked.
func approverFor(name string, in io.Reader, out io.Writer) (bank.Approver, error) {
	switch name {
	case "accept", "":
		return nil, nil
	case "policy":
		return events.NewPolicyApprover(credit.DefaultPolicy()), nil
	case "prompt":
		return newPromptApprover(in, out), nil
	default:
		return nil, fmt.Errorf("unknown approver %q (want accept, policy or prompt)", name)
	}
}

// promptApprover asks the player about each loan request on a terminal.
type promptApprover struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPromptApprover(in io.Reader, out io.Writer) *promptApprover {
	return &promptApprover{in: bufio.NewScanner(in), out: out}
}

func (p *promptApprover) Review(o bank.LoanOffer) bank.Decision {
	fmt.Fprintf(p.out, "\nLoan request from customer %d (credit %d, %s)\n", o.CustomerID, o.CreditScore, o.Tier())
	fmt.Fprintf(p.out, "  %s for %g years at %s, cash on hand %s\n",
		money.Format(o.Amount), o.Years, money.Percent(o.Rate), money.Format(o.Balance))

	for {
		fmt.Fprint(p.out, "[a]ccept, [d]ecline or [c]ounter <amount> <years>: ")
		if !p.in.Scan() {
			fmt.Fprintln(p.out)
			return bank.Decision{Verdict: bank.Decline}
		}
		if d, ok := parseDecision(p.in.Text()); ok {
			return d
		}
		fmt.Fprintln(p.out, "Please answer a, d or c followed by an amount and a term.")
	}
}

func parseDecision(line string) (bank.Decision, bool) {
	f := strings.Fields(strings.ToLower(line))
	if len(f) == 0 {
		return bank.Decision{}, false
	}
	switch f[0] {
	case "a", "accept":
		return bank.Decision{Verdict: bank.Accept}, true
	case "d", "decline":
		return bank.Decision{Verdict: bank.Decline}, true
	case "c", "counter":
		if len(f) != 3 {
			return bank.Decision{}, false
		}
		amount, err1 := strconv.ParseFloat(strings.TrimPrefix(f[1], "$"), 64)
		years, err2 := strconv.ParseFloat(f[2], 64)
		if err1 != nil || err2 != nil || !money.Finite(amount, years) || amount <= 0 || years <= 0 {
			return bank.Decision{}, false
		}
		return bank.CounterOffer(amount, years), true
	}
	return bank.Decision{}, false
}
