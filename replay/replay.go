// Package replay drives a bank engine from a scripted CSV scenario instead
// of random events, which makes whole-year runs reproducible and easy to
// review.
package replay

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rustyeddy/banksim/bank"
	"github.com/rustyeddy/banksim/market"
	"github.com/rustyeddy/banksim/money"
)

// Options controls how a script is applied.
type Options struct {
	// Strict aborts on the first refused operation. Otherwise refusals are
	// collected in the Result and the script carries on.
	Strict bool

	// Approver reviews scripted loans. Nil issues them as asked.
	Approver bank.Approver
}

// Refusal is a scripted operation the bank turned down.
type Refusal struct {
	Line   int
	Action string
	Err    error
}

// Result summarizes a replay.
type Result struct {
	Rows     int
	Applied  int
	Days     int
	Refusals []Refusal
}

// CSV replays the scenario at path against e.
//
// Format (header optional):
//
//	day,action,arg1,arg2,arg3
//
// Before a row is applied the engine is advanced until it reaches day.
// Actions (case-insensitive):
//
//	DEPOSIT:   arg1=amount  arg2=customer (optional)
//	WITHDRAW:  arg1=amount  arg2=customer (optional)
//	LOAN:      arg1=amount  arg2=years  arg3=customer (optional)
//	BORROW:    arg1=amount  arg2=years  arg3=rate (optional)
//	REPAY:     arg1=index (optional)  arg2=amount (optional)
//	REPAY_ALL
//	BUY:       arg1=ticker  arg2=shares
//	SELL:      arg1=ticker  arg2=shares
//	ADVANCE:   arg1=days (default 1)
func CSV(ctx context.Context, path string, e *bank.Engine, opts Options) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()
	return Read(ctx, f, e, opts)
}

// Read is CSV over an arbitrary reader.
func Read(ctx context.Context, r io.Reader, e *bank.Engine, opts Options) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	var res Result
	for first := true; ; first = false {
		row, err := cr.Read()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return res, err
		}
		if len(row) == 0 || (first && strings.EqualFold(strings.TrimSpace(row[0]), "day")) {
			continue
		}
		line, _ := cr.FieldPos(0)
		if err := ctx.Err(); err != nil {
			return res, err
		}

		res.Rows++
		if err := applyRow(ctx, e, row, opts, &res); err != nil {
			if !isRefusal(err) || opts.Strict {
				return res, fmt.Errorf("line %d: %w", line, err)
			}
			res.Refusals = append(res.Refusals, Refusal{Line: line, Action: action(row), Err: err})
			continue
		}
		res.Applied++
	}
}

func action(row []string) string {
	if len(row) < 2 {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(row[1]))
}

func applyRow(ctx context.Context, e *bank.Engine, row []string, opts Options, res *Result) error {
	if len(row) < 2 {
		return fmt.Errorf("bad row (need at least day,action): %v", row)
	}
	day, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil {
		return fmt.Errorf("bad day %q: %w", row[0], err)
	}
	for e.Day() < day {
		if _, err := e.AdvanceDay(ctx); err != nil {
			return err
		}
		res.Days++
	}

	a := args(row[2:])
	switch act := action(row); act {
	case "DEPOSIT":
		amount, err := a.reqFloat(0, "amount")
		if err != nil {
			return err
		}
		cid, err := a.optInt(1, "customer")
		if err != nil {
			return err
		}
		_, err = e.Deposit(ctx, amount, cid)
		return err

	case "WITHDRAW":
		amount, err := a.reqFloat(0, "amount")
		if err != nil {
			return err
		}
		cid, err := a.optInt(1, "customer")
		if err != nil {
			return err
		}
		_, err = e.Withdraw(ctx, amount, cid)
		return err

	case "LOAN":
		amount, err := a.reqFloat(0, "amount")
		if err != nil {
			return err
		}
		years, err := a.reqFloat(1, "years")
		if err != nil {
			return err
		}
		cid, err := a.optInt(2, "customer")
		if err != nil {
			return err
		}
		req := bank.LoanRequest{Amount: amount, Years: years, CustomerID: cid, RequireApproval: opts.Approver != nil}
		_, err = e.GiveLoan(ctx, req, opts.Approver)
		return err

	case "BORROW":
		amount, err := a.reqFloat(0, "amount")
		if err != nil {
			return err
		}
		years, err := a.reqFloat(1, "years")
		if err != nil {
			return err
		}
		rate, err := a.optFloat(2, "rate")
		if err != nil {
			return err
		}
		r := 0.0
		if rate != nil {
			r = *rate
		}
		_, err = e.BorrowCentralBank(ctx, amount, years, r)
		return err

	case "REPAY":
		idx, err := a.optInt(0, "index")
		if err != nil {
			return err
		}
		amount, err := a.optFloat(1, "amount")
		if err != nil {
			return err
		}
		_, err = e.RepayCentralBank(ctx, idx, amount)
		return err

	case "REPAY_ALL":
		_, err := e.RepayAllCentralBank(ctx)
		return err

	case "BUY", "SELL":
		ticker := strings.ToUpper(a.str(0))
		if ticker == "" {
			return fmt.Errorf("%s: missing ticker", act)
		}
		shares, err := a.reqInt(1, "shares")
		if err != nil {
			return err
		}
		if act == "BUY" {
			_, err = e.BuyStock(ctx, ticker, shares)
		} else {
			_, err = e.SellStock(ctx, ticker, shares)
		}
		return err

	case "ADVANCE":
		n, err := a.optInt(0, "days")
		if err != nil {
			return err
		}
		days := 1
		if n != nil {
			days = *n
		}
		for i := 0; i < days; i++ {
			if _, err := e.AdvanceDay(ctx); err != nil {
				return err
			}
			res.Days++
		}
		return nil

	default:
		return fmt.Errorf("unknown action %q", act)
	}
}

// refusals are the domain errors a scenario may legitimately run into.
var refusals = []error{
	bank.ErrInvalidAmount,
	bank.ErrInvalidTerm,
	bank.ErrInvalidRate,
	bank.ErrInsufficientFunds,
	bank.ErrNoFunds,
	bank.ErrCustomerNoFunds,
	bank.ErrNoCentralBankLoans,
	bank.ErrLoanNotFound,
	bank.ErrLoanDeclined,
	bank.ErrCounterRejected,
	market.ErrNotListed,
	market.ErrNotHeld,
	market.ErrNotEnoughShares,
	market.ErrInsufficientFunds,
	market.ErrInvalidShares,
	market.ErrNoPrice,
}

func isRefusal(err error) bool {
	for _, r := range refusals {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}

type args []string

func (a args) str(i int) string {
	if i >= len(a) {
		return ""
	}
	return strings.TrimSpace(a[i])
}

func (a args) reqFloat(i int, name string) (float64, error) {
	v, err := a.optFloat(i, name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, fmt.Errorf("missing %s", name)
	}
	return *v, nil
}

func (a args) optFloat(i int, name string) (*float64, error) {
	s := a.str(i)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("bad %s %q: %w", name, s, err)
	}
	if !money.Finite(v) {
		return nil, fmt.Errorf("bad %s %q: not a finite number", name, s)
	}
	return &v, nil
}

func (a args) reqInt(i int, name string) (int, error) {
	v, err := a.optInt(i, name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, fmt.Errorf("missing %s", name)
	}
	return *v, nil
}

func (a args) optInt(i int, name string) (*int, error) {
	s := a.str(i)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("bad %s %q: %w", name, s, err)
	}
	return &v, nil
}
