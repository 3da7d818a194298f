package replay

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/banksim/bank"
	"github.com/rustyeddy/banksim/market"
	"github.com/rustyeddy/banksim/rng"
)

const scenario = `day,action,arg1,arg2,arg3
0,deposit,1000
0,loan,5000,1
1,borrow,10000,1
1,buy,ACME,10
2,sell,ACME,10
2,withdraw,999999,1
3,repay_all
3,buy,NOPE,1
`

func newEngine() *bank.Engine {
	mkt := market.New(market.DefaultConfig(), []market.Stock{{Ticker: "ACME", Name: "Acme", Price: 50}})
	return bank.New(bank.WithRand(rng.New(11)), bank.WithMarket(mkt))
}

func TestReplayScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "scenario.csv")
	require.NoError(t, os.WriteFile(path, []byte(scenario), 0o644))

	e := newEngine()
	res, err := CSV(ctx, path, e, Options{})
	require.NoError(t, err)

	assert.Equal(t, 8, res.Rows)
	assert.Equal(t, 7, res.Applied)
	assert.Equal(t, 3, res.Days)
	assert.Equal(t, 3, e.Day())

	require.Len(t, res.Refusals, 1)
	assert.Equal(t, 9, res.Refusals[0].Line)
	assert.Equal(t, "BUY", res.Refusals[0].Action)
	assert.True(t, errors.Is(res.Refusals[0].Err, market.ErrNotListed))

	assert.Empty(t, e.CentralBankLoans())
	assert.Empty(t, e.Deposits(), "withdrawal is clamped to the whole balance")
	assert.Len(t, e.Loans(), 1)
	assert.Empty(t, e.Market().Holdings)
	// 20000 + 1000 - 5000 + 10000 - 500 + 500 - 1000 - (10000 + two days of interest)
	assert.InDelta(t, 14997.26, e.Balance(), 0.01)
}

func TestReplayStrictStopsAtRefusal(t *testing.T) {
	t.Parallel()

	e := newEngine()
	res, err := Read(context.Background(), strings.NewReader(scenario), e, Options{Strict: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, market.ErrNotListed))
	assert.Contains(t, err.Error(), "line 9")
	assert.Equal(t, 7, res.Applied)
}

func TestReplayApprover(t *testing.T) {
	t.Parallel()

	decline := bank.ApproverFunc(func(bank.LoanOffer) bank.Decision {
		return bank.Decision{Verdict: bank.Decline}
	})
	e := newEngine()
	res, err := Read(context.Background(), strings.NewReader("0,loan,5000,2\n"), e, Options{Approver: decline})
	require.NoError(t, err)

	require.Len(t, res.Refusals, 1)
	assert.True(t, errors.Is(res.Refusals[0].Err, bank.ErrLoanDeclined))
	assert.Equal(t, 1, res.Refusals[0].Line)
	assert.Empty(t, e.Loans())
	assert.Equal(t, 20000.0, e.Balance())
}

func TestReplayAdvanceAndRepay(t *testing.T) {
	t.Parallel()

	script := `# borrow, then pay part of it back
0,borrow,1000,1,0.05
0,advance,5
5,repay,0,500
`
	e := newEngine()
	res, err := Read(context.Background(), strings.NewReader(script), e, Options{})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Days)
	assert.Equal(t, 3, res.Applied)

	cb := e.CentralBankLoans()
	require.Len(t, cb, 1)
	assert.Less(t, cb[0].Principal, 1000.0)
}

func TestReplayBadRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		row  string
		want string
	}{
		{"unknown action", "0,rob,100\n", `unknown action "ROB"`},
		{"bad day", "x,deposit,100\n", "bad day"},
		{"missing amount", "0,deposit\n", "missing amount"},
		{"nan amount", "0,deposit,NaN\n", "not a finite number"},
		{"inf rate", "0,borrow,100,1,Inf\n", "not a finite number"},
		{"bad customer", "0,deposit,100,abc\n", "bad customer"},
		{"missing ticker", "0,buy,,3\n", "missing ticker"},
		{"short row", "0\n", "need at least day,action"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(context.Background(), strings.NewReader(tt.row), newEngine(), Options{})
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestReplayHonorsCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Read(ctx, strings.NewReader(scenario), newEngine(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Applied)
}
