package bank

// Customer owns its loans and its single deposit lot. DepositBalance is a
// cache of the lot's principal and is verified after every mutation.
type Customer struct {
	ID             int
	CreditScore    int
	Loans          []*Loan
	Deposits       []*DepositLot
	DepositBalance float64
}

func (c *Customer) clone() Customer {
	cp := *c
	cp.Loans = make([]*Loan, len(c.Loans))
	for i, l := range c.Loans {
		l := *l
		cp.Loans[i] = &l
	}
	cp.Deposits = make([]*DepositLot, len(c.Deposits))
	for i, d := range c.Deposits {
		d := *d
		cp.Deposits[i] = &d
	}
	return cp
}

// lot returns the customer's deposit lot, or nil.
func (c *Customer) lot() *DepositLot {
	if len(c.Deposits) == 0 {
		return nil
	}
	return c.Deposits[0]
}

// Loan is a customer loan. Rate is annual and fixed at issuance.
type Loan struct {
	ID         string
	CustomerID int
	Principal  float64
	DaysLeft   int
	Accrued    float64
	Rate       float64
}

type DepositLot struct {
	ID         string
	CustomerID int
	Principal  float64
	Accrued    float64
}

// CentralBankLoan is money the bank itself owes.
type CentralBankLoan struct {
	ID        string
	Principal float64
	DaysLeft  int
	Accrued   float64
	Rate      float64
}

// Due is the amount needed to pay the loan off today.
func (l CentralBankLoan) Due() float64 {
	return roundSum(l.Principal, l.Accrued)
}

// HistoryEntry is one line of the bank's activity feed.
type HistoryEntry struct {
	Seq         uint64
	Day         int
	Description string
}

// Transaction is a signed cash movement: positive into the bank, negative out.
type Transaction struct {
	Seq    uint64
	Day    int
	Kind   string
	Amount float64
}

const (
	TxDeposit       = "deposit"
	TxWithdraw      = "withdraw"
	TxLoan          = "loan"
	TxLoanRepaid    = "loan_repaid"
	TxInterestIn    = "interest_collected"
	TxInterestOut   = "interest_paid"
	TxCentralBorrow = "central_borrow"
	TxCentralRepay  = "central_repay"
	TxTax           = "tax"
	TxStockBuy      = "stock_buy"
	TxStockSell     = "stock_sell"
)

type TaxRecord struct {
	Day    int
	Income float64
	Rate   float64
	Amount float64
	Paid   bool
	Note   string
}

// Withdrawal reports who withdrew and how much after clamping.
type Withdrawal struct {
	CustomerID int
	Amount     float64
	Clamped    bool
}

// Repayment reports a central-bank repayment.
type Repayment struct {
	LoanID        string
	InterestPaid  float64
	PrincipalPaid float64
	Closed        bool
}

// Total is the cash paid.
func (r Repayment) Total() float64 {
	return roundSum(r.InterestPaid, r.PrincipalPaid)
}
