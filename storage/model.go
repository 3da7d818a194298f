// Package storage is the persistence gateway of the simulation: the snapshot
// record types and the stores that read and write them. Records tolerate
// missing fields; the bank fills defaults on restore.
package storage

// Snapshot is everything needed to resume a simulation.
type Snapshot struct {
	Bank      BankRecord             `json:"bank"`
	Customers map[int]CustomerRecord `json:"customers"`
}

// Empty reports whether the snapshot carries no saved state at all.
func (s Snapshot) Empty() bool {
	return s.Bank.Balance == nil && s.Bank.Day == 0 && len(s.Customers) == 0
}

type BankRecord struct {
	// Balance is a pointer so a missing field can be told apart from zero cash.
	Balance             *float64            `json:"balance,omitempty"`
	InterestEarned      float64             `json:"interest_earned"`
	CentralLoans        []CentralLoanRecord `json:"central_loans"`
	Day                 int                 `json:"day"`
	History             []HistoryRecord     `json:"history"`
	NextSeq             uint64              `json:"next_seq"`
	NextCustomerID      int                 `json:"next_customer_id"`
	DaysSinceCollection int                 `json:"days_since_collection"`
	MonthlyIncome       []float64           `json:"monthly_income"`
	Month               MonthRecord         `json:"month"`
	Economy             EconomyRecord       `json:"economy"`
	TaxHistory          []TaxRecord         `json:"tax_history"`
	DaysSinceTax        int                 `json:"days_since_tax"`
	Transactions        []TransactionRecord `json:"transactions"`
	Market              MarketRecord        `json:"market"`
}

type CustomerRecord struct {
	ID             int             `json:"id"`
	CreditScore    int             `json:"credit_score"`
	Loans          []LoanRecord    `json:"loans"`
	Deposits       []DepositRecord `json:"deposits"`
	DepositBalance float64         `json:"deposit_balance"`
}

type LoanRecord struct {
	ID        string  `json:"id"`
	Principal float64 `json:"amount"`
	DaysLeft  int     `json:"days_left"`
	Accrued   float64 `json:"accrued"`
	Rate      float64 `json:"rate"`
}

type DepositRecord struct {
	ID        string  `json:"id"`
	Principal float64 `json:"amount"`
	Accrued   float64 `json:"accrued"`
}

type CentralLoanRecord struct {
	ID        string  `json:"id"`
	Principal float64 `json:"amount"`
	DaysLeft  int     `json:"days_left"`
	Accrued   float64 `json:"accrued"`
	Rate      float64 `json:"rate"`
}

type HistoryRecord struct {
	Seq         uint64 `json:"seq"`
	Day         int    `json:"day"`
	Description string `json:"description"`
}

type TransactionRecord struct {
	Seq    uint64  `json:"seq"`
	Day    int     `json:"day"`
	Kind   string  `json:"kind"`
	Amount float64 `json:"amount"`
}

// MonthRecord holds the interest totals of the month in progress.
type MonthRecord struct {
	LoanInterest    float64 `json:"loan_interest"`
	DepositInterest float64 `json:"deposit_interest"`
}

type EconomyRecord struct {
	Regime       string `json:"regime"`
	DaysInRegime int    `json:"days_in_regime"`
}

type TaxRecord struct {
	Day    int     `json:"day"`
	Income float64 `json:"income"`
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
	Paid   bool    `json:"paid"`
	Note   string  `json:"note"`
}

type MarketRecord struct {
	Listings        []ListingRecord      `json:"listings"`
	Available       []string             `json:"available"`
	Holdings        []HoldingRecord      `json:"holdings"`
	PriceHistory    map[string][]float64 `json:"price_history"`
	DaysSinceUpdate int                  `json:"days_since_update"`
}

type ListingRecord struct {
	Ticker             string  `json:"ticker"`
	Name               string  `json:"name"`
	Sector             string  `json:"sector"`
	Country            string  `json:"country"`
	Price              float64 `json:"price"`
	DailyChangePercent float64 `json:"daily_change_percent"`
	High52             float64 `json:"52_week_high"`
	Low52              float64 `json:"52_week_low"`
	PERatio            float64 `json:"pe_ratio"`
	DebtEquity         float64 `json:"debt_equity"`
}

type HoldingRecord struct {
	Ticker   string  `json:"ticker"`
	Shares   int     `json:"shares"`
	AvgPrice float64 `json:"purchase_price"`
}
