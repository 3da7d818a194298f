package bank

// Summary holds the dashboard numbers.
type Summary struct {
	Day                 int
	Balance             float64
	TotalDeposits       float64
	InterestEarned      float64
	Customers           int
	Loans               int
	CentralBankDebt     float64
	PortfolioValue      float64
	Regime              Regime
	DaysUntilCollection int
	DaysUntilTax        int
	YearlyIncome        float64
}

// Summary reports the bank at a glance.
func (s *State) Summary() Summary {
	return Summary{
		Day:                 s.day,
		Balance:             s.balance,
		TotalDeposits:       s.TotalDeposits(),
		InterestEarned:      s.interestEarned,
		Customers:           len(s.customers),
		Loans:               len(s.loanIndex),
		CentralBankDebt:     s.CentralBankDebt(),
		PortfolioValue:      s.market.PortfolioValue(),
		Regime:              s.economy.Regime,
		DaysUntilCollection: s.DaysUntilCollection(),
		DaysUntilTax:        s.DaysUntilTax(),
		YearlyIncome:        s.YearlyIncome(),
	}
}

func (e *Engine) Summary() (v Summary) {
	e.read(func(s *State) { v = s.Summary() })
	return
}
