package bank

// Params are the tunables of the daily transition and of the operations.
type Params struct {
	StartingBalance    float64
	DepositRate        float64 // annual, before the economy's interest multiplier
	CollectionInterval int     // days between loan-interest collection and deposit payout
	HistoryWindow      int     // days of history kept
	MaxTransactions    int
	CentralBankRate    float64
	SettleAccrued      bool   // matured loans also pay their uncollected interest
	InitialRegime      Regime // regime of a fresh bank; empty means Normal
	Economy            EconomyParams
	Tax                TaxParams
}

type EconomyParams struct {
	Interval          int
	StayProbability   float64
	NormalProbability float64
}

type TaxParams struct {
	Rate     float64
	Interval int
	// RetryUnpaid keeps the tax counter running after a failed levy so it
	// is attempted again the next day.
	RetryUnpaid bool
}

func DefaultParams() Params {
	return Params{
		StartingBalance:    20000,
		DepositRate:        0.01,
		CollectionInterval: 30,
		HistoryWindow:      30,
		MaxTransactions:    1000,
		CentralBankRate:    0.05,
		Economy: EconomyParams{
			Interval:          182,
			StayProbability:   0.3,
			NormalProbability: 0.5,
		},
		Tax: TaxParams{
			Rate:     0.25,
			Interval: 365,
		},
	}
}
