package market

// Listing is the live market state of one known stock.
type Listing struct {
	Ticker             string
	Name               string
	Sector             string
	Country            string
	Price              float64
	DailyChangePercent float64
	High52             float64
	Low52              float64
	PERatio            float64
	DebtEquity         float64
}

func newListing(s Stock) *Listing {
	return &Listing{
		Ticker:     s.Ticker,
		Name:       s.Name,
		Sector:     s.Sector,
		Country:    s.Country,
		Price:      s.Price,
		High52:     s.High52,
		Low52:      s.Low52,
		PERatio:    s.PERatio,
		DebtEquity: s.DebtEquity,
	}
}

// Holding is the bank's position in one stock.
type Holding struct {
	Ticker   string
	Shares   int
	AvgPrice float64
}

// Cost is the position's cost basis.
func (h Holding) Cost() float64 {
	return h.AvgPrice * float64(h.Shares)
}

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Trade is the settlement of a buy or sell. Amount is the cash that changed
// hands: the cost of a buy or the proceeds of a sale.
type Trade struct {
	Side       Side
	Ticker     string
	Shares     int
	Price      float64
	Amount     float64
	ProfitLoss float64
	Closed     bool // a sale that emptied the holding
}
