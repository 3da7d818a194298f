package market

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Stock is a catalog entry: a company and its opening fundamentals.
type Stock struct {
	Ticker     string  `json:"ticker" yaml:"ticker"`
	Name       string  `json:"name" yaml:"name"`
	Sector     string  `json:"sector" yaml:"sector"`
	Country    string  `json:"country" yaml:"country"`
	Price      float64 `json:"price" yaml:"price"`
	PERatio    float64 `json:"pe_ratio" yaml:"pe_ratio"`
	DebtEquity float64 `json:"debt_equity" yaml:"debt_equity"`
	High52     float64 `json:"high_52" yaml:"high_52"`
	Low52      float64 `json:"low_52" yaml:"low_52"`
}

// DefaultCatalog returns the built-in list of known stocks.
func DefaultCatalog() []Stock {
	stocks, err := parseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return stocks
}

// LoadCatalog reads a catalog file. YAML is tried first, then JSON.
func LoadCatalog(path string) ([]Stock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) ([]Stock, error) {
	var stocks []Stock
	if err := yaml.Unmarshal(data, &stocks); err != nil {
		if jerr := json.Unmarshal(data, &stocks); jerr != nil {
			return nil, fmt.Errorf("parse catalog (tried YAML and JSON): %w", err)
		}
	}

	seen := make(map[string]bool, len(stocks))
	for i, s := range stocks {
		if s.Ticker == "" {
			return nil, fmt.Errorf("catalog entry %d: missing ticker", i)
		}
		if seen[s.Ticker] {
			return nil, fmt.Errorf("catalog entry %d: duplicate ticker %q", i, s.Ticker)
		}
		if s.Price <= 0 {
			return nil, fmt.Errorf("catalog entry %q: price must be positive", s.Ticker)
		}
		seen[s.Ticker] = true
	}

	sort.Slice(stocks, func(i, j int) bool { return stocks[i].Ticker < stocks[j].Ticker })
	return stocks, nil
}
