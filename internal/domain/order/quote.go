package order

import "github.com/shopspring/decimal"

// PriceSource tells where a line price came from.
type PriceSource uint8

const (
	// PriceResolved means the catalog answered with a price.
	PriceResolved PriceSource = iota
	// PriceDefaulted means the catalog lookup failed and the configured
	// default price was used instead.
	PriceDefaulted
)

func (s PriceSource) String() string {
	if s == PriceDefaulted {
		return "defaulted"
	}
	return "resolved"
}

// Quote is the outcome of pricing one requested item. Err holds the lookup
// failure that caused a PriceDefaulted quote.
type Quote struct {
	BookID string
	Price  decimal.Decimal
	Source PriceSource
	Err    error
}

// Defaulted reports whether the quote fell back to the default price.
func (q Quote) Defaulted() bool { return q.Source == PriceDefaulted }
