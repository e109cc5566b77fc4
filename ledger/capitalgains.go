package ledger

import (
	"github.com/robinvdvleuten/beancount/ast"
	"github.com/shopspring/decimal"
)

// CostBasis sums units*per-unit-cost across a set of matched lots. Matched
// lots with no cost (uncosted reductions) contribute zero -- callers that
// need to detect that case should check MatchedLot.Cost directly.
func CostBasis(matched []MatchedLot) decimal.Decimal {
	total := decimal.Zero
	for _, m := range matched {
		if m.Cost == nil {
			continue
		}
		total = total.Add(m.Units.Mul(m.Cost.PerUnit))
	}
	return total
}

// Proceeds is what a reducing posting realized in its own transaction
// currency: the posting's own amount when it carries no price conversion,
// or amount*price when an @ / @@ price annotation is present.
func Proceeds(posting *ast.Posting) (decimal.Decimal, error) {
	amount, err := ParseAmount(posting.Amount)
	if err != nil {
		return decimal.Zero, err
	}
	if posting.Price == nil {
		return amount.Abs(), nil
	}
	price, err := ParseAmount(posting.Price)
	if err != nil {
		return decimal.Zero, err
	}
	if posting.PriceTotal {
		return price.Abs(), nil
	}
	return amount.Abs().Mul(price.Abs()), nil
}

// RealizedGain is the capital gain or loss on a reducing posting: the
// proceeds it fetched minus the cost basis of the lots it consumed. A
// positive result is a gain, negative a loss. Reported in the posting's
// own currency; callers mixing currencies must convert first.
func RealizedGain(posting *ast.Posting, matched []MatchedLot) (decimal.Decimal, error) {
	proceeds, err := Proceeds(posting)
	if err != nil {
		return decimal.Zero, err
	}
	return proceeds.Sub(CostBasis(matched)), nil
}

// RealizedGainIn reports a posting's gain converted into reportingCurrency,
// for books that hold lots in one currency but want a single consolidated
// gains report. Returns found=false when the price graph has no rate from
// the posting's own currency to reportingCurrency as of the transaction
// date -- callers should fall back to reporting the native-currency gain
// from RealizedGain rather than guess a conversion.
func (l *Ledger) RealizedGainIn(txn *ast.Transaction, posting *ast.Posting, matched []MatchedLot, reportingCurrency string) (gain decimal.Decimal, found bool, err error) {
	native, err := RealizedGain(posting, matched)
	if err != nil {
		return decimal.Zero, false, err
	}

	// The gain is denominated in whatever currency the cost basis was
	// booked in, not the commodity the posting reduces -- a sale of 10
	// STOCK books its gain in USD, not STOCK.
	nativeCurrency := ""
	for _, m := range matched {
		if m.Cost != nil {
			nativeCurrency = m.Cost.Currency
			break
		}
	}
	if nativeCurrency == "" && posting.Price != nil {
		nativeCurrency = posting.Price.Currency
	}
	if nativeCurrency == "" {
		nativeCurrency = posting.Amount.Currency
	}

	if nativeCurrency == reportingCurrency {
		return native, true, nil
	}

	converted, ok := l.priceGraph.ConvertAmount(txn.Date, native, nativeCurrency, reportingCurrency)
	if !ok {
		return decimal.Zero, false, nil
	}
	return converted, true, nil
}
