package ledger

import (
	"github.com/robinvdvleuten/beancount/ast"
	"github.com/shopspring/decimal"
)

// interpolationOutcome is what got filled in by interpolateMissingValues:
// at most one posting's amount, and at most one augmenting posting's cost.
type interpolationOutcome struct {
	inferredAmounts map[*ast.Posting]*ast.Amount
	inferredCosts   map[*ast.Posting]*ast.Amount
}

// weight represents the contribution of a posting to the transaction balance
// A posting can contribute multiple weights (e.g., commodity + cost currency)
type weight struct {
	Amount   decimal.Decimal
	Currency string
}

// weightSet is a collection of weights from a single posting
type weightSet []weight

// calculateWeights calculates all weights contributed by a posting
// This handles cost basis and price annotations
func calculateWeights(posting *ast.Posting) (weightSet, error) {
	if posting.Amount == nil {
		// No amount specified - interpolateMissingValues infers it
		return weightSet{}, nil
	}

	// Parse the main amount
	amount, err := ParseAmount(posting.Amount)
	if err != nil {
		return nil, err
	}

	currency := posting.Amount.Currency

	// Check for cost specification
	hasExplicitCost := posting.Cost != nil && !posting.Cost.IsEmpty() && !posting.Cost.IsMergeCost()
	hasEmptyCost := posting.Cost != nil && posting.Cost.IsEmpty()
	hasPrice := posting.Price != nil

	var weights weightSet

	if hasEmptyCost {
		// Empty cost spec {} - cost will be inferred to balance the transaction
		// Return empty weights; cost inference happens in interpolateMissingValues()
		return weightSet{}, nil

	} else if hasExplicitCost {
		// Cost: {X CURR} or {X CURR} @ Y CURR2
		// When there's a cost, ONLY the cost contributes to balance!
		// The price (if present) is just informational (market value)
		costAmount, err := ParseAmount(posting.Cost.Amount)
		if err != nil {
			return nil, err
		}

		costCurrency := posting.Cost.Amount.Currency
		totalCost := amount.Mul(costAmount)

		weights = weightSet{
			{Amount: totalCost, Currency: costCurrency},
		}

	} else if hasPrice {
		// Price only: @ or @@
		// When there's only a price, use it for balance
		priceAmount, err := ParseAmount(posting.Price)
		if err != nil {
			return nil, err
		}

		priceCurrency := posting.Price.Currency

		var priceWeight decimal.Decimal
		if posting.PriceTotal {
			// @@ total price with sign
			if amount.IsNegative() {
				priceWeight = priceAmount.Neg()
			} else {
				priceWeight = priceAmount
			}
		} else {
			// @ per-unit price
			priceWeight = amount.Mul(priceAmount)
		}

		weights = weightSet{
			{Amount: priceWeight, Currency: priceCurrency},
		}

	} else {
		// No cost or price: just the commodity amount
		weights = weightSet{
			{Amount: amount, Currency: currency},
		}
	}

	return weights, nil
}

// balanceWeights accumulates weights from multiple postings
// Returns a map of currency -> total amount
// NOTE: Caller must call putBalanceMap() when done with the returned map
func balanceWeights(allWeights []weightSet) map[string]decimal.Decimal {
	balance := getBalanceMap()

	for _, weights := range allWeights {
		for _, w := range weights {
			current := balance[w.Currency]
			balance[w.Currency] = current.Add(w.Amount)
		}
	}

	return balance
}

// interpolateMissingValues implements the missing-value half of the
// balancing procedure: a transaction may leave at most one posting's amount
// blank, and at most one augmenting posting with an empty cost spec {}, and
// have each resolved from the residual the other postings leave behind.
// balance is mutated in place so that what remains reflects post-inference
// residuals, which the caller checks against tolerance.
//
// Returns ambiguous=true (with outcome's maps left empty or partial) when
// more than one posting/cost is missing, or a residual spans more than one
// currency -- interpolation only ever resolves a single unknown, it never
// guesses how to split a residual across several.
func interpolateMissingValues(pc postingClassification, balance map[string]decimal.Decimal) (outcome *interpolationOutcome, ambiguous bool) {
	outcome = &interpolationOutcome{
		inferredAmounts: make(map[*ast.Posting]*ast.Amount),
		inferredCosts:   make(map[*ast.Posting]*ast.Amount),
	}

	switch {
	case len(pc.withoutAmounts) == 1 && len(balance) == 1:
		for currency, residual := range balance {
			needed := residual.Neg()
			outcome.inferredAmounts[pc.withoutAmounts[0]] = &ast.Amount{
				Value:    needed.String(),
				Currency: currency,
			}
			balance[currency] = balance[currency].Add(needed)
		}
	case len(pc.withoutAmounts) > 1:
		return outcome, true
	case len(pc.withoutAmounts) == 1 && len(balance) > 1:
		return outcome, true
	}

	if len(pc.withEmptyCosts) == 0 {
		return outcome, false
	}

	// Only an augmentation (positive amount) can have its cost inferred --
	// a reducing posting's cost comes from the lot it matches, not from the
	// transaction's residual.
	positiveEmptyCosts := 0
	for _, posting := range pc.withEmptyCosts {
		amount, err := ParseAmount(posting.Amount)
		if err != nil {
			continue
		}
		if !amount.IsNegative() {
			positiveEmptyCosts++
		}
	}
	if positiveEmptyCosts > 1 {
		return outcome, true
	}

	for _, posting := range pc.withEmptyCosts {
		amount, err := ParseAmount(posting.Amount)
		if err != nil || amount.IsNegative() {
			continue
		}
		if len(balance) > 1 {
			return outcome, true
		}
		for currency, residual := range balance {
			costPerUnit := divideWithPolicy(residual.Neg(), amount)
			outcome.inferredCosts[posting] = &ast.Amount{
				Value:    costPerUnit.String(),
				Currency: currency,
			}
			balance[currency] = balance[currency].Add(amount.Mul(costPerUnit))
		}
	}

	return outcome, false
}
