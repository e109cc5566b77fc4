package ledger

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/beancount/ast"
	"github.com/robinvdvleuten/beancount/parser"
)

func TestLedger_ImplicitPriceFromCost(t *testing.T) {
	input := `
		option "plugin_processing_mode" "implicit_prices"

		2024-01-01 open Assets:Brokerage
		2024-01-01 open Assets:Checking
		2024-01-01 open Equity:Opening

		2024-03-15 * "Buy stock"
		  Assets:Brokerage  10 STOCK {120.00 USD}
		  Assets:Checking  -1200.00 USD
	`

	tree, err := parser.ParseString(context.Background(), input)
	assert.NoError(t, err)

	l := New()
	err = l.Process(context.Background(), tree)
	assert.NoError(t, err)

	date, err := ast.NewDate("2024-03-15")
	assert.NoError(t, err)

	rate, found := l.GetPrice(date, "STOCK", "USD")
	assert.True(t, found, "expected implicit price derived from cost basis")
	assert.Equal(t, "120", rate.String())
}

func TestLedger_NoImplicitPriceWithoutOption(t *testing.T) {
	input := `
		2024-01-01 open Assets:Brokerage
		2024-01-01 open Assets:Checking
		2024-01-01 open Equity:Opening

		2024-03-15 * "Buy stock"
		  Assets:Brokerage  10 STOCK {120.00 USD}
		  Assets:Checking  -1200.00 USD
	`

	tree, err := parser.ParseString(context.Background(), input)
	assert.NoError(t, err)

	l := New()
	err = l.Process(context.Background(), tree)
	assert.NoError(t, err)

	date, err := ast.NewDate("2024-03-15")
	assert.NoError(t, err)

	_, found := l.GetPrice(date, "STOCK", "USD")
	assert.False(t, found, "no implicit price should be derived without plugin_processing_mode")
}
