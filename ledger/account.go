package ledger

import (
	"sort"
	"strings"

	"github.com/robinvdvleuten/beancount/ast"
	"github.com/robinvdvleuten/beancount/ledger/intern"
	"github.com/shopspring/decimal"
)

// Account represents an account in the ledger
type Account struct {
	Name                 ast.Account
	Symbol               *intern.Symbol // canonical interned form of Name, shared with the owning Graph
	Type                 ast.AccountType
	OpenDate             *ast.Date
	CloseDate            *ast.Date
	ConstraintCurrencies []string
	BookingMethod        string
	Metadata             []*ast.Metadata
	Inventory            *Inventory // Inventory with lot tracking
	Postings             []*AccountPosting
}

// AccountPosting pairs a posting with its parent transaction, recorded in
// application order. Inventory only tracks current per-lot totals, so this
// is what period/point-in-time reporting (GetBalanceInPeriod, CloseBooks)
// replays over.
type AccountPosting struct {
	Transaction *ast.Transaction
	Posting     *ast.Posting
	// MatchedLots records which held lots a reducing posting consumed, in
	// booking-method order. Empty for postings that added to inventory
	// (positive amount) or reduced under NONE booking (nothing matched).
	MatchedLots []MatchedLot
}

// ParseAccountType classifies an account by its root segment.
func ParseAccountType(account ast.Account) ast.AccountType {
	return ast.ParseAccountType(account)
}

// IsOpen returns true if the account is open at the given date
func (a *Account) IsOpen(date *ast.Date) bool {
	if a.OpenDate == nil {
		return false
	}

	// Account must be opened before or on the date
	if a.OpenDate.After(date.Time) {
		return false
	}

	// If there's a close date, check that the date is not after closing
	// Transactions are allowed ON the close date, but not AFTER
	if a.CloseDate != nil && date.After(a.CloseDate.Time) {
		return false
	}

	return true
}

// IsClosed returns true if the account has been closed
func (a *Account) IsClosed() bool {
	return a.CloseDate != nil
}

// HasMetadata returns true if the account has metadata
func (a *Account) HasMetadata() bool {
	return len(a.Metadata) > 0
}

// GetParentPath returns the parent account path.
// For example, GetParentPath("Assets:US:Checking") returns "Assets:US".
// Returns empty string if the account has no parent (only one segment).
func (a *Account) GetParentPath() string {
	parts := strings.Split(string(a.Name), ":")
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[:len(parts)-1], ":")
}

// GetParent returns the parent Account, or nil if the account has no parent
// segment or the parent path was never explicitly opened (an implicit
// parent exists in the graph but has no Account of its own).
func (a *Account) GetParent(l *Ledger) *Account {
	parentPath := a.GetParentPath()
	if parentPath == "" {
		return nil
	}
	parent, ok := l.GetAccount(parentPath)
	if !ok {
		return nil
	}
	return parent
}

// GetBalance returns the balance for this account (not including children).
// Returns a map of commodity to decimal amount.
func (a *Account) GetBalance() map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal)
	for _, currency := range a.Inventory.Currencies() {
		result[currency] = a.Inventory.Get(currency)
	}
	return result
}

// GetChildren returns direct child accounts.
// For example, if this account is "Assets", returns child accounts like "Assets:US" and "Assets:Investments".
func (a *Account) GetChildren(l *Ledger) []*Account {
	parentPath := string(a.Name)
	prefix := parentPath + ":"
	seen := make(map[string]bool)
	var childPaths []string

	accounts := l.Accounts()
	for accountName := range accounts {
		if strings.HasPrefix(accountName, prefix) {
			remainder := strings.TrimPrefix(accountName, prefix)
			// Extract only the first segment (direct child)
			firstSegment := strings.Split(remainder, ":")[0]
			childPath := parentPath + ":" + firstSegment

			if !seen[childPath] {
				childPaths = append(childPaths, childPath)
				seen[childPath] = true
			}
		}
	}

	// Return Account structs, sorted by name
	sort.Strings(childPaths)
	var children []*Account
	for _, path := range childPaths {
		if child, ok := accounts[path]; ok {
			children = append(children, child)
		}
	}
	return children
}

// GetPostingsBefore returns the postings recorded on or before the given date.
func (a *Account) GetPostingsBefore(date *ast.Date) []*AccountPosting {
	var result []*AccountPosting
	for _, p := range a.Postings {
		if !p.Transaction.Date.Time.After(date.Time) {
			result = append(result, p)
		}
	}
	return result
}

// GetPostingsInPeriod returns the postings whose transaction date falls
// within [start, end] inclusive.
func (a *Account) GetPostingsInPeriod(start, end *ast.Date) []*AccountPosting {
	var result []*AccountPosting
	for _, p := range a.Postings {
		d := p.Transaction.Date.Time
		if !d.Before(start.Time) && !d.After(end.Time) {
			result = append(result, p)
		}
	}
	return result
}

// GetBalanceInPeriod computes this account's balance over a date range. When
// start equals end it returns the cumulative balance as of that date
// (balance-sheet semantics); otherwise it returns the net change from
// postings dated within [start, end] (income-statement semantics).
func (a *Account) GetBalanceInPeriod(start, end ast.Date) *Balance {
	balance := NewBalance()

	var postings []*AccountPosting
	if start.Time.Equal(end.Time) {
		postings = a.GetPostingsBefore(&end)
	} else {
		postings = a.GetPostingsInPeriod(&start, &end)
	}

	for _, p := range postings {
		if p.Posting.Amount == nil {
			continue
		}
		amount, err := ParseAmount(p.Posting.Amount)
		if err != nil {
			continue
		}
		balance.Add(p.Posting.Amount.Currency, amount)
	}

	return balance
}

// GetSubtreeBalance returns the aggregated balance for this account and all its descendants.
// Useful for balance sheet reporting where parent balances sum their children.
// Returns a map of commodity to total decimal amount.
func (a *Account) GetSubtreeBalance(l *Ledger) map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal)

	// Add this account's direct balance
	for currency, amount := range a.GetBalance() {
		result[currency] = amount
	}

	// Add all descendants recursively
	a.addDescendantBalances(l, result)
	return result
}

// addDescendantBalances recursively accumulates balances from all descendant accounts.
func (a *Account) addDescendantBalances(l *Ledger, result map[string]decimal.Decimal) {
	for _, child := range a.GetChildren(l) {
		// Add child's direct balance
		for currency, amount := range child.GetBalance() {
			result[currency] = result[currency].Add(amount)
		}
		// Recursively add child's descendants
		child.addDescendantBalances(l, result)
	}
}
