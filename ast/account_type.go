package ast

import "strings"

// AccountType classifies an account by its top-level name segment, one of
// the five categories every Beancount account must belong to.
type AccountType int

const (
	AccountTypeUnknown AccountType = iota
	AccountTypeAssets
	AccountTypeLiabilities
	AccountTypeEquity
	AccountTypeIncome
	AccountTypeExpenses
)

// String returns the canonical root name for the account type, or "" for
// AccountTypeUnknown.
func (t AccountType) String() string {
	switch t {
	case AccountTypeAssets:
		return "Assets"
	case AccountTypeLiabilities:
		return "Liabilities"
	case AccountTypeEquity:
		return "Equity"
	case AccountTypeIncome:
		return "Income"
	case AccountTypeExpenses:
		return "Expenses"
	default:
		return ""
	}
}

// Type returns the account's root category. It panics if the account has no
// colon or its root segment is not one of the five known categories.
func (a Account) Type() AccountType {
	if !strings.Contains(string(a), ":") {
		panic("account has no root segment: " + string(a))
	}
	t := ParseAccountType(a)
	if t == AccountTypeUnknown {
		panic("unknown account type: " + string(a))
	}
	return t
}

// ParseAccountType classifies an account by its leading colon-separated
// segment. Returns AccountTypeUnknown if the segment doesn't match one of
// the five known categories.
func ParseAccountType(account Account) AccountType {
	root := string(account)
	if idx := strings.IndexByte(root, ':'); idx >= 0 {
		root = root[:idx]
	}
	switch root {
	case "Assets":
		return AccountTypeAssets
	case "Liabilities":
		return AccountTypeLiabilities
	case "Equity":
		return AccountTypeEquity
	case "Income":
		return AccountTypeIncome
	case "Expenses":
		return AccountTypeExpenses
	default:
		return AccountTypeUnknown
	}
}
