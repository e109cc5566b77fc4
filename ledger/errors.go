package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/robinvdvleuten/beancount/ast"
)

// errorBase carries the position/date/directive/account context shared by
// every validation error. Embedding it gives each concrete error type the
// GetPosition/GetDirective/GetAccount/GetDate accessors that the errors
// package's formatters duck-type against.
type errorBase struct {
	Pos       ast.Position
	Date      *ast.Date
	Directive ast.Directive
	Account   ast.Account
}

func (e errorBase) GetPosition() ast.Position   { return e.Pos }
func (e errorBase) GetDirective() ast.Directive { return e.Directive }
func (e errorBase) GetAccount() ast.Account     { return e.Account }
func (e errorBase) GetDate() *ast.Date          { return e.Date }

// location formats a bean-check style prefix: filename:line when available,
// falling back to the directive's date.
func (e errorBase) location() string {
	if e.Pos.Filename != "" {
		return fmt.Sprintf("%s:%d", e.Pos.Filename, e.Pos.Line)
	}
	return e.Date.Format("2006-01-02")
}

// AccountNotOpenError reports a reference (posting, balance, pad, note, or
// document) to an account that is not open on the directive's date.
type AccountNotOpenError struct {
	errorBase
}

func (e *AccountNotOpenError) Error() string {
	return fmt.Sprintf("%s: invalid reference to unknown or unopened account %s", e.location(), e.Account)
}

// NewAccountNotOpenError reports a posting against an account that is not
// open (or not yet opened) on the transaction's date.
func NewAccountNotOpenError(txn *ast.Transaction, account ast.Account) *AccountNotOpenError {
	return &AccountNotOpenError{errorBase{Pos: txn.Pos, Date: txn.Date, Directive: txn, Account: account}}
}

// NewAccountNotOpenErrorFromBalance reports a balance assertion against an
// account that is not open on the assertion date.
func NewAccountNotOpenErrorFromBalance(balance *ast.Balance) *AccountNotOpenError {
	return &AccountNotOpenError{errorBase{Pos: balance.Pos, Date: balance.Date, Directive: balance, Account: balance.Account}}
}

// NewAccountNotOpenErrorFromPad reports a pad directive referencing an
// account (either the padded account or the pad source) that is not open
// on the pad date.
func NewAccountNotOpenErrorFromPad(pad *ast.Pad, account ast.Account) *AccountNotOpenError {
	return &AccountNotOpenError{errorBase{Pos: pad.Pos, Date: pad.Date, Directive: pad, Account: account}}
}

// NewAccountNotOpenErrorFromNote reports a note attached to a closed or
// unopened account.
func NewAccountNotOpenErrorFromNote(note *ast.Note) *AccountNotOpenError {
	return &AccountNotOpenError{errorBase{Pos: note.Pos, Date: note.Date, Directive: note, Account: note.Account}}
}

// NewAccountNotOpenErrorFromDocument reports a document linked to a closed
// or unopened account.
func NewAccountNotOpenErrorFromDocument(doc *ast.Document) *AccountNotOpenError {
	return &AccountNotOpenError{errorBase{Pos: doc.Pos, Date: doc.Date, Directive: doc, Account: doc.Account}}
}

// InvalidAmountError reports an amount string (on a posting or balance
// assertion) that failed to parse as a decimal.
type InvalidAmountError struct {
	errorBase
	Value string
	Err   error
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("%s: account %s: invalid amount %q: %v", e.location(), e.Account, e.Value, e.Err)
}

func (e *InvalidAmountError) Unwrap() error { return e.Err }

// NewInvalidAmountError reports a posting amount that failed to parse.
func NewInvalidAmountError(txn *ast.Transaction, account ast.Account, value string, err error) *InvalidAmountError {
	return &InvalidAmountError{errorBase{Pos: txn.Pos, Date: txn.Date, Directive: txn, Account: account}, value, err}
}

// NewInvalidAmountErrorFromBalance reports an unparseable balance amount.
func NewInvalidAmountErrorFromBalance(balance *ast.Balance, err error) *InvalidAmountError {
	return &InvalidAmountError{errorBase{Pos: balance.Pos, Date: balance.Date, Directive: balance, Account: balance.Account}, balance.Amount.Value, err}
}

// InvalidCostError reports a malformed cost specification on a posting.
type InvalidCostError struct {
	errorBase
	PostingIndex int
	CostSpec     string
	Err          error
}

func (e *InvalidCostError) Error() string {
	return fmt.Sprintf("%s: account %s posting %d: invalid cost %s: %v", e.location(), e.Account, e.PostingIndex, e.CostSpec, e.Err)
}

func (e *InvalidCostError) Unwrap() error { return e.Err }

// NewInvalidCostError reports a malformed cost specification on a posting.
func NewInvalidCostError(txn *ast.Transaction, account ast.Account, postingIndex int, costSpec string, err error) *InvalidCostError {
	return &InvalidCostError{errorBase{Pos: txn.Pos, Date: txn.Date, Directive: txn, Account: account}, postingIndex, costSpec, err}
}

// InvalidPriceError reports a malformed price annotation on a posting.
type InvalidPriceError struct {
	errorBase
	PostingIndex int
	PriceSpec    string
	Err          error
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("%s: account %s posting %d: invalid price %s: %v", e.location(), e.Account, e.PostingIndex, e.PriceSpec, e.Err)
}

func (e *InvalidPriceError) Unwrap() error { return e.Err }

// NewInvalidPriceError reports a malformed price annotation on a posting.
func NewInvalidPriceError(txn *ast.Transaction, account ast.Account, postingIndex int, priceSpec string, err error) *InvalidPriceError {
	return &InvalidPriceError{errorBase{Pos: txn.Pos, Date: txn.Date, Directive: txn, Account: account}, postingIndex, priceSpec, err}
}

// InvalidMetadataError reports a duplicate key or empty value in metadata.
// Account is empty for transaction-level metadata.
type InvalidMetadataError struct {
	errorBase
	Key    string
	Value  *ast.MetadataValue
	Reason string
}

func (e *InvalidMetadataError) Error() string {
	if e.Account == "" {
		return fmt.Sprintf("%s: invalid metadata: key=%q, value=%q: %s", e.location(), e.Key, e.Value.String(), e.Reason)
	}
	return fmt.Sprintf("%s: invalid metadata (account %s): key=%q, value=%q: %s", e.location(), e.Account, e.Key, e.Value.String(), e.Reason)
}

// NewInvalidMetadataError reports a duplicate key or empty value in
// metadata. account is empty for transaction-level metadata.
func NewInvalidMetadataError(txn *ast.Transaction, account ast.Account, key string, value *ast.MetadataValue, reason string) *InvalidMetadataError {
	return &InvalidMetadataError{errorBase{Pos: txn.Pos, Date: txn.Date, Directive: txn, Account: account}, key, value, reason}
}

// TransactionNotBalancedError reports postings whose per-currency sums
// leave a non-zero residual outside tolerance.
type TransactionNotBalancedError struct {
	errorBase
	Residuals map[string]string
}

func (e *TransactionNotBalancedError) Error() string {
	return fmt.Sprintf("%s: transaction does not balance: %s", e.location(), formatResiduals(e.Residuals))
}

// NewTransactionNotBalancedError reports postings whose per-currency sums
// leave a non-zero residual outside tolerance.
func NewTransactionNotBalancedError(txn *ast.Transaction, residuals map[string]string) *TransactionNotBalancedError {
	return &TransactionNotBalancedError{errorBase{Pos: txn.Pos, Date: txn.Date, Directive: txn}, residuals}
}

func formatResiduals(residuals map[string]string) string {
	currencies := make([]string, 0, len(residuals))
	for currency := range residuals {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	parts := make([]string, 0, len(currencies))
	for _, currency := range currencies {
		parts = append(parts, fmt.Sprintf("%s %s", residuals[currency], currency))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// AccountAlreadyOpenError reports a duplicate open directive. Beancount
// does not allow reopening a closed account, so this also fires for
// accounts that were previously closed.
type AccountAlreadyOpenError struct {
	errorBase
	ExistingOpenDate *ast.Date
}

func (e *AccountAlreadyOpenError) Error() string {
	return fmt.Sprintf("%s: account %s is already open (opened on %s)", e.location(), e.Account, e.ExistingOpenDate.Format("2006-01-02"))
}

// NewAccountAlreadyOpenError reports a duplicate open directive.
func NewAccountAlreadyOpenError(open *ast.Open, existingOpenDate *ast.Date) *AccountAlreadyOpenError {
	return &AccountAlreadyOpenError{errorBase{Pos: open.Pos, Date: open.Date, Directive: open, Account: open.Account}, existingOpenDate}
}

// AccountNotClosedError reports a close directive for an account that was
// never opened.
type AccountNotClosedError struct {
	errorBase
}

func (e *AccountNotClosedError) Error() string {
	return fmt.Sprintf("%s: cannot close account %s that was never opened", e.location(), e.Account)
}

// NewAccountNotClosedError reports a close directive for an account that
// was never opened.
func NewAccountNotClosedError(close *ast.Close) *AccountNotClosedError {
	return &AccountNotClosedError{errorBase{Pos: close.Pos, Date: close.Date, Directive: close, Account: close.Account}}
}

// AccountAlreadyClosedError reports a duplicate close directive.
type AccountAlreadyClosedError struct {
	errorBase
	CloseDate *ast.Date
}

func (e *AccountAlreadyClosedError) Error() string {
	return fmt.Sprintf("%s: account %s is already closed (closed on %s)", e.location(), e.Account, e.CloseDate.Format("2006-01-02"))
}

// NewAccountAlreadyClosedError reports a duplicate close directive.
func NewAccountAlreadyClosedError(close *ast.Close, closeDate *ast.Date) *AccountAlreadyClosedError {
	return &AccountAlreadyClosedError{errorBase{Pos: close.Pos, Date: close.Date, Directive: close, Account: close.Account}, closeDate}
}

// BalanceMismatchError reports a balance assertion that does not match the
// computed (and, if applicable, padded) account balance.
type BalanceMismatchError struct {
	errorBase
	Expected string
	Actual   string
	Currency string
}

func (e *BalanceMismatchError) Error() string {
	return fmt.Sprintf("%s: balance mismatch for %s: expected %s %s, got %s %s",
		e.location(), e.Account, e.Expected, e.Currency, e.Actual, e.Currency)
}

// NewBalanceMismatchError reports a balance assertion that does not match
// the computed (and, if applicable, padded) account balance.
func NewBalanceMismatchError(balance *ast.Balance, expected, actual, currency string) *BalanceMismatchError {
	return &BalanceMismatchError{errorBase{Pos: balance.Pos, Date: balance.Date, Directive: balance, Account: balance.Account}, expected, actual, currency}
}

// InsufficientInventoryError reports a lot reduction that cannot be
// satisfied by the account's current inventory under its booking method.
type InsufficientInventoryError struct {
	errorBase
	Payee   string
	Details error
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("%s: Insufficient inventory for account %s: %v", e.location(), e.Account, e.Details)
}

func (e *InsufficientInventoryError) Unwrap() error { return e.Details }

// NewInsufficientInventoryError reports a lot reduction that cannot be
// satisfied by the account's current inventory under its booking method.
func NewInsufficientInventoryError(txn *ast.Transaction, account ast.Account, err error) *InsufficientInventoryError {
	return &InsufficientInventoryError{errorBase{Pos: txn.Pos, Date: txn.Date, Directive: txn, Account: account}, txn.Payee, err}
}

// CurrencyConstraintError reports a posting whose currency is not among the
// account's declared constraint currencies.
type CurrencyConstraintError struct {
	errorBase
	Payee             string
	Currency          string
	AllowedCurrencies []string
}

func (e *CurrencyConstraintError) Error() string {
	return fmt.Sprintf("%s: Currency %s not allowed for account %s (allowed: %v)",
		e.location(), e.Currency, e.Account, e.AllowedCurrencies)
}

// NewCurrencyConstraintError reports a posting whose currency is not among
// the account's declared constraint currencies.
func NewCurrencyConstraintError(txn *ast.Transaction, account ast.Account, currency string, allowed []string) *CurrencyConstraintError {
	return &CurrencyConstraintError{errorBase{Pos: txn.Pos, Date: txn.Date, Directive: txn, Account: account}, txn.Payee, currency, allowed}
}
