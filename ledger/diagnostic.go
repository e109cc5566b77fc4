package ledger

import (
	"fmt"
	"sort"

	"github.com/robinvdvleuten/beancount/ast"
)

// Severity classifies whether a Diagnostic blocks processing (Error) or is
// merely informational and does not prevent the ledger from being usable
// (Warning). Process collects both but only aborts with ValidationErrors
// when at least one Error-severity diagnostic is present.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// DiagnosticCode names a distinct class of validation finding. Codes are
// stable identifiers, independent of the (freeform) Message text, so tools
// consuming ledger output can filter or group on Code without parsing
// prose.
type DiagnosticCode string

const (
	CodeAccountNotOpen             DiagnosticCode = "AccountNotOpen"
	CodeAccountAlreadyOpen         DiagnosticCode = "AccountAlreadyOpen"
	CodeAccountNotClosed           DiagnosticCode = "AccountNotClosed"
	CodeAccountAlreadyClosed       DiagnosticCode = "AccountAlreadyClosed"
	CodeCloseNotEmpty              DiagnosticCode = "CloseNotEmpty"
	CodeInvalidAmount              DiagnosticCode = "InvalidAmount"
	CodeInvalidCost                DiagnosticCode = "InvalidCost"
	CodeInvalidPrice               DiagnosticCode = "InvalidPrice"
	CodeInvalidMetadata            DiagnosticCode = "InvalidMetadata"
	CodeCurrencyConstraintViolated DiagnosticCode = "CurrencyConstraintViolated"
	CodeTransactionNotBalanced     DiagnosticCode = "TransactionNotBalanced"
	CodeMultipleMissingAmounts     DiagnosticCode = "MultipleMissingAmounts"
	CodeBalanceMismatch            DiagnosticCode = "BalanceMismatch"
	CodePadWithoutBalance          DiagnosticCode = "PadWithoutBalance"
	CodeMultiplePadForBalance      DiagnosticCode = "MultiplePadForBalance"
	CodeAmbiguousMatch             DiagnosticCode = "AmbiguousMatch"
	CodeNoMatchingLot              DiagnosticCode = "NoMatchingLot"
	CodeInsufficientUnits          DiagnosticCode = "InsufficientUnits"
	CodeNegativeUnits              DiagnosticCode = "NegativeUnits"
	CodeDuplicateOpen              DiagnosticCode = "DuplicateOpen"
	CodeUnknownAccount             DiagnosticCode = "UnknownAccount"
	CodePriceNotFound              DiagnosticCode = "PriceNotFound"
	CodeCircularPriceReference     DiagnosticCode = "CircularPriceReference"
	CodeInvalidBookingMethod       DiagnosticCode = "InvalidBookingMethod"
	CodeEmptyCostSpecUnderStrict   DiagnosticCode = "EmptyCostSpecUnderStrict"
	CodeDirectiveOutOfOrder        DiagnosticCode = "DirectiveOutOfOrder"
	CodeToleranceExceeded          DiagnosticCode = "ToleranceExceeded"
	CodeUnopenedAccountReference   DiagnosticCode = "UnopenedAccountReference"
	CodeMalformedDirective         DiagnosticCode = "MalformedDirective"
)

// Location pins a Diagnostic to a place in the source and, where relevant,
// a dated directive and account. Filename/Line/Column come straight from
// the parsed ast.Position; Date and Account are nil/empty where they don't
// apply (e.g. a file-level parse diagnostic).
type Location struct {
	Pos     ast.Position
	Date    *ast.Date
	Account ast.Account
}

// Diagnostic is a single structured validation finding: a stable Code, a
// Severity that determines whether it aborts processing, where it
// happened, a human-readable Message, and optional Notes/Suggestions that
// give a formatter more to work with than the one-line message.
type Diagnostic struct {
	Code        DiagnosticCode
	Severity    Severity
	Location    Location
	Message     string
	Notes       []string
	Suggestions []string
}

func (d *Diagnostic) Error() string {
	if d.Location.Pos.Filename != "" {
		return fmt.Sprintf("%s:%d: %s: %s", d.Location.Pos.Filename, d.Location.Pos.Line, d.Code, d.Message)
	}
	if d.Location.Date != nil {
		return fmt.Sprintf("%s: %s: %s", d.Location.Date.Format("2006-01-02"), d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// IsWarning reports whether this Diagnostic has warning severity. Handler
// and Process callers use this (via the diagnoser interface) to decide
// whether a finding should abort the run.
func (d *Diagnostic) IsWarning() bool { return d.Severity == SeverityWarning }

// diagnoser is satisfied by every error type in this package that carries
// a structured Diagnostic. Errors that predate the taxonomy (or that are
// plain fmt.Errorf placeholders) simply don't implement it, and are
// treated as SeverityError by SplitDiagnostics.
type diagnoser interface {
	error
	Diagnostic() *Diagnostic
}

// SortDiagnostics orders diagnostics by (filename, line, column, code), the
// order a human reading the source top to bottom expects findings in.
func SortDiagnostics(diags []*Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Location.Pos.Filename != b.Location.Pos.Filename {
			return a.Location.Pos.Filename < b.Location.Pos.Filename
		}
		if a.Location.Pos.Line != b.Location.Pos.Line {
			return a.Location.Pos.Line < b.Location.Pos.Line
		}
		if a.Location.Pos.Column != b.Location.Pos.Column {
			return a.Location.Pos.Column < b.Location.Pos.Column
		}
		return a.Code < b.Code
	})
}

// SplitDiagnostics partitions err values into blocking errors and
// non-blocking warnings, using the diagnoser interface where an error
// implements it and treating everything else as blocking. This is what
// lets CloseNotEmpty and PadWithoutBalance accumulate without failing
// Process, while BalanceMismatch and friends still do.
func SplitDiagnostics(errs []error) (blocking []error, warnings []error) {
	for _, err := range errs {
		if d, ok := err.(diagnoser); ok && d.IsWarning() {
			warnings = append(warnings, err)
			continue
		}
		blocking = append(blocking, err)
	}
	return blocking, warnings
}

// MultipleMissingAmountsError reports a transaction where interpolation
// could not resolve a residual to a single posting: either more than one
// posting omitted its amount, or one omitted posting left a residual spread
// across more than one currency. Beancount's interpolation only ever fills
// in one blank; anything less constrained is rejected rather than guessed.
type MultipleMissingAmountsError struct {
	errorBase
	Residuals map[string]string
}

func (e *MultipleMissingAmountsError) Error() string {
	return fmt.Sprintf("%s: transaction has more missing amounts than can be inferred: residual %s", e.location(), formatResiduals(e.Residuals))
}

func (e *MultipleMissingAmountsError) Diagnostic() *Diagnostic {
	return &Diagnostic{
		Code:     CodeMultipleMissingAmounts,
		Severity: SeverityError,
		Location: Location{Pos: e.Pos, Date: e.Date},
		Message:  e.Error(),
		Suggestions: []string{
			"leave at most one posting's amount blank, in a single currency",
		},
	}
}

// NewMultipleMissingAmountsError reports a transaction whose missing
// amounts/costs couldn't be interpolated unambiguously.
func NewMultipleMissingAmountsError(txn *ast.Transaction, residuals map[string]string) *MultipleMissingAmountsError {
	return &MultipleMissingAmountsError{errorBase{Pos: txn.Pos, Date: txn.Date, Directive: txn}, residuals}
}

// PadWithoutBalanceError reports a pad directive that was never consumed
// by a following balance assertion on the same account. Beancount treats
// this as a warning: the pad simply had no effect.
type PadWithoutBalanceError struct {
	errorBase
}

func (e *PadWithoutBalanceError) Error() string {
	from := e.Account
	if pad, ok := e.Directive.(*ast.Pad); ok {
		from = pad.AccountPad
	}
	return fmt.Sprintf("%s: pad for %s from %s was never used (no following balance assertion)", e.location(), e.Account, from)
}

func (e *PadWithoutBalanceError) Diagnostic() *Diagnostic {
	return &Diagnostic{
		Code:     CodePadWithoutBalance,
		Severity: SeverityWarning,
		Location: Location{Pos: e.Pos, Date: e.Date, Account: e.Account},
		Message:  e.Error(),
	}
}

// NewUnusedPadWarning reports a pad directive that no balance assertion
// ever consumed.
func NewUnusedPadWarning(pad *ast.Pad) *PadWithoutBalanceError {
	return &PadWithoutBalanceError{errorBase{Pos: pad.Pos, Date: pad.Date, Directive: pad, Account: pad.Account}}
}

// MultiplePadForBalanceError reports a second pad directive for an account
// that still has an earlier pad awaiting a balance assertion. Beancount
// only pairs one pad with the next balance; a second pad before that pairing
// resolves is ambiguous about which one the balance should consume.
type MultiplePadForBalanceError struct {
	errorBase
	PriorPadDate *ast.Date
}

func (e *MultiplePadForBalanceError) Error() string {
	return fmt.Sprintf("%s: account %s already has a pad from %s awaiting a balance assertion", e.location(), e.Account, e.PriorPadDate.Format("2006-01-02"))
}

func (e *MultiplePadForBalanceError) Diagnostic() *Diagnostic {
	return &Diagnostic{
		Code:     CodeMultiplePadForBalance,
		Severity: SeverityError,
		Location: Location{Pos: e.Pos, Date: e.Date, Account: e.Account},
		Message:  e.Error(),
		Notes:    []string{fmt.Sprintf("prior pad dated %s is still pending", e.PriorPadDate.Format("2006-01-02"))},
	}
}

// NewMultiplePadForBalanceError reports a pad directive arriving while an
// earlier pad for the same account is still unconsumed.
func NewMultiplePadForBalanceError(pad *ast.Pad, priorPadDate *ast.Date) *MultiplePadForBalanceError {
	return &MultiplePadForBalanceError{errorBase{Pos: pad.Pos, Date: pad.Date, Directive: pad, Account: pad.Account}, priorPadDate}
}

// CloseNotEmptyError reports a close directive for an account that still
// holds non-zero inventory. Beancount does not forbid closing such an
// account -- the position simply stops being tracked -- so this is a
// warning, not a blocking error.
type CloseNotEmptyError struct {
	errorBase
	Remaining map[string]string // currency -> remaining amount
}

func (e *CloseNotEmptyError) Error() string {
	return fmt.Sprintf("%s: closing account %s with non-zero balance: %s", e.location(), e.Account, formatResiduals(e.Remaining))
}

func (e *CloseNotEmptyError) Diagnostic() *Diagnostic {
	return &Diagnostic{
		Code:     CodeCloseNotEmpty,
		Severity: SeverityWarning,
		Location: Location{Pos: e.Pos, Date: e.Date, Account: e.Account},
		Message:  e.Error(),
		Suggestions: []string{
			"transfer the remaining balance to another account before closing, or confirm the write-off is intentional",
		},
	}
}

// NewCloseNotEmptyError reports a close directive for an account that
// still carries a non-zero balance in one or more currencies.
func NewCloseNotEmptyError(close *ast.Close, remaining map[string]string) *CloseNotEmptyError {
	return &CloseNotEmptyError{errorBase{Pos: close.Pos, Date: close.Date, Directive: close, Account: close.Account}, remaining}
}

// AmbiguousMatchError reports a lot reduction whose cost spec matches more
// than one held lot under a booking method (STRICT, STRICT_WITH_SIZE) that
// requires the match to be unique.
type AmbiguousMatchError struct {
	errorBase
	CostSpec      string
	MatchingCount int
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%s: account %s: cost spec %s matches %d lots, booking method requires exactly one", e.location(), e.Account, e.CostSpec, e.MatchingCount)
}

func (e *AmbiguousMatchError) Diagnostic() *Diagnostic {
	return &Diagnostic{
		Code:     CodeAmbiguousMatch,
		Severity: SeverityError,
		Location: Location{Pos: e.Pos, Date: e.Date, Account: e.Account},
		Message:  e.Error(),
		Suggestions: []string{
			"narrow the cost spec with a date or label to select a single lot",
		},
	}
}

// NewAmbiguousMatchError reports a reduction whose cost spec selects more
// than one held lot under a booking method that requires a unique match.
func NewAmbiguousMatchError(txn *ast.Transaction, account ast.Account, costSpec string, matchingCount int) *AmbiguousMatchError {
	return &AmbiguousMatchError{errorBase{Pos: txn.Pos, Date: txn.Date, Directive: txn, Account: account}, costSpec, matchingCount}
}

// NoMatchingLotError reports a lot reduction whose cost spec matches no
// held lot at all.
type NoMatchingLotError struct {
	errorBase
	CostSpec string
	Currency string
}

func (e *NoMatchingLotError) Error() string {
	return fmt.Sprintf("%s: account %s: no held %s lot matches cost spec %s", e.location(), e.Account, e.Currency, e.CostSpec)
}

func (e *NoMatchingLotError) Diagnostic() *Diagnostic {
	return &Diagnostic{
		Code:     CodeNoMatchingLot,
		Severity: SeverityError,
		Location: Location{Pos: e.Pos, Date: e.Date, Account: e.Account},
		Message:  e.Error(),
	}
}

// NewNoMatchingLotError reports a reduction whose cost spec matches no
// held lot of the given currency.
func NewNoMatchingLotError(txn *ast.Transaction, account ast.Account, currency, costSpec string) *NoMatchingLotError {
	return &NoMatchingLotError{errorBase{Pos: txn.Pos, Date: txn.Date, Directive: txn, Account: account}, costSpec, currency}
}

// InsufficientUnitsError reports a lot reduction that requests more units
// than the matched lot(s) hold.
type InsufficientUnitsError struct {
	errorBase
	Requested string
	Available string
	Currency  string
}

func (e *InsufficientUnitsError) Error() string {
	return fmt.Sprintf("%s: account %s: reduction of %s %s requested but only %s %s available", e.location(), e.Account, e.Requested, e.Currency, e.Available, e.Currency)
}

func (e *InsufficientUnitsError) Diagnostic() *Diagnostic {
	return &Diagnostic{
		Code:     CodeInsufficientUnits,
		Severity: SeverityError,
		Location: Location{Pos: e.Pos, Date: e.Date, Account: e.Account},
		Message:  e.Error(),
	}
}

// NewInsufficientUnitsError reports a reduction that exceeds the units
// available in the matched lot(s).
func NewInsufficientUnitsError(txn *ast.Transaction, account ast.Account, requested, available, currency string) *InsufficientUnitsError {
	return &InsufficientUnitsError{errorBase{Pos: txn.Pos, Date: txn.Date, Directive: txn, Account: account}, requested, available, currency}
}

// NegativeUnitsError reports a posting that would drive an account's
// per-currency inventory negative under a booking method that forbids it
// (any method other than NONE).
type NegativeUnitsError struct {
	errorBase
	Currency string
	Result   string
}

func (e *NegativeUnitsError) Error() string {
	return fmt.Sprintf("%s: account %s: posting would leave a negative %s balance (%s), not permitted under the account's booking method", e.location(), e.Account, e.Currency, e.Result)
}

func (e *NegativeUnitsError) Diagnostic() *Diagnostic {
	return &Diagnostic{
		Code:     CodeNegativeUnits,
		Severity: SeverityError,
		Location: Location{Pos: e.Pos, Date: e.Date, Account: e.Account},
		Message:  e.Error(),
		Suggestions: []string{
			"book the account NONE if mixed-sign inventory is intentional",
		},
	}
}

// NewNegativeUnitsError reports a posting that drives a currency's
// inventory negative under a booking method that forbids it.
func NewNegativeUnitsError(txn *ast.Transaction, account ast.Account, currency, result string) *NegativeUnitsError {
	return &NegativeUnitsError{errorBase{Pos: txn.Pos, Date: txn.Date, Directive: txn, Account: account}, currency, result}
}

// inventoryErrorToDiagnostic translates one of Inventory's internal
// sentinel errors (errAmbiguousMatch, errNoMatchingLot,
// errInsufficientUnits) into the corresponding typed Diagnostic error, with
// the transaction/account context only the validator has. Any other error
// shape is wrapped as InsufficientInventoryError, same as before the
// taxonomy existed.
func inventoryErrorToDiagnostic(txn *ast.Transaction, account ast.Account, err error) error {
	switch e := err.(type) {
	case *errAmbiguousMatch:
		return NewAmbiguousMatchError(txn, account, e.costSpec, e.matchingCount)
	case *errNoMatchingLot:
		return NewNoMatchingLotError(txn, account, e.commodity, e.costSpec)
	case *errInsufficientUnits:
		return NewInsufficientUnitsError(txn, account, e.requested.String(), e.available.String(), e.commodity)
	default:
		return NewInsufficientInventoryError(txn, account, err)
	}
}
