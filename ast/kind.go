package ast

// DirectiveKind identifies the concrete type of a Directive without a type
// switch, so the ledger can dispatch to a handler and order directives by a
// lookup table instead of a chain of type assertions.
type DirectiveKind uint8

const (
	KindOpen DirectiveKind = iota
	KindCommodity
	KindPad
	KindBalance
	KindTransaction
	KindNote
	KindDocument
	KindEvent
	KindQuery
	KindPrice
	KindClose
	KindCustom
)

var kindNames = map[DirectiveKind]string{
	KindOpen:        "open",
	KindCommodity:   "commodity",
	KindPad:         "pad",
	KindBalance:     "balance",
	KindTransaction: "transaction",
	KindNote:        "note",
	KindDocument:    "document",
	KindEvent:       "event",
	KindQuery:       "query",
	KindPrice:       "price",
	KindClose:       "close",
	KindCustom:      "custom",
}

func (k DirectiveKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// directiveKindPriority is the same-date processing order: accounts must be
// opened before anything references them, pads and balances resolve before
// the transactions that might synthesize from them, and closes come after
// every kind except custom, so the other directives on the closing date still
// see the account open.
var directiveKindPriority = map[DirectiveKind]int{
	KindOpen:        0,
	KindCommodity:   1,
	KindPad:         2,
	KindBalance:     3,
	KindTransaction: 4,
	KindNote:        5,
	KindDocument:    6,
	KindEvent:       7,
	KindQuery:       8,
	KindPrice:       9,
	KindClose:       10,
	KindCustom:      11,
}
