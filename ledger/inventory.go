package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Inventory tracks lots of commodities with cost basis
type Inventory struct {
	// Map: commodity -> list of lots
	lots map[string][]*lot
}

// NewInventory creates a new inventory
func NewInventory() *Inventory {
	return &Inventory{
		lots: make(map[string][]*lot),
	}
}

// Add adds an amount without cost basis
func (inv *Inventory) Add(commodity string, amount decimal.Decimal) {
	// Add as a lot without cost spec
	inv.AddLot(commodity, amount, nil)
}

// AddLot adds an amount with a specific cost basis
func (inv *Inventory) AddLot(commodity string, amount decimal.Decimal, spec *lotSpec) {
	// Find existing lot with matching spec
	lots := inv.lots[commodity]
	for _, lot := range lots {
		if lotSpecsMatch(lot.Spec, spec) {
			// Add to existing lot
			lot.Amount = lot.Amount.Add(amount)
			return
		}
	}

	// Create new lot
	newLot := newLot(commodity, amount, spec)
	inv.lots[commodity] = append(inv.lots[commodity], newLot)
}

// Get returns the total amount of a commodity (summing all lots)
func (inv *Inventory) Get(commodity string) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range inv.lots[commodity] {
		total = total.Add(lot.Amount)
	}
	return total
}

// GetLots returns all lots for a commodity
func (inv *Inventory) GetLots(commodity string) []*lot {
	return inv.lots[commodity]
}

// errAmbiguousMatch, errNoMatchingLot and errInsufficientUnits are the
// sentinel shapes Inventory's reduce methods raise internally. The
// validator (which has the transaction/account context a Diagnostic needs)
// type-switches on these to build the corresponding AmbiguousMatchError /
// NoMatchingLotError / InsufficientUnitsError.
type errAmbiguousMatch struct {
	costSpec      string
	matchingCount int
}

func (e *errAmbiguousMatch) Error() string {
	return fmt.Sprintf("cost spec %s matches %d lots, need exactly one", e.costSpec, e.matchingCount)
}

type errNoMatchingLot struct {
	commodity string
	costSpec  string
}

func (e *errNoMatchingLot) Error() string {
	return fmt.Sprintf("no held %s lot matches cost spec %s", e.commodity, e.costSpec)
}

type errInsufficientUnits struct {
	commodity string
	requested decimal.Decimal
	available decimal.Decimal
}

func (e *errInsufficientUnits) Error() string {
	return fmt.Sprintf("insufficient %s units: requested %s, available %s", e.commodity, e.requested.String(), e.available.String())
}

// ReduceLot reduces from a specific lot or uses booking method, returning
// the ordered list of lots (or lot fragments) the reduction consumed. The
// list is empty when the reduction didn't match against held lots at all
// (NONE booking, or no cost spec given).
func (inv *Inventory) ReduceLot(commodity string, amount decimal.Decimal, spec *lotSpec, bookingMethod string) ([]MatchedLot, error) {
	// Reducing means amount should be negative
	if amount.GreaterThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("reduce amount must be negative, got %s", amount.String())
	}

	// Get absolute value for comparison
	reduceAmount := amount.Abs()

	// Empty spec {} means use booking method
	if spec != nil && spec.IsEmpty() {
		return inv.reduceWithBooking(commodity, reduceAmount, bookingMethod)
	}

	// Specific lot spec - find matching lot
	if spec != nil && spec.Cost != nil {
		return inv.reduceSpecificLot(commodity, reduceAmount, spec)
	}

	// No spec at all - treat as simple amount
	// Just add the negative amount to first available lot or create new lot
	inv.AddLot(commodity, amount, nil)
	return nil, nil
}

// CanReduceLot reports whether a reduction would succeed, without mutating
// the inventory. Mirrors ReduceLot's dispatch exactly but checks lot
// sufficiency instead of applying the reduction.
func (inv *Inventory) CanReduceLot(commodity string, amount decimal.Decimal, spec *lotSpec, bookingMethod string) error {
	if amount.GreaterThanOrEqual(decimal.Zero) {
		return fmt.Errorf("reduce amount must be negative, got %s", amount.String())
	}

	reduceAmount := amount.Abs()

	if spec != nil && spec.IsEmpty() {
		return inv.canReduceWithBooking(commodity, reduceAmount, bookingMethod)
	}

	if spec != nil && spec.Cost != nil {
		return inv.canReduceSpecificLot(commodity, reduceAmount, spec)
	}

	// No spec at all - simple amount reduction always succeeds (ReduceLot
	// just appends a new negative lot in this case).
	return nil
}

// lotMatchesSpec reports whether l is compatible with spec, comparing only
// the fields spec actually specifies. A spec naming just a cost amount (no
// date, no label) matches every lot at that cost, which is how a directive
// can select "the USD 10 lot" without repeating its acquisition date -- and
// why more than one compatible lot is an ambiguous match rather than an
// automatic pick of the first one found.
func lotMatchesSpec(l *lot, spec *lotSpec) bool {
	if spec.Cost != nil {
		if l.Spec == nil || l.Spec.Cost == nil || !l.Spec.Cost.Equal(*spec.Cost) {
			return false
		}
		if spec.CostCurrency != "" && l.Spec.CostCurrency != spec.CostCurrency {
			return false
		}
	}
	if spec.Date != nil {
		if l.Spec == nil || l.Spec.Date == nil || !l.Spec.Date.Equal(spec.Date.Time) {
			return false
		}
	}
	if spec.Label != "" {
		if l.Spec == nil || l.Spec.Label != spec.Label {
			return false
		}
	}
	return true
}

// matchSpecificLot finds the lots compatible with spec, returning the
// sentinel errNoMatchingLot/errAmbiguousMatch when zero or more than one
// lot qualifies.
func (inv *Inventory) matchSpecificLot(commodity string, spec *lotSpec) (*lot, error) {
	var matches []*lot
	for _, l := range inv.lots[commodity] {
		if lotMatchesSpec(l, spec) {
			matches = append(matches, l)
		}
	}

	switch len(matches) {
	case 0:
		return nil, &errNoMatchingLot{commodity: commodity, costSpec: spec.String()}
	case 1:
		return matches[0], nil
	default:
		return nil, &errAmbiguousMatch{costSpec: spec.String(), matchingCount: len(matches)}
	}
}

// canReduceSpecificLot reports whether a specific lot has sufficient amount
// to satisfy the reduction, without mutating the inventory.
func (inv *Inventory) canReduceSpecificLot(commodity string, amount decimal.Decimal, spec *lotSpec) error {
	lot, err := inv.matchSpecificLot(commodity, spec)
	if err != nil {
		return err
	}
	if lot.Amount.LessThan(amount) {
		return &errInsufficientUnits{commodity: commodity, requested: amount, available: lot.Amount}
	}
	return nil
}

// canReduceWithBooking reports whether the lots for a commodity have
// sufficient total amount to satisfy a booking-method-ordered reduction,
// without mutating the inventory. NONE booking never rejects a reduction on
// capacity grounds; every other method, AVERAGE included, needs the held
// total to cover the requested amount.
func (inv *Inventory) canReduceWithBooking(commodity string, amount decimal.Decimal, bookingMethod string) error {
	lots := inv.lots[commodity]

	if len(lots) == 0 {
		return &errNoMatchingLot{commodity: commodity, costSpec: "{}"}
	}

	if bookingMethod == "NONE" {
		return nil
	}

	total := decimal.Zero
	for _, lot := range lots {
		total = total.Add(lot.Amount)
	}

	if total.LessThan(amount) {
		return &errInsufficientUnits{commodity: commodity, requested: amount, available: total}
	}

	return nil
}

// reduceSpecificLot reduces from a specific lot matching the spec
func (inv *Inventory) reduceSpecificLot(commodity string, amount decimal.Decimal, spec *lotSpec) ([]MatchedLot, error) {
	lot, err := inv.matchSpecificLot(commodity, spec)
	if err != nil {
		return nil, err
	}

	if lot.Amount.LessThan(amount) {
		return nil, &errInsufficientUnits{commodity: commodity, requested: amount, available: lot.Amount}
	}

	matched := matchedLotFrom(lot, amount)

	lot.Amount = lot.Amount.Sub(amount)
	if lot.Amount.IsZero() {
		inv.removeLot(commodity, lot)
	}

	return []MatchedLot{matched}, nil
}

// reduceWithBooking reduces using booking method (FIFO, LIFO, etc.)
// Assumes booking method has already been validated by the validator.
//
// Booking method handling:
// - NONE: Adds negative amount without matching (allows mixed signs)
// - AVERAGE: Merges all lots and recalculates average cost
// - FIFO/LIFO: Sorts lots by date and reduces in order
// - STRICT: Should never reach here with empty spec (validator rejects it)
func (inv *Inventory) reduceWithBooking(commodity string, amount decimal.Decimal, bookingMethod string) ([]MatchedLot, error) {
	lots := inv.lots[commodity]

	if len(lots) == 0 {
		return nil, &errNoMatchingLot{commodity: commodity, costSpec: "{}"}
	}

	// Handle NONE booking: just add the negative amount without matching
	if bookingMethod == "NONE" {
		// Add negative amount as a new lot (always create new lot, don't merge)
		// This allows mixed signs in the inventory
		newLot := newLot(commodity, amount.Neg(), nil)
		inv.lots[commodity] = append(inv.lots[commodity], newLot)
		return nil, nil
	}

	// Handle AVERAGE booking: merge all lots, reduce, then keep single lot with average cost
	if bookingMethod == "AVERAGE" {
		return inv.reduceWithAverage(commodity, amount)
	}

	// Sort lots by date according to booking method (validation already done)
	// If we get an unsupported method here, it's a validator bug
	sortedLots := make([]*lot, len(lots))
	copy(sortedLots, lots)

	switch bookingMethod {
	case "FIFO":
		// FIFO: oldest first (lots without date come first)
		sort.SliceStable(sortedLots, func(i, j int) bool {
			iHasDate := sortedLots[i].Spec != nil && sortedLots[i].Spec.Date != nil
			jHasDate := sortedLots[j].Spec != nil && sortedLots[j].Spec.Date != nil

			// Both lack dates - maintain stable order (not less than)
			if !iHasDate && !jHasDate {
				return false
			}
			// i lacks date, j has date - i comes first
			if !iHasDate {
				return true
			}
			// j lacks date, i has date - j comes first
			if !jHasDate {
				return false
			}
			// Both have dates - compare chronologically (oldest first)
			return sortedLots[i].Spec.Date.Before(sortedLots[j].Spec.Date.Time)
		})
	case "LIFO":
		// LIFO: newest first (lots with dates come first, reverse chronological)
		sort.SliceStable(sortedLots, func(i, j int) bool {
			iHasDate := sortedLots[i].Spec != nil && sortedLots[i].Spec.Date != nil
			jHasDate := sortedLots[j].Spec != nil && sortedLots[j].Spec.Date != nil

			// Both lack dates - maintain stable order (not less than)
			if !iHasDate && !jHasDate {
				return false
			}
			// i has date, j lacks date - i comes first (dated lots first for LIFO)
			if iHasDate && !jHasDate {
				return true
			}
			// j has date, i lacks date - j comes first
			if !iHasDate && jHasDate {
				return false
			}
			// Both have dates - compare reverse chronologically (newest first)
			return sortedLots[i].Spec.Date.After(sortedLots[j].Spec.Date.Time)
		})
	case "HIFO":
		// HIFO: highest cost-per-unit first (lots without cost sort last)
		sort.Slice(sortedLots, func(i, j int) bool {
			iCost := sortedLots[i].Spec != nil && sortedLots[i].Spec.Cost != nil
			jCost := sortedLots[j].Spec != nil && sortedLots[j].Spec.Cost != nil

			if !iCost && !jCost {
				return false
			}
			if !iCost {
				return false
			}
			if !jCost {
				return true
			}
			return sortedLots[i].Spec.Cost.GreaterThan(*sortedLots[j].Spec.Cost)
		})
	case "STRICT", "STRICT_WITH_SIZE":
		// STRICT and STRICT_WITH_SIZE should never reach here with empty spec -
		// the validator should reject an ambiguous empty-cost reduction before
		// booking is attempted under either method.
		panic(fmt.Sprintf("%s booking with empty spec {} should be rejected by validator (validator bug)", bookingMethod))
	default:
		// Should never reach here - validator should have caught unsupported methods
		panic(fmt.Sprintf("unsupported booking method %q after validation (validator bug)", bookingMethod))
	}

	// Reduce from lots in booking method order
	remaining := amount
	var matched []MatchedLot
	for _, lot := range sortedLots {
		if remaining.IsZero() {
			break
		}

		if lot.Amount.GreaterThanOrEqual(remaining) {
			// This lot has enough
			matched = append(matched, matchedLotFrom(lot, remaining))
			lot.Amount = lot.Amount.Sub(remaining)
			if lot.Amount.IsZero() {
				inv.removeLot(commodity, lot)
			}
			remaining = decimal.Zero
		} else {
			// Take all from this lot
			matched = append(matched, matchedLotFrom(lot, lot.Amount))
			remaining = remaining.Sub(lot.Amount)
			lot.Amount = decimal.Zero
			inv.removeLot(commodity, lot)
		}
	}

	if !remaining.IsZero() {
		return nil, &errInsufficientUnits{commodity: commodity, requested: amount, available: amount.Sub(remaining)}
	}

	return matched, nil
}

// reduceWithAverage reduces using average cost basis
// After reduction, all lots are merged into a single lot with average cost
func (inv *Inventory) reduceWithAverage(commodity string, amount decimal.Decimal) ([]MatchedLot, error) {
	lots := inv.lots[commodity]

	// Calculate total amount and total cost basis
	totalAmount := decimal.Zero
	totalCost := decimal.Zero
	var costCurrency string
	hasCostedLots := false

	for _, lot := range lots {
		totalAmount = totalAmount.Add(lot.Amount)

		// Track cost basis if lots have cost
		if lot.Spec != nil && lot.Spec.Cost != nil {
			hasCostedLots = true
			costCurrency = lot.Spec.CostCurrency
			// Total cost = amount * cost per unit
			lotTotalCost := lot.Amount.Mul(*lot.Spec.Cost)
			totalCost = totalCost.Add(lotTotalCost)
		}
	}

	// Check if there's enough to reduce
	if totalAmount.LessThan(amount) {
		return nil, &errInsufficientUnits{commodity: commodity, requested: amount, available: totalAmount}
	}

	// Calculate remaining amount after reduction
	remainingAmount := totalAmount.Sub(amount)

	// Calculate average cost per unit if we have costed lots, before the
	// source lots are discarded -- this is also the cost basis reported for
	// the reduced amount.
	var avgSpec *lotSpec
	var avgCost *Cost
	if hasCostedLots && !totalCost.IsZero() && !totalAmount.IsZero() {
		perUnit := totalCost.Div(totalAmount)
		avgSpec = &lotSpec{
			Cost:         &perUnit,
			CostCurrency: costCurrency,
		}
		avgCost = &Cost{PerUnit: perUnit, Currency: costCurrency}
	}

	matched := []MatchedLot{{Commodity: commodity, Units: amount, Cost: avgCost}}

	// Remove all existing lots
	delete(inv.lots, commodity)

	// If nothing remains, we're done
	if remainingAmount.IsZero() {
		return matched, nil
	}

	// Create single lot with remaining amount at average cost
	inv.AddLot(commodity, remainingAmount, avgSpec)

	return matched, nil
}

// removeLot removes a lot from the inventory
func (inv *Inventory) removeLot(commodity string, lotToRemove *lot) {
	lots := inv.lots[commodity]
	newLots := make([]*lot, 0, len(lots)-1)
	for _, lot := range lots {
		if lot != lotToRemove {
			newLots = append(newLots, lot)
		}
	}
	if len(newLots) == 0 {
		delete(inv.lots, commodity)
	} else {
		inv.lots[commodity] = newLots
	}
}

// IsEmpty returns true if the inventory has no lots
func (inv *Inventory) IsEmpty() bool {
	return len(inv.lots) == 0
}

// Currencies returns all commodities in the inventory
func (inv *Inventory) Currencies() []string {
	currencies := make([]string, 0, len(inv.lots))
	for currency := range inv.lots {
		currencies = append(currencies, currency)
	}
	return currencies
}

// String returns a string representation of the inventory
func (inv *Inventory) String() string {
	if inv.IsEmpty() {
		return "{}"
	}

	var buf strings.Builder
	buf.WriteByte('{')

	first := true
	for commodity, lots := range inv.lots {
		for _, lot := range lots {
			if !first {
				buf.WriteString(", ")
			}
			if lot.Spec == nil || lot.Spec.IsEmpty() {
				buf.WriteString(lot.Amount.String())
				buf.WriteByte(' ')
				buf.WriteString(commodity)
			} else {
				buf.WriteString(lot.String())
			}
			first = false
		}
	}
	buf.WriteByte('}')
	return buf.String()
}

// lotSpecsMatch checks if two lot specs match
func lotSpecsMatch(a, b *lotSpec) bool {
	// Both nil
	if a == nil && b == nil {
		return true
	}

	// One nil, one not
	if a == nil || b == nil {
		return false
	}

	return a.Equal(b)
}
