// Package ingest turns the flat JSON ledger document into a typed
// core.Snapshot and back.
//
// Malformed values inside a record are coerced (numbers to zero, unknown
// enums to their defaults, bad dates to empty). Only a document whose shape
// is wrong, such as a collection that is not an array, fails with
// ErrInvalidInput.
package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"financeiro/internal/core"
	"financeiro/internal/finance"
)

var ErrInvalidInput = errors.New("invalid input")

// Collection keys of the ledger document.
const (
	KeyRevenues            = "revenues"
	KeyDirectCosts         = "directCosts"
	KeyOperationalExpenses = "operationalExpenses"
	KeyAccountsPayable     = "accountsPayable"
	KeyAccountsReceivable  = "accountsReceivable"
	KeyLoans               = "loans"
	KeyCheques             = "cheques"
	KeySettings            = "settings"
)

// Parse decodes a ledger document.
func Parse(raw []byte) (core.Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return core.Snapshot{}, fmt.Errorf("%w: document must be a JSON object", ErrInvalidInput)
	}
	return FromMap(obj)
}

// FromMap converts an already decoded document. Numbers may be json.Number
// or any Go numeric type.
func FromMap(doc map[string]any) (core.Snapshot, error) {
	if doc == nil {
		return core.Snapshot{}, fmt.Errorf("%w: nil document", ErrInvalidInput)
	}

	s := core.NewSnapshot()
	var err error
	if s.Revenues, err = collect(doc, KeyRevenues, revenueFrom); err != nil {
		return core.Snapshot{}, err
	}
	if s.DirectCosts, err = collect(doc, KeyDirectCosts, directCostFrom); err != nil {
		return core.Snapshot{}, err
	}
	if s.OperationalExpenses, err = collect(doc, KeyOperationalExpenses, opExpenseFrom); err != nil {
		return core.Snapshot{}, err
	}
	if s.AccountsPayable, err = collect(doc, KeyAccountsPayable, payableFrom); err != nil {
		return core.Snapshot{}, err
	}
	if s.AccountsReceivable, err = collect(doc, KeyAccountsReceivable, receivableFrom); err != nil {
		return core.Snapshot{}, err
	}
	if s.Loans, err = collect(doc, KeyLoans, loanFrom); err != nil {
		return core.Snapshot{}, err
	}
	if s.Cheques, err = collect(doc, KeyCheques, SanitizeCheque); err != nil {
		return core.Snapshot{}, err
	}
	if s.Settings, err = settingsFrom(doc[KeySettings]); err != nil {
		return core.Snapshot{}, err
	}
	return s, nil
}

func collect[T any](doc map[string]any, key string, build func(map[string]any) T) ([]T, error) {
	v, ok := doc[key]
	if !ok || v == nil {
		return []T{}, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an array, got %T", ErrInvalidInput, key, v)
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] must be an object, got %T", ErrInvalidInput, key, i, item)
		}
		out = append(out, build(obj))
	}
	return out, nil
}

func settingsFrom(v any) (core.Settings, error) {
	settings := core.Settings{CostAllocation: core.DefaultCostAllocation()}
	if v == nil {
		return settings, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return core.Settings{}, fmt.Errorf("%w: settings must be an object, got %T", ErrInvalidInput, v)
	}
	alloc, ok := obj["costAllocation"].(map[string]any)
	if !ok {
		return settings, nil
	}
	r := record(alloc)
	if _, present := alloc["store"]; present {
		settings.CostAllocation.Store = r.number("store")
	}
	if _, present := alloc["transport"]; present {
		settings.CostAllocation.Transport = r.number("transport")
	}
	return settings, nil
}

func revenueFrom(m map[string]any) core.Revenue {
	r := record(m)
	return core.Revenue{
		ID:          r.id(),
		Date:        r.date("date"),
		Description: r.text("description"),
		Value:       r.number("value"),
		Origin:      core.NormalizeOrigin(r.text("origin")),
		Category:    core.NormalizeCategory(r.text("category")),
	}
}

func directCostFrom(m map[string]any) core.DirectCost {
	r := record(m)
	return core.DirectCost{
		ID:          r.id(),
		Date:        r.date("date"),
		Description: r.text("description"),
		Value:       r.number("value"),
		Origin:      core.NormalizeOrigin(r.text("origin")),
		Category:    r.text("category"),
	}
}

func opExpenseFrom(m map[string]any) core.OperationalExpense {
	r := record(m)
	return core.OperationalExpense{
		ID:          r.id(),
		Date:        r.date("date"),
		Description: r.text("description"),
		Value:       r.number("value"),
		Origin:      core.NormalizeOrigin(r.text("origin")),
	}
}

func payableFrom(m map[string]any) core.AccountPayable {
	r := record(m)
	return core.AccountPayable{
		ID:          r.id(),
		Date:        r.date("date"),
		DueDate:     r.date("dueDate"),
		Description: r.text("description"),
		Value:       r.number("value"),
		Origin:      core.NormalizeOrigin(r.text("origin")),
		Paid:        r.boolean("paid"),
		Notes:       r.text("notes"),
	}
}

func receivableFrom(m map[string]any) core.AccountReceivable {
	r := record(m)
	return core.AccountReceivable{
		ID:          r.id(),
		Date:        r.date("date"),
		DueDate:     r.date("dueDate"),
		Description: r.text("description"),
		Value:       r.number("value"),
		Origin:      core.NormalizeOrigin(r.text("origin")),
		Received:    r.boolean("received"),
		Notes:       r.text("notes"),
	}
}

func loanFrom(m map[string]any) core.Loan {
	r := record(m)
	return finance.SanitizeLoan(core.Loan{
		ID:                r.id(),
		Bank:              r.text("bank"),
		LoanType:          r.text("loanType"),
		TotalValue:        r.number("totalValue"),
		TotalInstallments: installments(r.number("totalInstallments")),
		PaidInstallments:  r.number("paidInstallments"),
		InstallmentValue:  r.number("installmentValue"),
		InterestRate:      r.number("interestRate"),
		Origin:            core.NormalizeOrigin(r.text("origin")),
		NextDue:           r.date("nextDue"),
	})
}

var maxInstallments = decimal.NewFromInt(math.MaxInt32)

// installments floors a raw count; anything below one becomes one.
func installments(raw decimal.Decimal) int {
	n := raw.Floor()
	switch {
	case n.LessThan(decimal.NewFromInt(1)):
		return 1
	case n.GreaterThan(maxInstallments):
		return math.MaxInt32
	}
	return int(n.IntPart())
}

// SanitizeCheque builds a cheque from a raw record: the value is coerced to
// a number and bank, origin and status are normalized.
func SanitizeCheque(m map[string]any) core.Cheque {
	r := record(m)
	return core.Cheque{
		ID:           r.id(),
		Payee:        r.text("payee"),
		SerialNumber: r.text("serialNumber"),
		IssueDate:    r.date("issueDate"),
		ClearingDate: r.date("clearingDate"),
		Value:        r.number("value"),
		Status:       core.ChequeStatus(r.text("status")),
		Bank:         core.Bank(r.text("bank")),
		Origin:       core.Origin(r.text("origin")),
		Notes:        r.text("notes"),
	}.Sanitize()
}
