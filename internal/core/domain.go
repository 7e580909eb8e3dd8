package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OriginStore     Origin = "store"
	OriginTransport Origin = "transport"
	OriginShared    Origin = "shared"
)

const (
	BankBradesco Bank = "bradesco"
	BankCaixa    Bank = "caixa"
)

const (
	ChequePending    ChequeStatus = "pending"
	ChequeCompensado ChequeStatus = "compensado"
)

const (
	CategorySales    Category = "sales"
	CategoryServices Category = "services"
	CategoryOther    Category = "other"
)

type (
	// Origin is the business unit a record belongs to.
	Origin string

	// Bank identifies the issuing bank of a cheque. The set is open:
	// unknown banks are carried through unchanged.
	Bank string

	ChequeStatus string

	// Category is display-only and never used in calculations.
	Category string

	Date struct {
		time.Time
	}

	Revenue struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Value       decimal.Decimal `json:"value"`
		Origin      Origin          `json:"origin"`
		Category    Category        `json:"category"`
	}

	// DirectCost is a variable cost tied to production or operation volume.
	DirectCost struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Value       decimal.Decimal `json:"value"`
		Origin      Origin          `json:"origin"`
		Category    string          `json:"category"`
	}

	// OperationalExpense is a fixed cost independent of volume.
	OperationalExpense struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Value       decimal.Decimal `json:"value"`
		Origin      Origin          `json:"origin"`
	}

	AccountPayable struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		DueDate     Date            `json:"dueDate"`
		Description string          `json:"description"`
		Value       decimal.Decimal `json:"value"`
		Origin      Origin          `json:"origin"`
		Paid        bool            `json:"paid"`
		Notes       string          `json:"notes"`
	}

	AccountReceivable struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		DueDate     Date            `json:"dueDate"`
		Description string          `json:"description"`
		Value       decimal.Decimal `json:"value"`
		Origin      Origin          `json:"origin"`
		Received    bool            `json:"received"`
		Notes       string          `json:"notes"`
	}

	// Loan holds the stored fields of a loan. Balance, interest and the
	// suggested installment are derived on every read, never stored.
	Loan struct {
		ID                string          `json:"id"`
		Bank              string          `json:"bank"`
		LoanType          string          `json:"loanType"`
		TotalValue        decimal.Decimal `json:"totalValue"`
		TotalInstallments int             `json:"totalInstallments"`
		PaidInstallments  decimal.Decimal `json:"paidInstallments"`
		InstallmentValue  decimal.Decimal `json:"installmentValue"`
		InterestRate      decimal.Decimal `json:"interestRate"` // percent per period
		Origin            Origin          `json:"origin"`
		NextDue           Date            `json:"nextDue"`
	}

	Cheque struct {
		ID           string          `json:"id"`
		Payee        string          `json:"payee"`
		SerialNumber string          `json:"serialNumber"`
		IssueDate    Date            `json:"issueDate"`
		ClearingDate Date            `json:"clearingDate"`
		Value        decimal.Decimal `json:"value"`
		Status       ChequeStatus    `json:"status"`
		Bank         Bank            `json:"bank"`
		Origin       Origin          `json:"origin"`
		Notes        string          `json:"notes"`
	}

	// CostAllocation holds the percentage of shared amounts charged to
	// each unit. The two sides are applied independently and are not
	// required to sum to 100.
	CostAllocation struct {
		Store     decimal.Decimal `json:"store"`
		Transport decimal.Decimal `json:"transport"`
	}

	Settings struct {
		CostAllocation CostAllocation `json:"costAllocation"`
	}

	// Snapshot is a consistent, typed view of every ledger collection.
	// Calculations read it and never mutate it.
	Snapshot struct {
		Revenues            []Revenue            `json:"revenues"`
		DirectCosts         []DirectCost         `json:"directCosts"`
		OperationalExpenses []OperationalExpense `json:"operationalExpenses"`
		AccountsPayable     []AccountPayable     `json:"accountsPayable"`
		AccountsReceivable  []AccountReceivable  `json:"accountsReceivable"`
		Loans               []Loan               `json:"loans"`
		Cheques             []Cheque             `json:"cheques"`
		Settings            Settings             `json:"settings"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// DefaultCostAllocation splits shared amounts evenly.
func DefaultCostAllocation() CostAllocation {
	return CostAllocation{
		Store:     decimal.NewFromInt(50),
		Transport: decimal.NewFromInt(50),
	}
}

// NewSnapshot returns an empty snapshot with default settings.
func NewSnapshot() Snapshot {
	return Snapshot{Settings: Settings{CostAllocation: DefaultCostAllocation()}}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty reports whether the date is missing or could not be parsed.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// Or returns d, or fallback when d is empty.
func (d Date) Or(fallback Date) Date {
	if d.IsEmpty() {
		return fallback
	}
	return d
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseDate parses the date formats produced by HTML date inputs and
// ISO-8601 timestamps. Times without a zone are taken as UTC.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t.UTC()}, nil
		}
	}
	return Date{}, ErrInvalidDate
}

// String renders plain calendar dates as YYYY-MM-DD and anything with a
// time of day as RFC 3339.
func (d Date) String() string {
	if d.IsEmpty() {
		return ""
	}
	t := d.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339Nano)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON never fails on bad input: an unparseable date becomes
// an empty Date, which period filters exclude.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		*d = Date{}
		return nil
	}
	*d = parsed
	return nil
}

// Sanitize returns the cheque with bank, origin and status normalized.
func (c Cheque) Sanitize() Cheque {
	c.Bank = NormalizeBank(string(c.Bank))
	c.Origin = NormalizeOrigin(string(c.Origin))
	c.Status = NormalizeChequeStatus(string(c.Status))
	return c
}

// Cleared reports whether the bank has settled the cheque.
func (c Cheque) Cleared() bool {
	return c.Status == ChequeCompensado
}

// AccrualDate is the date the cheque is recognized as an expense.
func (c Cheque) AccrualDate() Date {
	return c.IssueDate.Or(c.ClearingDate)
}

// SettlementDate is the date the cheque leaves the bank account.
func (c Cheque) SettlementDate() Date {
	return c.ClearingDate.Or(c.IssueDate)
}
