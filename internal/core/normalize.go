package core

import "strings"

// NormalizeOrigin maps free-form origin input onto an Origin. It never
// fails: anything unrecognized belongs to the store.
func NormalizeOrigin(raw string) Origin {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case lower == "":
		return OriginStore
	case strings.HasPrefix(lower, "trans"):
		return OriginTransport
	case strings.HasPrefix(lower, "shared"), strings.HasPrefix(lower, "compart"):
		return OriginShared
	default:
		return OriginStore
	}
}

// NormalizeBank recognizes the two banks the business works with and
// passes any other value through unchanged.
func NormalizeBank(raw string) Bank {
	if strings.TrimSpace(raw) == "" {
		return BankBradesco
	}
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "caix"):
		return BankCaixa
	case strings.Contains(lower, "brad"):
		return BankBradesco
	default:
		return Bank(raw)
	}
}

// NormalizeChequeStatus only accepts the exact string "compensado" as
// cleared.
func NormalizeChequeStatus(raw string) ChequeStatus {
	if raw == string(ChequeCompensado) {
		return ChequeCompensado
	}
	return ChequePending
}

// NormalizeCategory keeps the known revenue categories and folds the
// rest into "other".
func NormalizeCategory(raw string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(raw))); c {
	case CategorySales, CategoryServices:
		return c
	case "":
		return CategorySales
	default:
		return CategoryOther
	}
}
