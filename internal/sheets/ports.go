package sheets

import (
	"context"

	"financeiro/internal/finance"
)

// Ports for outbound report adapters.
type (
	// ReportWriter publishes the monthly resume somewhere people read it,
	// replacing whatever an earlier export wrote.
	ReportWriter interface {
		WriteMonthlyResume(ctx context.Context, months []finance.MonthSummary) (ref string, err error)
	}
)
