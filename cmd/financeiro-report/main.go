// Command financeiro-report computes reports from a ledger file without a
// server: JSON on stdout, or an XLSX workbook with -xlsx.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"financeiro/internal/export"
	"financeiro/internal/finance"
	"financeiro/internal/ledger/file"
	"financeiro/internal/log"
	"financeiro/internal/services"
)

var reportKinds = []string{
	services.KindDRE, services.KindCashFlow, services.KindLoans,
	services.KindMonthly, services.KindOverdue, services.KindDashboard, "all",
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "financeiro-report:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("financeiro-report", flag.ContinueOnError)
	dataFile := fs.String("file", "./data/ledger.json", "Ledger JSON file")
	start := fs.String("start", "", "Optional: period start (YYYY-MM-DD)")
	end := fs.String("end", "", "Optional: period end (YYYY-MM-DD)")
	kind := fs.String("report", "all", "Report: "+strings.Join(reportKinds, ", "))
	xlsxOut := fs.String("xlsx", "", "Optional: write an XLSX workbook to this path instead of JSON")
	verbose := fs.Bool("v", false, "Log to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	period, err := finance.ParsePeriod(*start, *end)
	if err != nil {
		return err
	}
	if _, err := os.Stat(*dataFile); err != nil {
		return fmt.Errorf("ledger file: %w", err)
	}

	logger := log.Discard()
	if *verbose {
		cfg := log.DefaultConfig()
		cfg.Output = os.Stderr
		cfg.Level = log.ParseLevel("debug")
		logger = log.New(cfg)
	}
	reports := services.NewReportService(file.New(*dataFile), nil, nil, logger)

	if *xlsxOut != "" {
		r, err := reports.Report(ctx, period)
		if err != nil {
			return err
		}
		if err := export.SaveAs(*xlsxOut, r); err != nil {
			return err
		}
		fmt.Fprintln(stdout, *xlsxOut)
		return nil
	}

	out, err := compute(ctx, reports, *kind, period)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func compute(ctx context.Context, reports *services.ReportService, kind string, p finance.Period) (any, error) {
	switch kind {
	case services.KindDRE:
		return reports.DRE(ctx, p)
	case services.KindCashFlow:
		return reports.CashFlow(ctx, p)
	case services.KindLoans:
		return reports.Loans(ctx)
	case services.KindMonthly:
		return reports.Monthly(ctx)
	case services.KindOverdue:
		return reports.Overdue(ctx)
	case services.KindDashboard:
		return reports.Dashboard(ctx)
	case "all":
		all := make(map[string]any, len(reportKinds)-1)
		for _, k := range reportKinds[:len(reportKinds)-1] {
			v, err := compute(ctx, reports, k, p)
			if err != nil {
				return nil, err
			}
			all[k] = v
		}
		return all, nil
	default:
		return nil, fmt.Errorf("unknown report %q (want one of %s)", kind, strings.Join(reportKinds, ", "))
	}
}
