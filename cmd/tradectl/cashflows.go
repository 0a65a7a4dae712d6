package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/wyfcoding/tradelifecycle/internal/trade/domain"
)

type cashflowOptions struct {
	start      string
	maturity   string
	notional   string
	rate       string
	legType    string
	schedule   string
	payReceive string
	currency   string
	bdc        string
	asJSON     bool
}

func addCashflowCommands(rootCmd *cobra.Command, _ *app) {
	rootCmd.AddCommand(newCashflowsCmd())
}

func newCashflowsCmd() *cobra.Command {
	var opts cashflowOptions
	cmd := &cobra.Command{
		Use:   "cashflows",
		Short: "Print the payment schedule of a swap leg without touching the database",
		Example: `  tradectl cashflows --start 2025-10-11 --maturity 2026-12-03 --notional 10000000 --rate 3.5
  tradectl cashflows --start 2026-01-31 --maturity 2026-12-31 --type Floating --schedule Monthly --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			leg, start, maturity, err := opts.leg()
			if err != nil {
				return err
			}
			flows, err := domain.NewCashflowGenerator(time.Now).Generate(leg, start, maturity)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(flows)
			}
			fmt.Fprintf(out, "%-12s %20s %10s %-8s %-9s\n", "VALUE DATE", "AMOUNT", "RATE", "PAY/REC", "TYPE")
			total := decimal.Zero
			for _, cf := range flows {
				rate := "-"
				if cf.Rate.Valid {
					rate = cf.Rate.Decimal.String()
				}
				fmt.Fprintf(out, "%-12s %20s %10s %-8s %-9s\n",
					cf.ValueDate.Format("2006-01-02"), cf.PaymentValue.StringFixed(2), rate, cf.PayReceive.Name, cf.PaymentType)
				total = total.Add(cf.PaymentValue)
			}
			fmt.Fprintf(out, "%d cashflows, total %s %s\n", len(flows), total.StringFixed(2), opts.currency)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.start, "start", "", "start date (yyyy-MM-dd)")
	f.StringVar(&opts.maturity, "maturity", "", "maturity date (yyyy-MM-dd)")
	f.StringVar(&opts.notional, "notional", "10000000", "notional amount")
	f.StringVar(&opts.rate, "rate", "", "fixed rate in percent, required for Fixed legs")
	f.StringVar(&opts.legType, "type", domain.LegRateFixed, "leg rate type: Fixed or Floating")
	f.StringVar(&opts.schedule, "schedule", "Quarterly", "calculation schedule, e.g. Monthly, Quarterly, 6M")
	f.StringVar(&opts.payReceive, "pay-receive", "Pay", "Pay or Receive")
	f.StringVar(&opts.currency, "currency", "USD", "leg currency")
	f.StringVar(&opts.bdc, "bdc", "", "payment business day convention")
	f.BoolVar(&opts.asJSON, "json", false, "output JSON")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("maturity")
	return cmd
}

func (o cashflowOptions) leg() (domain.TradeLeg, time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", o.start)
	if err != nil {
		return domain.TradeLeg{}, time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
	}
	maturity, err := time.Parse("2006-01-02", o.maturity)
	if err != nil {
		return domain.TradeLeg{}, time.Time{}, time.Time{}, fmt.Errorf("invalid --maturity: %w", err)
	}
	if maturity.Before(start) {
		return domain.TradeLeg{}, time.Time{}, time.Time{}, fmt.Errorf("maturity %s is before start %s", o.maturity, o.start)
	}
	notional, err := decimal.NewFromString(o.notional)
	if err != nil {
		return domain.TradeLeg{}, time.Time{}, time.Time{}, fmt.Errorf("invalid --notional: %w", err)
	}
	var rate decimal.NullDecimal
	if o.rate != "" {
		r, err := decimal.NewFromString(o.rate)
		if err != nil {
			return domain.TradeLeg{}, time.Time{}, time.Time{}, fmt.Errorf("invalid --rate: %w", err)
		}
		rate = decimal.NewNullDecimal(r)
	}
	leg := domain.TradeLeg{
		Notional:            notional,
		Rate:                rate,
		Currency:            domain.RefEntity{Name: o.currency, Active: true},
		LegRateType:         domain.RefEntity{Name: o.legType, Active: true},
		CalculationSchedule: domain.RefEntity{Name: o.schedule, Active: true},
		PayReceive:          domain.RefEntity{Name: o.payReceive, Active: true},
		PaymentBDC:          domain.RefEntity{Name: o.bdc},
	}
	return leg, start, maturity, nil
}
