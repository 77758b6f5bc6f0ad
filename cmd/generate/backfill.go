package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"astrofeed/internal/domain/entity"
	"astrofeed/internal/usecase/generate"
)

// maxDays bounds one backfill run.
const maxDays = 31

// options are the parsed command-line flags.
type options struct {
	Kinds []entity.Kind
	From  entity.Period
	To    entity.Period
}

// parseArgs parses the flags. An empty -from or -to means today in loc.
func parseArgs(args []string, today entity.Period, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("astrofeed-generate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var kind, from, to string
	fs.StringVar(&kind, "kind", "all", "Content to generate: horoscopes, articles or all")
	fs.StringVar(&from, "from", "", "First date to generate, YYYY-MM-DD (default: today)")
	fs.StringVar(&to, "to", "", "Last date to generate, YYYY-MM-DD (default: -from)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	var opts options
	switch kind {
	case "horoscopes":
		opts.Kinds = []entity.Kind{entity.KindHoroscope}
	case "articles":
		opts.Kinds = []entity.Kind{entity.KindArticle}
	case "all":
		opts.Kinds = []entity.Kind{entity.KindHoroscope, entity.KindArticle}
	default:
		return options{}, fmt.Errorf("%w: unknown kind %q, must be horoscopes, articles or all", entity.ErrInvalidInput, kind)
	}

	opts.From = today
	if from != "" {
		p, err := entity.ParsePeriod(from)
		if err != nil {
			return options{}, fmt.Errorf("-from: %w", err)
		}
		opts.From = p
	}
	opts.To = opts.From
	if to != "" {
		p, err := entity.ParsePeriod(to)
		if err != nil {
			return options{}, fmt.Errorf("-to: %w", err)
		}
		opts.To = p
	}

	if opts.To.Time().Before(opts.From.Time()) {
		return options{}, fmt.Errorf("%w: -to %s is before -from %s", entity.ErrInvalidInput, opts.To, opts.From)
	}
	if days := int(opts.To.Time().Sub(opts.From.Time()).Hours()/24) + 1; days > maxDays {
		return options{}, fmt.Errorf("%w: %d days requested, must be at most %d", entity.ErrInvalidInput, days, maxDays)
	}
	return opts, nil
}

// periods lists every period from from to to inclusive.
func periods(from, to entity.Period) []entity.Period {
	var out []entity.Period
	for p := from; !p.Time().After(to.Time()); p = p.AddDays(1) {
		out = append(out, p)
	}
	return out
}

// cycleRunner is the part of the orchestrator backfill needs.
type cycleRunner interface {
	RunCycle(ctx context.Context, plan generate.Plan, period entity.Period) generate.CycleSummary
}

// backfill runs one cycle per plan and period, oldest period first. A failed
// cycle does not stop the rest; every failure is joined into the result.
func backfill(ctx context.Context, runner cycleRunner, plans []generate.Plan, days []entity.Period, logger *slog.Logger) error {
	start := time.Now()
	var errs []error
	generated := 0

	for _, period := range days {
		for _, plan := range plans {
			if err := ctx.Err(); err != nil {
				return errors.Join(append(errs, err)...)
			}

			summary := runner.RunCycle(ctx, plan, period)
			generated += summary.Generated
			if err := summary.Err(); err != nil {
				logger.Error("cycle failed", slog.Any("summary", summary))
				errs = append(errs, err)
				continue
			}
			logger.Info("cycle finished", slog.Any("summary", summary))
		}
	}

	logger.Info("backfill finished",
		slog.Int("periods", len(days)),
		slog.Int("generated", generated),
		slog.Int("failed_cycles", len(errs)),
		slog.Duration("duration", time.Since(start)))
	return errors.Join(errs...)
}
