package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// OpportunityArchiver moves aged opportunity rows to cold storage.
type OpportunityArchiver interface {
	ArchiveOpportunities(ctx context.Context, before time.Time) (int64, error)
}

// Archiver runs cold-storage archival on a cron schedule.
type Archiver struct {
	blob          OpportunityArchiver
	retentionDays int
	logger        *slog.Logger
}

// NewArchiver creates an Archiver keeping retentionDays of history in the
// primary store.
func NewArchiver(blob OpportunityArchiver, retentionDays int, logger *slog.Logger) *Archiver {
	return &Archiver{
		blob:          blob,
		retentionDays: retentionDays,
		logger:        logger.With(slog.String("component", "archive_cron")),
	}
}

// Run executes a single archive pass for everything older than the
// retention window.
func (a *Archiver) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-time.Duration(a.retentionDays) * 24 * time.Hour)
	a.logger.Info("starting archive run",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", a.retentionDays),
	)

	archived, err := a.blob.ArchiveOpportunities(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("pipeline: archiving opportunities before %v: %w", cutoff, err)
	}

	a.logger.Info("archive run complete", slog.Int64("archived", archived))
	return nil
}

// RunCron runs the archiver on a 5-field cron schedule
// ("minute hour day-of-month month day-of-week") until ctx is cancelled.
// "0 3 * * *" runs at 03:00 UTC daily.
func (a *Archiver) RunCron(ctx context.Context, cronExpr string) error {
	a.logger.Info("archiver cron started", slog.String("cron", cronExpr))

	for {
		next, err := nextCronTime(cronExpr, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("pipeline: parsing cron expression %q: %w", cronExpr, err)
		}

		a.logger.Info("archiver waiting for next trigger",
			slog.Time("next_run", next),
			slog.Duration("wait", time.Until(next)),
		)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			a.logger.Info("archiver cron stopped")
			return ctx.Err()
		case <-timer.C:
			if err := a.Run(ctx); err != nil {
				a.logger.Error("archive run failed", slog.String("error", err.Error()))
			}
		}
	}
}

// cronField is one parsed cron field.
type cronField struct {
	wildcard bool
	values   []int
}

func (f cronField) matches(val int) bool {
	if f.wildcard {
		return true
	}
	for _, v := range f.values {
		if v == val {
			return true
		}
	}
	return false
}

// parseCronField parses one field, e.g. "0", "*", or "1,15".
func parseCronField(field string) (cronField, error) {
	if field == "*" {
		return cronField{wildcard: true}, nil
	}

	parts := strings.Split(field, ",")
	values := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return cronField{}, fmt.Errorf("invalid cron field value %q: %w", p, err)
		}
		values = append(values, v)
	}
	return cronField{values: values}, nil
}

type parsedCron struct {
	minute     cronField
	hour       cronField
	dayOfMonth cronField
	month      cronField
	dayOfWeek  cronField
}

func (c parsedCron) matchesTime(t time.Time) bool {
	return c.minute.matches(t.Minute()) &&
		c.hour.matches(t.Hour()) &&
		c.dayOfMonth.matches(t.Day()) &&
		c.month.matches(int(t.Month())) &&
		c.dayOfWeek.matches(int(t.Weekday()))
}

func parseCron(expr string) (parsedCron, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return parsedCron{}, fmt.Errorf("cron expression must have 5 fields, got %d", len(fields))
	}

	var (
		cron parsedCron
		err  error
	)
	dests := []*cronField{&cron.minute, &cron.hour, &cron.dayOfMonth, &cron.month, &cron.dayOfWeek}
	names := []string{"minute", "hour", "day-of-month", "month", "day-of-week"}
	for i, field := range fields {
		*dests[i], err = parseCronField(field)
		if err != nil {
			return parsedCron{}, fmt.Errorf("parsing %s field: %w", names[i], err)
		}
	}
	return cron, nil
}

// nextCronTime finds the first minute after 'after' matching the
// expression, searching at most one year ahead.
func nextCronTime(cronExpr string, after time.Time) (time.Time, error) {
	cron, err := parseCron(cronExpr)
	if err != nil {
		return time.Time{}, err
	}

	candidate := after.Truncate(time.Minute).Add(time.Minute)
	limit := after.Add(366 * 24 * time.Hour)

	for candidate.Before(limit) {
		if cron.matchesTime(candidate) {
			return candidate, nil
		}
		candidate = candidate.Add(time.Minute)
	}

	return time.Time{}, fmt.Errorf("no matching cron time within one year for %q", cronExpr)
}
