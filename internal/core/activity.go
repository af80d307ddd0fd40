package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mkarlen/grist/internal/cache"
	"github.com/mkarlen/grist/internal/models"
)

// ActivityResult is a dense daily commit-count series over a lookback
// window. Days with no commits appear with a zero count; the visualization
// needs a continuous series.
type ActivityResult struct {
	Series []models.ActivityDay
	Total  int
}

const dayFormat = "2006-01-02"

// Activity buckets commit author dates from a single log query into a daily
// series covering the last `days` days, today included.
func (e *Engine) Activity(ctx context.Context, root string, days int) (*ActivityResult, error) {
	if days <= 0 {
		days = e.cfg.ActivityDays
	}
	key := activityPrefix(root) + strconv.Itoa(days)
	return cache.Cached(e.cache, key, e.cfg.ActivityTTL(), func() (*ActivityResult, error) {
		return e.activityUncached(ctx, root, days)
	})
}

// activitySince returns midnight of the first day in a `days`-long series
// ending today. Anchoring the log query there keeps the fetched commits
// aligned with the calendar-day buckets; a rolling "N days ago" cutoff would
// drop part of the first day and count commits outside the series.
func activitySince(now time.Time, days int) time.Time {
	first := now.AddDate(0, 0, -(days - 1))
	return time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, first.Location())
}

func (e *Engine) activityUncached(ctx context.Context, root string, days int) (*ActivityResult, error) {
	now := time.Now()
	res, err := e.git(ctx, root,
		"log",
		"--since="+activitySince(now, days).Format(time.RFC3339),
		"--format=%at")
	if err != nil {
		return nil, fmt.Errorf("failed to load commit activity: %w", err)
	}

	counts := make(map[string]int)
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		unix, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			continue
		}
		counts[time.Unix(unix, 0).Format(dayFormat)]++
	}

	series := make([]models.ActivityDay, 0, days)
	total := 0
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format(dayFormat)
		series = append(series, models.ActivityDay{Date: day, Count: counts[day]})
		total += counts[day]
	}

	return &ActivityResult{Series: series, Total: total}, nil
}
