package cron

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule yields the next run time strictly after a given instant.
type Schedule interface {
	Next(after time.Time) time.Time
	String() string
}

type everySchedule struct {
	interval time.Duration
}

// Every runs a job at a fixed interval measured from the previous run.
func Every(interval time.Duration) Schedule {
	if interval <= 0 {
		interval = time.Minute
	}
	return everySchedule{interval: interval}
}

func (e everySchedule) Next(after time.Time) time.Time {
	return after.Add(e.interval)
}

func (e everySchedule) String() string {
	return "every " + e.interval.String()
}

type dailySchedule struct {
	hour     int
	minute   int
	location *time.Location
}

// DailyAt runs a job once a day at the given HH:MM wall-clock time in loc (UTC when nil).
func DailyAt(clock string, loc *time.Location) (Schedule, error) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("daily schedule %q must be HH:MM", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return nil, fmt.Errorf("daily schedule %q has invalid hour", clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("daily schedule %q has invalid minute", clock)
	}
	if loc == nil {
		loc = time.UTC
	}
	return dailySchedule{hour: hour, minute: minute, location: loc}, nil
}

func (d dailySchedule) Next(after time.Time) time.Time {
	local := after.In(d.location)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.hour, d.minute, 0, 0, d.location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (d dailySchedule) String() string {
	return fmt.Sprintf("daily at %02d:%02d %s", d.hour, d.minute, d.location)
}
