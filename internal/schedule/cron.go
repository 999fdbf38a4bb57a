// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cron is a parsed 5-field cron expression. Each field is a bit set.
type Cron struct {
	expr     string
	minute   uint64 // bits 0-59
	hour     uint64 // bits 0-23
	dom      uint64 // bits 1-31
	month    uint64 // bits 1-12
	dow      uint64 // bits 0-6, 0 = Sunday
	domStar  bool
	dowStar  bool
	location *time.Location
}

// ParseCron parses a cron expression evaluated in UTC.
func ParseCron(expr string) (*Cron, error) {
	return ParseCronIn(expr, time.UTC)
}

// ParseCronIn parses a cron expression evaluated in loc.
//
// Format: minute hour day-of-month month day-of-week
func ParseCronIn(expr string, loc *time.Location) (*Cron, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron expression must have 5 fields, got %d", len(fields))
	}
	if loc == nil {
		loc = time.UTC
	}

	c := &Cron{expr: strings.Join(fields, " "), location: loc}
	specs := []struct {
		name     string
		dst      *uint64
		min, max int
	}{
		{"minute", &c.minute, 0, 59},
		{"hour", &c.hour, 0, 23},
		{"day-of-month", &c.dom, 1, 31},
		{"month", &c.month, 1, 12},
		{"day-of-week", &c.dow, 0, 7},
	}
	for i, spec := range specs {
		set, err := parseField(fields[i], spec.min, spec.max)
		if err != nil {
			return nil, fmt.Errorf("invalid %s field: %w", spec.name, err)
		}
		*spec.dst = set
	}

	// Day 7 is Sunday.
	if c.dow&(1<<7) != 0 {
		c.dow = (c.dow &^ (1 << 7)) | 1
	}
	c.domStar = fields[2] == "*"
	c.dowStar = fields[4] == "*"
	return c, nil
}

func (c *Cron) String() string {
	return c.expr
}

// Next implements Schedule. It returns the zero time if nothing matches in
// the next five years (e.g. "0 0 31 2 *").
func (c *Cron) Next(after time.Time) time.Time {
	t := after.In(c.location).Truncate(time.Minute).Add(time.Minute)
	limit := t.AddDate(5, 0, 0)

	for t.Before(limit) {
		if !has(c.month, int(t.Month())) {
			t = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, c.location)
			continue
		}
		if !c.dayMatches(t) {
			t = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, c.location)
			continue
		}
		if !has(c.hour, t.Hour()) {
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, c.location)
			continue
		}
		if !has(c.minute, t.Minute()) {
			t = t.Add(time.Minute)
			continue
		}
		return t
	}
	return time.Time{}
}

func (c *Cron) dayMatches(t time.Time) bool {
	domMatch := has(c.dom, t.Day())
	dowMatch := has(c.dow, int(t.Weekday()))
	switch {
	case c.domStar && c.dowStar:
		return true
	case c.domStar:
		return dowMatch
	case c.dowStar:
		return domMatch
	default:
		return domMatch || dowMatch
	}
}

func has(set uint64, v int) bool {
	return set&(1<<uint(v)) != 0
}

func parseField(field string, minVal, maxVal int) (uint64, error) {
	var set uint64
	for _, part := range strings.Split(field, ",") {
		s, err := parsePart(part, minVal, maxVal)
		if err != nil {
			return 0, err
		}
		set |= s
	}
	return set, nil
}

func parsePart(part string, minVal, maxVal int) (uint64, error) {
	if part == "" {
		return 0, fmt.Errorf("empty value")
	}

	step := 1
	if base, stepStr, ok := strings.Cut(part, "/"); ok {
		n, err := strconv.Atoi(stepStr)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid step value: %s", stepStr)
		}
		step = n
		part = base
	}

	lo, hi := minVal, maxVal
	switch {
	case part == "*":
	case strings.Contains(part, "-"):
		startStr, endStr, _ := strings.Cut(part, "-")
		var err error
		if lo, err = strconv.Atoi(startStr); err != nil {
			return 0, fmt.Errorf("invalid range start: %s", startStr)
		}
		if hi, err = strconv.Atoi(endStr); err != nil {
			return 0, fmt.Errorf("invalid range end: %s", endStr)
		}
	default:
		v, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("invalid value: %s", part)
		}
		lo = v
		if step == 1 {
			hi = v
		}
	}

	if lo < minVal || hi > maxVal || lo > hi {
		return 0, fmt.Errorf("value out of range: %d-%d (allowed %d-%d)", lo, hi, minVal, maxVal)
	}

	var set uint64
	for v := lo; v <= hi; v += step {
		set |= 1 << uint(v)
	}
	return set, nil
}
