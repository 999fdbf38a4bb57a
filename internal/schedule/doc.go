// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

// Package schedule computes flow run times.
//
// Two schedule kinds exist, both implementing Schedule:
//
//   - Interval fires every fixed duration, aligned to an anchor time.
//     The training flow uses a 10080 minute (weekly) interval.
//   - Cron fires on a standard 5-field cron expression. The staging flow
//     uses "0 9 1 * *", 09:00 on the first day of every month.
//
// Cron syntax supports "*", single values, ranges ("1-5"), lists
// ("1,15") and steps ("*/15", "0-30/5"). Day 7 is accepted as Sunday.
// When both day-of-month and day-of-week are restricted, a time matches
// if either does.
package schedule
