// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package streak tracks consecutive daily visits for display.
package streak

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bestfit-labs/coach-tui/internal/identity"
)

// Store keys. The streak shares the identity store so all local client
// state lives in one file.
const (
	keyLastVisit = "streak_last_visit"
	keyCount     = "streak_count"
	keyBest      = "streak_best"
)

const dateLayout = "2006-01-02"

// Tracker maintains a date-based visit streak. Purely cosmetic: it is
// computed locally and never sent to the backend.
type Tracker struct {
	store identity.Store
	now   func() time.Time
}

// New creates a tracker over the given store.
func New(store identity.Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// Touch records a visit today and returns the current streak length.
//
//   - first visit ever: streak 1
//   - visited yesterday: streak + 1
//   - visited today already: unchanged
//   - gap of more than one day: reset to 1
func (t *Tracker) Touch() (int, error) {
	today := t.now().Format(dateLayout)

	last, hasLast, err := t.store.Get(keyLastVisit)
	if err != nil {
		return 0, fmt.Errorf("failed to read last visit: %w", err)
	}

	count := 0
	if raw, ok, err := t.store.Get(keyCount); err != nil {
		return 0, fmt.Errorf("failed to read streak: %w", err)
	} else if ok {
		count, _ = strconv.Atoi(raw)
	}

	switch {
	case !hasLast:
		count = 1
	case last == today:
		if count < 1 {
			count = 1
		}
	case isYesterday(last, today):
		count++
	default:
		count = 1
	}

	if err := t.store.Set(keyLastVisit, today); err != nil {
		return 0, fmt.Errorf("failed to record visit: %w", err)
	}
	if err := t.store.Set(keyCount, strconv.Itoa(count)); err != nil {
		return 0, fmt.Errorf("failed to record streak: %w", err)
	}

	if best, _ := t.Best(); count > best {
		if err := t.store.Set(keyBest, strconv.Itoa(count)); err != nil {
			return 0, fmt.Errorf("failed to record best streak: %w", err)
		}
	}
	return count, nil
}

// Best returns the longest streak ever recorded.
func (t *Tracker) Best() (int, error) {
	raw, ok, err := t.store.Get(keyBest)
	if err != nil || !ok {
		return 0, err
	}
	best, _ := strconv.Atoi(raw)
	return best, nil
}

// Current returns the streak length without recording a visit. A streak
// broken by a missed day reads as 0 until the next Touch.
func (t *Tracker) Current() (int, error) {
	last, ok, err := t.store.Get(keyLastVisit)
	if err != nil {
		return 0, fmt.Errorf("failed to read last visit: %w", err)
	}
	if !ok {
		return 0, nil
	}

	today := t.now().Format(dateLayout)
	if last != today && !isYesterday(last, today) {
		return 0, nil
	}

	raw, ok, err := t.store.Get(keyCount)
	if err != nil || !ok {
		return 0, err
	}
	count, _ := strconv.Atoi(raw)
	return count, nil
}

// isYesterday reports whether prev is the calendar day before cur.
func isYesterday(prev, cur string) bool {
	p, err := time.Parse(dateLayout, prev)
	if err != nil {
		return false
	}
	c, err := time.Parse(dateLayout, cur)
	if err != nil {
		return false
	}
	return p.AddDate(0, 0, 1).Equal(c)
}
