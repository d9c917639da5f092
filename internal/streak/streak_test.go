// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package streak

import (
	"testing"
	"time"

	"github.com/bestfit-labs/coach-tui/internal/identity"
)

func trackerAt(store identity.Store, day string) *Tracker {
	t := New(store)
	parsed, _ := time.Parse(dateLayout, day)
	t.now = func() time.Time { return parsed }
	return t
}

func TestTracker_FirstVisit(t *testing.T) {
	store := identity.NewMemStore()
	tr := trackerAt(store, "2026-09-01")

	n, err := tr.Touch()
	if err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	if n != 1 {
		t.Errorf("streak = %d, want 1", n)
	}
}

func TestTracker_SameDayIsStable(t *testing.T) {
	store := identity.NewMemStore()
	tr := trackerAt(store, "2026-09-01")

	tr.Touch()
	n, _ := tr.Touch()
	if n != 1 {
		t.Errorf("streak = %d after repeat visit, want 1", n)
	}
}

func TestTracker_ConsecutiveDaysExtend(t *testing.T) {
	store := identity.NewMemStore()

	trackerAt(store, "2026-09-01").Touch()
	trackerAt(store, "2026-09-02").Touch()
	n, _ := trackerAt(store, "2026-09-03").Touch()

	if n != 3 {
		t.Errorf("streak = %d, want 3", n)
	}
}

func TestTracker_GapResets(t *testing.T) {
	store := identity.NewMemStore()

	trackerAt(store, "2026-09-01").Touch()
	trackerAt(store, "2026-09-02").Touch()
	n, _ := trackerAt(store, "2026-09-05").Touch()

	if n != 1 {
		t.Errorf("streak = %d after gap, want 1", n)
	}
}

func TestTracker_MonthBoundary(t *testing.T) {
	store := identity.NewMemStore()

	trackerAt(store, "2026-08-31").Touch()
	n, _ := trackerAt(store, "2026-09-01").Touch()

	if n != 2 {
		t.Errorf("streak = %d across month boundary, want 2", n)
	}
}

func TestTracker_BestSurvivesReset(t *testing.T) {
	store := identity.NewMemStore()

	trackerAt(store, "2026-09-01").Touch()
	trackerAt(store, "2026-09-02").Touch()
	trackerAt(store, "2026-09-03").Touch()

	// Streak breaks, then a single fresh visit.
	trackerAt(store, "2026-09-10").Touch()

	tr := trackerAt(store, "2026-09-10")
	if n, _ := tr.Current(); n != 1 {
		t.Errorf("Current = %d after reset, want 1", n)
	}
	if best, _ := tr.Best(); best != 3 {
		t.Errorf("Best = %d, want 3", best)
	}
}

func TestTracker_CurrentDoesNotRecord(t *testing.T) {
	store := identity.NewMemStore()
	tr := trackerAt(store, "2026-09-01")

	if n, _ := tr.Current(); n != 0 {
		t.Errorf("Current = %d before any visit, want 0", n)
	}

	tr.Touch()
	if n, _ := tr.Current(); n != 1 {
		t.Errorf("Current = %d, want 1", n)
	}

	// A broken streak reads as 0 without Touch.
	later := trackerAt(store, "2026-09-10")
	if n, _ := later.Current(); n != 0 {
		t.Errorf("Current = %d after gap, want 0", n)
	}
}
