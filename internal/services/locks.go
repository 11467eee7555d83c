// Package services – per-debtor serialization.
//
// Correlation must read-select-then-write atomically within one debtor's
// timeline: two concurrently arriving replies could otherwise both bind to
// the same outstanding reminder. DebtorLocks provides the per-debtor
// exclusive section; operations across different debtors stay concurrent.
package services

import "sync"

// lockEntry is one debtor's mutex plus a reference count used to evict the
// entry once no goroutine holds or waits on it, keeping the map bounded.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// DebtorLocks is a keyed mutex set, safe for concurrent use.
type DebtorLocks struct {
	mu sync.Mutex
	m  map[string]*lockEntry
}

// NewDebtorLocks returns an empty lock set.
func NewDebtorLocks() *DebtorLocks {
	return &DebtorLocks{m: make(map[string]*lockEntry)}
}

// Lock acquires the exclusive section for debtorID and returns the matching
// unlock function. The entry is dropped from the map when the last holder
// releases it.
func (l *DebtorLocks) Lock(debtorID string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.m[debtorID]
	if !ok {
		e = &lockEntry{}
		l.m[debtorID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, debtorID)
		}
		l.mu.Unlock()
	}
}
