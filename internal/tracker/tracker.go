// Package tracker works out which assignments a member has not opened yet
// and summarizes assignment due dates. Every function is pure; callers pass
// the reference instant explicitly.
package tracker

import (
	"sync"
	"time"

	"qitt-service/internal/models"
)

// Viewed answers whether member has acknowledged record.
type Viewed interface {
	Viewed(memberID, recordID string) bool
}

type viewKey struct {
	member string
	record string
}

// ViewLog is an in-memory view log with at most one entry per
// (member, record) pair. The Postgres view log gives the same guarantee
// with an upsert.
type ViewLog struct {
	mu      sync.RWMutex
	entries map[viewKey]time.Time
}

func NewViewLog(entries ...models.ViewEntry) *ViewLog {
	l := &ViewLog{entries: make(map[viewKey]time.Time, len(entries))}
	for _, e := range entries {
		l.entries[viewKey{e.MemberID, e.RecordID}] = e.ViewedAt
	}

	return l
}

// MarkViewed upserts (memberID, recordID) -> now.
func (l *ViewLog) MarkViewed(memberID, recordID string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.entries == nil {
		l.entries = make(map[viewKey]time.Time)
	}
	l.entries[viewKey{memberID, recordID}] = now
}

func (l *ViewLog) Viewed(memberID, recordID string) bool {
	_, ok := l.ViewedAt(memberID, recordID)
	return ok
}

func (l *ViewLog) ViewedAt(memberID, recordID string) (time.Time, bool) {
	if l == nil {
		return time.Time{}, false
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	at, ok := l.entries[viewKey{memberID, recordID}]
	return at, ok
}

func (l *ViewLog) Len() int {
	if l == nil {
		return 0
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}

// UnviewedIDs returns the ids of records member has no view entry for.
// A record viewed once stays viewed even if it was edited afterwards.
func UnviewedIDs(memberID string, records []models.TrackedRecord, log Viewed) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, r := range records {
		if log == nil || !log.Viewed(memberID, r.ID) {
			ids[r.ID] = struct{}{}
		}
	}

	return ids
}

// Unviewed is UnviewedIDs as an ordered list of records.
func Unviewed(memberID string, records []models.TrackedRecord, log Viewed) []models.TrackedRecord {
	out := make([]models.TrackedRecord, 0)
	seen := make(map[string]struct{})
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}

		if log == nil || !log.Viewed(memberID, r.ID) {
			out = append(out, r)
		}
	}

	return out
}

func UnreadCount(memberID string, records []models.TrackedRecord, log Viewed) int {
	return len(UnviewedIDs(memberID, records, log))
}

type Stats struct {
	Total     int `json:"total"`
	Submitted int `json:"submitted"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
}

// ComputeStats splits records into submitted, overdue and pending.
// Unsubmitted records without a due date count as pending.
func ComputeStats(records []models.TrackedRecord, now time.Time) Stats {
	s := Stats{Total: len(records)}
	for _, r := range records {
		switch {
		case r.IsSubmitted:
			s.Submitted++
		case r.DueAt != nil && r.DueAt.Before(now):
			s.Overdue++
		default:
			s.Pending++
		}
	}

	return s
}

// UpcomingCount counts records due at or after now, submitted or not.
func UpcomingCount(records []models.TrackedRecord, now time.Time) int {
	n := 0
	for _, r := range records {
		if r.DueAt != nil && !r.DueAt.Before(now) {
			n++
		}
	}

	return n
}

// NextDue returns the record with the earliest due date at or after now.
// Ties go to the smallest id. Nil when nothing is due.
func NextDue(records []models.TrackedRecord, now time.Time) *models.TrackedRecord {
	var next *models.TrackedRecord
	for i := range records {
		r := &records[i]
		if r.DueAt == nil || r.DueAt.Before(now) {
			continue
		}

		if next == nil ||
			r.DueAt.Before(*next.DueAt) ||
			(r.DueAt.Equal(*next.DueAt) && r.ID < next.ID) {
			next = r
		}
	}

	if next == nil {
		return nil
	}

	out := *next
	return &out
}
