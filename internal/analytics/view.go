package analytics

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/trace"
)

// Snapshot is what an analytics screen renders: the filtered records and
// their summary under the current criteria.
type Snapshot struct {
	Criteria Criteria       `json:"criteria" yaml:"criteria"`
	Total    int            `json:"total" yaml:"total"`
	Records  []trace.Record `json:"traces" yaml:"-"`
	Summary  Summary        `json:"stats" yaml:"stats"`
}

// View holds the record set and criteria behind an analytics screen and
// recomputes its snapshot whenever either changes. Subscribers are called
// with the new snapshot after each change. Safe for concurrent use.
type View struct {
	lister trace.Lister
	now    func() time.Time

	mu       sync.Mutex
	records  []trace.Record
	criteria Criteria
	subs     map[int]func(Snapshot)
	nextSub  int
}

// NewView creates an empty view that loads records from l.
func NewView(l trace.Lister) *View {
	return &View{
		lister:   l,
		now:      time.Now,
		criteria: AllCriteria(),
		subs:     map[int]func(Snapshot){},
	}
}

// Subscribe registers fn for change notifications. The returned func
// removes the subscription.
func (v *View) Subscribe(fn func(Snapshot)) (cancel func()) {
	v.mu.Lock()
	id := v.nextSub
	v.nextSub++
	v.subs[id] = fn
	v.mu.Unlock()
	return func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
}

// Load fetches all records; a failed fetch yields an empty record set.
// Subscribers are notified only if the record set changed.
func (v *View) Load(ctx context.Context) Snapshot {
	recs := trace.ListOrEmpty(ctx, v.lister)

	v.mu.Lock()
	changed := !sameRecords(v.records, recs)
	if changed {
		v.records = recs
	}
	return v.commit(changed)
}

// SetCriteria replaces the criteria, notifying subscribers if they differ.
func (v *View) SetCriteria(c Criteria) Snapshot {
	v.mu.Lock()
	changed := v.criteria != c
	v.criteria = c
	return v.commit(changed)
}

// Reset drops the loaded records, e.g. after the store was cleared.
func (v *View) Reset() Snapshot {
	v.mu.Lock()
	changed := len(v.records) > 0
	v.records = nil
	return v.commit(changed)
}

// Snapshot returns the current filtered records and summary.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// commit must be called with v.mu held; it releases the lock before
// invoking subscribers.
func (v *View) commit(changed bool) Snapshot {
	snap := v.snapshotLocked()
	var subs []func(Snapshot)
	if changed {
		for _, fn := range v.subs {
			subs = append(subs, fn)
		}
	}
	v.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return snap
}

func (v *View) snapshotLocked() Snapshot {
	filtered := FilterAt(v.records, v.criteria, v.now())
	return Snapshot{
		Criteria: v.criteria,
		Total:    len(v.records),
		Records:  filtered,
		Summary:  Aggregate(filtered),
	}
}

// sameRecords compares by id sequence; records are immutable once written.
func sameRecords(a, b []trace.Record) bool {
	return slices.EqualFunc(a, b, func(x, y trace.Record) bool { return x.ID == y.ID })
}
