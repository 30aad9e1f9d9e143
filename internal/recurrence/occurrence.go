package recurrence

import (
	"time"
)

// MaxOccurrencesPerRun caps how many instants one generation run may yield,
// so a malformed or unbounded rule cannot stall the expansion job.
const MaxOccurrencesPerRun = 100

// Iterator walks the occurrence instants implied by a rule, starting at the
// master appointment's start time and advancing by the rule's interval.
// It terminates at the generation horizon, at the rule's UNTIL bound, or at
// the safety cap, whichever comes first.
type Iterator struct {
	rule       *Rule
	next       time.Time
	horizon    time.Time
	produced   int
	capReached bool
}

// Iterate returns an iterator over the rule's occurrences in [start, horizon].
func (r *Rule) Iterate(start, horizon time.Time) *Iterator {
	return &Iterator{
		rule:    r,
		next:    start.UTC(),
		horizon: horizon.UTC(),
	}
}

// Next returns the next occurrence instant, or false when the sequence is
// exhausted.
func (it *Iterator) Next() (time.Time, bool) {
	if it.capReached || it.next.After(it.horizon) {
		return time.Time{}, false
	}
	if it.rule.Until != nil && it.next.After(*it.rule.Until) {
		return time.Time{}, false
	}
	if it.produced >= MaxOccurrencesPerRun {
		it.capReached = true
		return time.Time{}, false
	}

	occurrence := it.next
	it.produced++
	it.next = it.rule.advance(it.next)
	return occurrence, true
}

// CapReached reports whether iteration stopped early because the safety cap
// was hit rather than because the rule or horizon ran out.
func (it *Iterator) CapReached() bool {
	return it.capReached
}

// advance steps one interval forward using native date arithmetic. Month-end
// roll-over follows time.AddDate (Jan 31 + 1 month lands in early March).
func (r *Rule) advance(t time.Time) time.Time {
	switch r.Frequency {
	case Daily:
		return t.AddDate(0, 0, r.Interval)
	case Weekly:
		return t.AddDate(0, 0, 7*r.Interval)
	case Monthly:
		return t.AddDate(0, r.Interval, 0)
	case Yearly:
		return t.AddDate(r.Interval, 0, 0)
	}
	// ParseRule never produces another frequency; fall back to weekly like
	// the generation path always has.
	return t.AddDate(0, 0, 7*r.Interval)
}
