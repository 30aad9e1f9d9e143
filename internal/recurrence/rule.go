package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Frequency is the unit an occurrence sequence advances by.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// untilLayout is the only accepted UNTIL timestamp form, e.g. 20241231T000000Z.
const untilLayout = "20060102T150405Z"

// ErrInvalidRule is returned for any recurrence rule string that cannot be
// parsed. Expansion for the owning appointment is skipped entirely.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// Rule is a parsed recurrence rule. Immutable once parsed; the raw string
// lives on the owning appointment and is re-parsed at each use.
type Rule struct {
	Frequency Frequency
	Interval  int
	Until     *time.Time
	// Count is parsed and validated but not enforced by generation; only
	// the horizon, UNTIL and the safety cap terminate a run.
	Count int
}

// ParseRule parses a semicolon-separated KEY=VALUE rule string such as
// "FREQ=WEEKLY;INTERVAL=2;UNTIL=20241231T000000Z". FREQ is required and
// case-insensitive; INTERVAL and COUNT must be positive integers; UNTIL must
// match the strict UTC timestamp layout. Unrecognized keys are ignored.
func ParseRule(raw string) (*Rule, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty rule string", ErrInvalidRule)
	}

	rule := &Rule{Interval: 1}

	for _, segment := range strings.Split(raw, ";") {
		key, value, found := strings.Cut(segment, "=")
		if !found {
			return nil, fmt.Errorf("%w: segment %q has no '='", ErrInvalidRule, segment)
		}

		switch key {
		case "FREQ":
			switch strings.ToLower(value) {
			case "daily":
				rule.Frequency = Daily
			case "weekly":
				rule.Frequency = Weekly
			case "monthly":
				rule.Frequency = Monthly
			case "yearly":
				rule.Frequency = Yearly
			default:
				return nil, fmt.Errorf("%w: unknown FREQ %q", ErrInvalidRule, value)
			}
		case "UNTIL":
			until, err := time.Parse(untilLayout, value)
			if err != nil {
				return nil, fmt.Errorf("%w: UNTIL %q does not match %s", ErrInvalidRule, value, untilLayout)
			}
			until = until.UTC()
			rule.Until = &until
		case "INTERVAL":
			interval, err := strconv.Atoi(value)
			if err != nil || interval <= 0 {
				return nil, fmt.Errorf("%w: INTERVAL %q is not a positive integer", ErrInvalidRule, value)
			}
			rule.Interval = interval
		case "COUNT":
			count, err := strconv.Atoi(value)
			if err != nil || count <= 0 {
				return nil, fmt.Errorf("%w: COUNT %q is not a positive integer", ErrInvalidRule, value)
			}
			rule.Count = count
		}
	}

	if rule.Frequency == "" {
		return nil, fmt.Errorf("%w: missing FREQ", ErrInvalidRule)
	}

	return rule, nil
}
