package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRuleFull(t *testing.T) {
	rule, err := ParseRule("FREQ=WEEKLY;INTERVAL=2;UNTIL=20241231T000000Z;COUNT=10")
	require.NoError(t, err)

	assert.Equal(t, Weekly, rule.Frequency)
	assert.Equal(t, 2, rule.Interval)
	assert.Equal(t, 10, rule.Count)
	require.NotNil(t, rule.Until)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), *rule.Until)
}

func TestParseRuleFrequencyCaseInsensitive(t *testing.T) {
	for _, raw := range []string{"FREQ=daily", "FREQ=Daily", "FREQ=DAILY"} {
		rule, err := ParseRule(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, Daily, rule.Frequency)
	}
}

func TestParseRuleDefaultInterval(t *testing.T) {
	rule, err := ParseRule("FREQ=MONTHLY")
	require.NoError(t, err)
	assert.Equal(t, 1, rule.Interval)
	assert.Nil(t, rule.Until)
	assert.Zero(t, rule.Count)
}

func TestParseRuleErrors(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"blank":            "   ",
		"missing freq":     "INTERVAL=2",
		"unknown freq":     "FREQ=HOURLY",
		"segment no equal": "FREQ=DAILY;INTERVAL",
		"interval zero":    "FREQ=DAILY;INTERVAL=0",
		"interval neg":     "FREQ=DAILY;INTERVAL=-1",
		"interval text":    "FREQ=DAILY;INTERVAL=two",
		"count zero":       "FREQ=DAILY;COUNT=0",
		"count text":       "FREQ=DAILY;COUNT=x",
		"until date only":  "FREQ=DAILY;UNTIL=20241231",
		"until rfc3339":    "FREQ=DAILY;UNTIL=2024-12-31T00:00:00Z",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRule(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}
}

func TestParseRuleIgnoresUnknownKeys(t *testing.T) {
	rule, err := ParseRule("FREQ=WEEKLY;BYDAY=MO;WKST=SU")
	require.NoError(t, err)
	assert.Equal(t, Weekly, rule.Frequency)
}

func TestParseRuleLowercaseKeysRejected(t *testing.T) {
	// Keys are matched exactly; only values are case-insensitive.
	_, err := ParseRule("freq=WEEKLY")
	assert.ErrorIs(t, err, ErrInvalidRule)
}
