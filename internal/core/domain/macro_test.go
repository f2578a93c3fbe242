package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func TestReplaceMacrosNoPlaceholders(t *testing.T) {
	url := "https://x.test/go?c=1"
	assert.Equal(t, url, ReplaceMacros(url, map[string]string{}))
	assert.Equal(t, url, ReplaceMacros(url, map[string]string{MacroClickID: "7"}))
}

func TestReplaceMacrosEveryOccurrence(t *testing.T) {
	got := ReplaceMacros("id={click_id}&t={click_id}", map[string]string{MacroClickID: "7"})
	assert.Equal(t, "id=7&t=7", got)
}

// An absent value leaves its placeholder intact rather than stripping it.
func TestReplaceMacrosAbsentValueLeavesToken(t *testing.T) {
	got := ReplaceMacros("https://x.test/go?c={click_id}&s={aff_sub_id}", map[string]string{
		MacroClickID: "555",
		MacroSubID:   "",
	})
	assert.Equal(t, "https://x.test/go?c=555&s={aff_sub_id}", got)
}

func TestReplaceMacrosAllPlaceholders(t *testing.T) {
	got := ReplaceMacros("https://x.test/go?c={click_id}&z={zone_id}&s={aff_sub_id}", map[string]string{
		MacroClickID: "555",
		MacroZoneID:  "12",
		MacroSubID:   "partner-3",
	})
	assert.Equal(t, "https://x.test/go?c=555&z=12&s=partner-3", got)
}
