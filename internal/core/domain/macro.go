package domain

import "strings"

// Macro placeholders recognized in campaign redirect URL templates.
const (
	MacroClickID = "{click_id}"
	MacroZoneID  = "{zone_id}"
	MacroSubID   = "{aff_sub_id}"
)

// ReplaceMacros substitutes macro placeholders in a redirect URL template.
// Every occurrence of a placeholder is replaced, not just the first. A
// placeholder whose value is absent or empty is left untouched so the
// destination can detect an unfilled macro. A template with no recognized
// placeholders is returned unchanged.
func ReplaceMacros(url string, values map[string]string) string {
	for macro, v := range values {
		if v == "" {
			continue
		}
		url = strings.ReplaceAll(url, macro, v)
	}
	return url
}
