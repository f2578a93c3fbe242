package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Targeting rule types. List types carry a comma-separated payload;
// frequency_cap carries a single integer threshold; unique_velocity
// carries an "N/M" ratio.
const (
	RuleTypeZone           = "zone"
	RuleTypeGeo            = "geo"
	RuleTypeDevice         = "device"
	RuleTypeOS             = "os"
	RuleTypeBrowser        = "browser"
	RuleTypeFrequencyCap   = "frequency_cap"
	RuleTypeUniqueVelocity = "unique_velocity"
)

// Targeting rule methods.
const (
	RuleMethodWhitelist = "whitelist"
	RuleMethodBlacklist = "blacklist"
)

// ErrInvalidRuleFormat marks a targeting rule whose payload does not parse
// under its type's grammar. It must never silently pass eligibility;
// callers are expected to fail closed.
var ErrInvalidRuleFormat = errors.New("invalid targeting rule format")

// TargetingRule is one constraint restricting which requests a campaign
// may serve to. Rules of the same type AND together, as do the types
// themselves: a campaign is eligible only if every rule of every present
// type passes. Weight is stored for weighted selection but selection is
// first-match and does not consult it.
type TargetingRule struct {
	ID         int64  `json:"id"`
	CampaignID int64  `json:"campaign_id"`
	Type       string `json:"type"`
	Method     string `json:"method"`
	Payload    string `json:"payload"`
	Weight     int    `json:"weight"`
}

// IsEligible reports whether the campaign's targeting rules admit the
// request. It is pure: stateful rule types (frequency cap, unique
// velocity) only have their payloads validated here and are enforced by
// the selector against live counters.
//
// A type with no rules, or an empty request attribute (e.g. unresolved
// country), passes. Evaluation short-circuits on the first failing rule.
// A malformed payload returns ErrInvalidRuleFormat rather than passing.
func IsEligible(c Campaign, rc RequestContext) (bool, error) {
	for _, r := range c.Rules {
		switch r.Type {
		case RuleTypeZone, RuleTypeGeo, RuleTypeDevice, RuleTypeOS, RuleTypeBrowser:
			attr := rc.attribute(r.Type)
			if attr == "" {
				continue
			}
			set := ParseList(r.Payload)
			member := containsFold(set, attr)
			if r.Method == RuleMethodWhitelist && !member {
				return false, nil
			}
			if r.Method == RuleMethodBlacklist && member {
				return false, nil
			}
		case RuleTypeFrequencyCap:
			if _, err := ParseCapThreshold(r.Payload); err != nil {
				return false, fmt.Errorf("rule %d: %w", r.ID, err)
			}
		case RuleTypeUniqueVelocity:
			if _, _, err := ParseVelocity(r.Payload); err != nil {
				return false, fmt.Errorf("rule %d: %w", r.ID, err)
			}
		default:
			// Unknown rule types do not constrain the request.
		}
	}
	return true, nil
}

// ParseList splits a comma-separated rule payload into trimmed, non-empty
// entries.
func ParseList(payload string) []string {
	parts := strings.Split(payload, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseCapThreshold parses a frequency_cap payload: a single positive
// integer.
func ParseCapThreshold(payload string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(payload))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: frequency cap %q", ErrInvalidRuleFormat, payload)
	}
	return n, nil
}

// ParseVelocity parses a unique_velocity payload of the form "N/M": at
// most N impressions per user within M hours. Both parts must be positive
// integers.
func ParseVelocity(payload string) (n, m int, err error) {
	lhs, rhs, ok := strings.Cut(strings.TrimSpace(payload), "/")
	if !ok {
		return 0, 0, fmt.Errorf("%w: velocity %q", ErrInvalidRuleFormat, payload)
	}
	if n, err = strconv.Atoi(strings.TrimSpace(lhs)); err != nil || n <= 0 {
		return 0, 0, fmt.Errorf("%w: velocity %q", ErrInvalidRuleFormat, payload)
	}
	if m, err = strconv.Atoi(strings.TrimSpace(rhs)); err != nil || m <= 0 {
		return 0, 0, fmt.Errorf("%w: velocity %q", ErrInvalidRuleFormat, payload)
	}
	return n, m, nil
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// attribute maps a list rule type to the request attribute it constrains.
func (rc RequestContext) attribute(ruleType string) string {
	switch ruleType {
	case RuleTypeZone:
		if rc.ZoneID == 0 {
			return ""
		}
		return strconv.FormatInt(rc.ZoneID, 10)
	case RuleTypeGeo:
		return rc.Country
	case RuleTypeDevice:
		return rc.DeviceType
	case RuleTypeOS:
		return rc.OS
	case RuleTypeBrowser:
		return rc.Browser
	default:
		return ""
	}
}
