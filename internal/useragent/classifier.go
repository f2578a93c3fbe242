// Package useragent derives device type, OS and browser from raw
// user-agent strings. The classifier sits behind port.Classifier so a
// richer implementation can replace it without touching the serving core;
// unrecognized dimensions come back empty and targeting treats them
// permissively.
package useragent

import (
	"strings"

	"adrelay/internal/core/port"
)

// Device types produced by the classifier.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// Classifier is a substring-matching user-agent classifier.
type Classifier struct{}

// New returns the default classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify inspects the user-agent string. An empty input yields an empty
// classification.
func (*Classifier) Classify(userAgent string) port.UAClass {
	if userAgent == "" {
		return port.UAClass{}
	}
	ua := strings.ToLower(userAgent)
	return port.UAClass{
		DeviceType: deviceType(ua),
		OS:         operatingSystem(ua),
		Browser:    browser(ua),
	}
}

func deviceType(ua string) string {
	switch {
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet"):
		return DeviceTablet
	case strings.Contains(ua, "mobi") || strings.Contains(ua, "iphone"),
		strings.Contains(ua, "android") && !strings.Contains(ua, "tv"):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

func operatingSystem(ua string) string {
	switch {
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"), strings.Contains(ua, "ipod"):
		return "ios"
	case strings.Contains(ua, "android"):
		return "android"
	case strings.Contains(ua, "windows"):
		return "windows"
	case strings.Contains(ua, "mac os x"), strings.Contains(ua, "macintosh"):
		return "macos"
	case strings.Contains(ua, "linux"):
		return "linux"
	default:
		return ""
	}
}

// browser checks the ambiguous tokens first: Edge and Opera embed
// "chrome", Chrome embeds "safari".
func browser(ua string) string {
	switch {
	case strings.Contains(ua, "edg/"), strings.Contains(ua, "edge/"):
		return "edge"
	case strings.Contains(ua, "opr/"), strings.Contains(ua, "opera"):
		return "opera"
	case strings.Contains(ua, "firefox/"):
		return "firefox"
	case strings.Contains(ua, "chrome/"), strings.Contains(ua, "crios/"):
		return "chrome"
	case strings.Contains(ua, "safari/"):
		return "safari"
	case strings.Contains(ua, "msie"), strings.Contains(ua, "trident/"):
		return "ie"
	default:
		return ""
	}
}

var _ port.Classifier = (*Classifier)(nil)
