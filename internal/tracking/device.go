package tracking

import (
	"strings"

	"github.com/mssola/useragent"
)

const (
	DeviceUnknown = "unknown"
	DeviceBot     = "bot"
	DeviceTablet  = "tablet"
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
)

// DeviceType buckets a raw User-Agent header.
func DeviceType(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DeviceUnknown
	}
	ua := useragent.New(raw)
	switch {
	case ua.Bot():
		return DeviceBot
	case isTablet(raw, ua):
		return DeviceTablet
	case ua.Mobile():
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

func isTablet(raw string, ua *useragent.UserAgent) bool {
	if ua.Platform() == "iPad" || strings.Contains(raw, "iPad") {
		return true
	}
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "tablet") {
		return true
	}
	// Android tablets omit the "Mobile" token.
	return strings.Contains(lower, "android") && !strings.Contains(lower, "mobile")
}
