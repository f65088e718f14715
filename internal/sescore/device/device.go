// Package device captures client environment facts at signing time and
// derives a compact fingerprint from the stable subset.
package device

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Geolocation is the optional position reported by the client.
type Geolocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

// Metadata is the normalized device record captured once at signing time.
// Every field is best-effort; an absent signal is omitted, never an error.
type Metadata struct {
	IPAddress        string       `json:"ipAddress,omitempty"`
	UserAgent        string       `json:"userAgent,omitempty"`
	BrowserName      string       `json:"browserName,omitempty"`
	BrowserVersion   string       `json:"browserVersion,omitempty"`
	OperatingSystem  string       `json:"operatingSystem,omitempty"`
	OSVersion        string       `json:"osVersion,omitempty"`
	DeviceType       string       `json:"deviceType,omitempty"`
	ScreenResolution string       `json:"screenResolution,omitempty"`
	Timezone         string       `json:"timezone,omitempty"`
	Language         string       `json:"language,omitempty"`
	ConnectionType   string       `json:"connectionType,omitempty"`
	Geolocation      *Geolocation `json:"geolocation,omitempty"`
	Timestamp        time.Time    `json:"timestamp"`
}

// CaptureInput carries the raw signals handed over by the entry point.
type CaptureInput struct {
	IPAddress        string
	UserAgent        string
	ScreenResolution string
	Timezone         string
	Language         string
	ConnectionType   string
	CapturedAt       string // client-reported capture time, any parseable format
	Geolocation      *Geolocation
}

// Capture normalizes the available signals into a Metadata record. Missing
// signals are simply omitted; capture itself never fails.
func Capture(in CaptureInput) Metadata {
	md := Metadata{
		IPAddress:        in.IPAddress,
		UserAgent:        in.UserAgent,
		ScreenResolution: in.ScreenResolution,
		Timezone:         in.Timezone,
		Language:         in.Language,
		ConnectionType:   in.ConnectionType,
		Geolocation:      in.Geolocation,
		Timestamp:        time.Now().UTC(),
	}

	if in.CapturedAt != "" {
		if t, err := dateparse.ParseAny(in.CapturedAt); err == nil {
			md.Timestamp = t.UTC()
		}
	}

	md.BrowserName, md.BrowserVersion = detectBrowser(in.UserAgent)
	md.OperatingSystem, md.OSVersion = detectOS(in.UserAgent)
	md.DeviceType = detectDeviceType(in.UserAgent)
	return md
}

// detectBrowser extracts a browser family and version from a user agent.
// Order matters: Edge and Opera embed "Chrome", Chrome embeds "Safari".
func detectBrowser(ua string) (name, version string) {
	switch {
	case strings.Contains(ua, "Edg/"):
		return "Edge", versionAfter(ua, "Edg/")
	case strings.Contains(ua, "OPR/"):
		return "Opera", versionAfter(ua, "OPR/")
	case strings.Contains(ua, "Firefox/"):
		return "Firefox", versionAfter(ua, "Firefox/")
	case strings.Contains(ua, "Chrome/"):
		return "Chrome", versionAfter(ua, "Chrome/")
	case strings.Contains(ua, "Safari/") && strings.Contains(ua, "Version/"):
		return "Safari", versionAfter(ua, "Version/")
	case ua == "":
		return "", ""
	default:
		return "Unknown", ""
	}
}

func detectOS(ua string) (name, version string) {
	switch {
	case strings.Contains(ua, "Windows NT"):
		return "Windows", versionAfter(ua, "Windows NT ")
	case strings.Contains(ua, "Android"):
		return "Android", versionAfter(ua, "Android ")
	case strings.Contains(ua, "iPhone OS"):
		return "iOS", strings.ReplaceAll(versionAfter(ua, "iPhone OS "), "_", ".")
	case strings.Contains(ua, "iPad"):
		return "iPadOS", ""
	case strings.Contains(ua, "Mac OS X"):
		return "macOS", strings.ReplaceAll(versionAfter(ua, "Mac OS X "), "_", ".")
	case strings.Contains(ua, "Linux"):
		return "Linux", ""
	case ua == "":
		return "", ""
	default:
		return "Unknown", ""
	}
}

func detectDeviceType(ua string) string {
	switch {
	case strings.Contains(ua, "iPad") || strings.Contains(ua, "Tablet"):
		return "tablet"
	case strings.Contains(ua, "Mobile") || strings.Contains(ua, "iPhone") || strings.Contains(ua, "Android"):
		return "mobile"
	case ua == "":
		return ""
	default:
		return "desktop"
	}
}

// versionAfter returns the token following marker, trimmed at the first
// separator that is not part of a version string.
func versionAfter(ua, marker string) string {
	idx := strings.Index(ua, marker)
	if idx < 0 {
		return ""
	}
	rest := ua[idx+len(marker):]
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !(r >= '0' && r <= '9') && r != '.' && r != '_'
	})
	if end == -1 {
		return rest
	}
	return rest[:end]
}
