package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const chromeWindowsUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestDetectBrowser(t *testing.T) {
	tests := []struct {
		name        string
		ua          string
		wantBrowser string
		wantVersion string
	}{
		{
			name:        "chrome_windows",
			ua:          chromeWindowsUA,
			wantBrowser: "Chrome",
			wantVersion: "120.0.0.0",
		},
		{
			name:        "firefox",
			ua:          "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			wantBrowser: "Firefox",
			wantVersion: "121.0",
		},
		{
			name:        "edge_embeds_chrome",
			ua:          "Mozilla/5.0 (Windows NT 10.0) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36 Edg/120.0.2210.91",
			wantBrowser: "Edge",
			wantVersion: "120.0.2210.91",
		},
		{
			name:        "safari_iphone",
			ua:          "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 Version/17.1 Mobile/15E148 Safari/604.1",
			wantBrowser: "Safari",
			wantVersion: "17.1",
		},
		{
			name:        "empty",
			ua:          "",
			wantBrowser: "",
			wantVersion: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, version := detectBrowser(tt.ua)
			assert.Equal(t, tt.wantBrowser, name)
			assert.Equal(t, tt.wantVersion, version)
		})
	}
}

func TestDetectOSAndDeviceType(t *testing.T) {
	osName, osVersion := detectOS(chromeWindowsUA)
	assert.Equal(t, "Windows", osName)
	assert.Equal(t, "10.0", osVersion)
	assert.Equal(t, "desktop", detectDeviceType(chromeWindowsUA))

	iphone := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15"
	osName, osVersion = detectOS(iphone)
	assert.Equal(t, "iOS", osName)
	assert.Equal(t, "17.1", osVersion)
	assert.Equal(t, "mobile", detectDeviceType(iphone))
}

func TestCapture_BestEffort(t *testing.T) {
	// Absent signals are omitted, never an error.
	md := Capture(CaptureInput{UserAgent: chromeWindowsUA})
	assert.Equal(t, "Chrome", md.BrowserName)
	assert.Empty(t, md.ScreenResolution)
	assert.Nil(t, md.Geolocation)
	assert.False(t, md.Timestamp.IsZero())
}

func TestCapture_NormalizesClientTimestamp(t *testing.T) {
	md := Capture(CaptureInput{
		UserAgent:  chromeWindowsUA,
		CapturedAt: "2026/03/01 10:30:00",
	})
	assert.Equal(t, 2026, md.Timestamp.Year())
	assert.Equal(t, time.March, md.Timestamp.Month())

	// Unparseable client time falls back to capture wall clock.
	md = Capture(CaptureInput{CapturedAt: "not a time"})
	assert.WithinDuration(t, time.Now().UTC(), md.Timestamp, 5*time.Second)
}

func TestFingerprint_DeterministicOverStableFields(t *testing.T) {
	a := Capture(CaptureInput{
		UserAgent:        chromeWindowsUA,
		ScreenResolution: "1920x1080",
		Timezone:         "Europe/Madrid",
		Language:         "es-ES",
	})
	b := Capture(CaptureInput{
		UserAgent:        chromeWindowsUA,
		ScreenResolution: "1920x1080",
		Timezone:         "Europe/Madrid",
		Language:         "es-ES",
		// Volatile fields must not affect the fingerprint.
		IPAddress:      "203.0.113.9",
		ConnectionType: "wifi",
	})
	assert.Equal(t, Fingerprint(a), Fingerprint(b))

	c := Capture(CaptureInput{
		UserAgent:        chromeWindowsUA,
		ScreenResolution: "2560x1440",
		Timezone:         "Europe/Madrid",
		Language:         "es-ES",
	})
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}

func TestFingerprint_Format(t *testing.T) {
	fp := Fingerprint(Metadata{})
	assert.Regexp(t, `^fp_[0-9a-f]{8}$`, fp)
}
