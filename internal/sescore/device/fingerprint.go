package device

import (
	"fmt"
	"strings"
)

// Fingerprint derives a short deterministic identifier from the stable
// subset of metadata fields. Two captures with identical stable fields
// yield identical fingerprints. This is a low-assurance heuristic for
// correlating sessions, not a security boundary.
func Fingerprint(md Metadata) string {
	parts := []string{
		md.BrowserName,
		md.BrowserVersion,
		md.OperatingSystem,
		md.DeviceType,
		md.ScreenResolution,
		md.Timezone,
		md.Language,
	}
	joined := strings.Join(parts, "|")

	// djb2-style rolling hash; compact and stable across platforms.
	var h uint32 = 5381
	for _, c := range []byte(joined) {
		h = h*33 + uint32(c)
	}
	return fmt.Sprintf("fp_%08x", h)
}
