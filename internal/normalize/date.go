package normalize

import (
	"strings"
	"time"
)

// Date parses dates in the formats the ingest files actually carry:
// DD-MM-YYYY, DD/MM/YYYY and YYYY-MM-DD, optionally followed by a comma
// and a time-of-day suffix which is discarded (e.g. "24-06-2025, 09:21").
//
// Year-first input is detected by a 4-digit first segment. Empty or
// unparseable input returns (time.Time{}, false).
func Date(raw string) (time.Time, bool) {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return time.Time{}, false
	}

	// Drop a trailing ", HH:MM" style suffix.
	if i := strings.IndexByte(clean, ','); i >= 0 {
		clean = strings.TrimSpace(clean[:i])
	}

	var sep string
	switch {
	case strings.Contains(clean, "/"):
		sep = "/"
	case strings.Contains(clean, "-"):
		sep = "-"
	default:
		return time.Time{}, false
	}

	parts := strings.Split(clean, sep)
	if len(parts) != 3 {
		return time.Time{}, false
	}

	var layout string
	if len(parts[0]) == 4 {
		layout = "2006" + sep + "01" + sep + "02"
	} else {
		layout = "02" + sep + "01" + sep + "2006"
	}

	t, err := time.Parse(layout, clean)
	if err != nil {
		// Retry without zero padding ("1-6-2025").
		if len(parts[0]) != 4 {
			t, err = time.Parse("2"+sep+"1"+sep+"2006", clean)
		}
		if err != nil {
			return time.Time{}, false
		}
	}

	return t, true
}
