// format.go holds the display projections shared by the TUI views and
// the plain-text CLI output. Everything here is pure string shaping;
// no goroutine ever blocks on it.
package stats

import (
	"fmt"
	"time"
)

// FormatPassRate renders a pass rate as a percentage with one decimal,
// e.g. "98.5%". A nil rate (not yet measured) renders as a dash.
func FormatPassRate(rate *float64) string {
	if rate == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *rate)
}

// FormatPercent renders a ratio already expressed in percent, one
// decimal, e.g. 97.25 -> "97.2%".
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatBytes renders a file size the way the upload screen shows it:
// MB with two decimals at 1 MB and above, otherwise KB with two
// decimals.
func FormatBytes(n int64) string {
	const (
		kb = 1024
		mb = 1024 * 1024
	)
	if n >= mb {
		return fmt.Sprintf("%.2f MB", float64(n)/mb)
	}
	return fmt.Sprintf("%.2f KB", float64(n)/kb)
}

// FormatCount renders an integer with thousands separators, e.g.
// 1234567 -> "1,234,567".
func FormatCount(n int) string {
	if n < 0 {
		return "-" + FormatCount(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}

// FormatTestTime renders a test timestamp in local time for table rows.
// The zero time renders as a dash.
func FormatTestTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// FormatCpk renders a process capability index with two decimals.
func FormatCpk(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatPPM renders defects per million as a whole number.
func FormatPPM(v float64) string {
	return fmt.Sprintf("%.0f", v)
}
