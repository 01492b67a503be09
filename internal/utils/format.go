package utils

import (
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes renders a byte count in binary units ("1.5 KiB")
func FormatBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

// FormatPrice renders a price with thousands separators ("$26,420")
func FormatPrice(p float64) string {
	return "$" + humanize.CommafWithDigits(p, 2)
}

// FormatAge renders an age rounded for display; nil means no data
func FormatAge(d *time.Duration) string {
	if d == nil {
		return "-"
	}
	switch {
	case *d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

// FormatTime renders t relative to now ("3 minutes ago")
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}
