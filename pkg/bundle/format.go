package bundle

import "fmt"

const (
	kib = 1024
	mib = 1024 * kib
)

// FormatBytes renders a byte count for humans: "512 B", "1.5 KB", "2.25 MB".
func FormatBytes(bytes int64) string {
	switch {
	case bytes < kib:
		return fmt.Sprintf("%d B", bytes)
	case bytes < mib:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kib)
	default:
		return fmt.Sprintf("%.2f MB", float64(bytes)/mib)
	}
}

// FormatPct renders bytes as a share of total with one decimal, e.g. "12.5%".
// A zero total yields "0.0%".
func FormatPct(bytes, total int64) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(bytes)/float64(total)*100)
}
