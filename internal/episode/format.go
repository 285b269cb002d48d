package episode

import (
	"fmt"
	"time"
)

// FormatDuration renders a duration the way run logs present episode lengths:
// "42 sec", "27:13 min", "1:02:09 hours", or "2 days 03:00:00".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	total := int(d.Round(time.Second).Seconds())
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%d days %02d:%02d:%02d", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%d:%02d:%02d hours", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%d:%02d min", minutes, seconds)
	default:
		return fmt.Sprintf("%d sec", seconds)
	}
}
