package utils

import (
	"fmt"
	"math"
)

// FormatPlaybackTime converts elapsed seconds to a display string, "MM:SS"
// under an hour and "H:MM:SS" from one hour up. Negative or NaN input renders
// as "0:00".
func FormatPlaybackTime(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
