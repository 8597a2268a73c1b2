package utils

import (
	"fmt"
	"math"
	"time"
)

// MessageType selects the color of a CLI message.
type MessageType int

// The message types used across the CLI applications.
const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
	WarningMessage
)

// ANSI colors of the message types.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	ErrorColor   = "\x1b[31m"
	WarningColor = "\x1b[33m"
)

var messageColors = map[MessageType]string{
	DefaultMessage: DefaultColor,
	SuccessMessage: SuccessColor,
	ErrorMessage:   ErrorColor,
	StatusMessage:  StatusColor,
	WarningMessage: WarningColor,
}

// DecorateText wraps s in the color of the message type and resets the
// color afterwards. Unknown types are returned unchanged.
func DecorateText(s string, msgType MessageType) string {
	color, ok := messageColors[msgType]
	if !ok {
		return s
	}
	return color + s + DefaultColor
}

// FormatTime formats a duration as "1.50s", "2m 5.00s", "1h 2m 3.00s" or
// "1d 2h 3m 4.00s".
func FormatTime(d time.Duration) string {
	secs := math.Mod(d.Seconds(), 60)
	mins := int64(d.Minutes()) % 60
	hours := int64(d.Hours()) % 24
	days := int64(d.Hours()) / 24

	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %.2fs", mins, secs)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh %dm %.2fs", hours, mins, secs)
	}
	return fmt.Sprintf("%dd %dh %dm %.2fs", days, hours, mins, secs)
}
