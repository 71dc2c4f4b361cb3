package utils

import (
	"fmt"
	"time"
)

// MessageType selects the color of a message printed by the CLI.
type MessageType int

const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
)

// ANSI escape sequences of the message colors.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	ErrorColor   = "\x1b[31m"
)

var palette = map[MessageType]string{
	DefaultMessage: DefaultColor,
	SuccessMessage: SuccessColor,
	ErrorMessage:   ErrorColor,
	StatusMessage:  StatusColor,
}

// colored is false when the output is not a terminal.
var colored = true

// SetColor turns the message decoration on or off.
func SetColor(on bool) {
	colored = on
}

// DecorateText wraps s in the color of msgType.
func DecorateText(s string, msgType MessageType) string {
	color, ok := palette[msgType]
	if !colored || !ok {
		return s
	}
	return color + s + DefaultColor
}

// FormatTime prints the duration of a batch run in seconds, or in minutes
// and seconds for runs longer than a minute.
func FormatTime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	m := d.Truncate(time.Minute)
	return fmt.Sprintf("%dm %.2fs", int64(m/time.Minute), (d - m).Seconds())
}

// FormatSize formats a byte count to a human readable value.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
