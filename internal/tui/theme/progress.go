package theme

import (
	"fmt"
)

// FormatProgressMessage formats a progress message with consistent styling.
// A negative percentage omits the number.
func FormatProgressMessage(operation, filename string, percentage float64) string {
	if percentage >= 0 {
		return fmt.Sprintf("%s %s... %.1f%%", operation, filename, percentage)
	}
	return fmt.Sprintf("%s %s...", operation, filename)
}

// FormatErrorMessage formats an error message
func FormatErrorMessage(operation string, err error) string {
	return fmt.Sprintf("%s failed: %v", operation, err)
}
