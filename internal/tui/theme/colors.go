package theme

// Terminal-compatible color constants using ANSI standard colors
// These colors work consistently across different terminal themes
const (
	// Primary colors (ANSI standard)
	ColorWhite        = "#FFFFFF" // ANSI 15 - primary text
	ColorBrightBlack  = "#808080" // ANSI 8 - secondary text
	ColorBrightBlue   = "#5C7CFA" // ANSI 12 - primary accent
	ColorBrightCyan   = "#22B8CF" // ANSI 14 - info
	ColorBrightGreen  = "#51CF66" // ANSI 10 - success
	ColorBrightYellow = "#FFD43B" // ANSI 11 - warning
	ColorBrightRed    = "#FF6B6B" // ANSI 9 - error

	// File type colors
	ColorFileText        = "#74C0FC" // Light blue
	ColorFileSpreadsheet = "#69DB7C" // Light green
	ColorFileOther       = "#FFB3BA" // Light pink
)

// Message kinds, shared with the messaging package
const (
	MessageInfo = iota
	MessageSuccess
	MessageWarning
	MessageError
)

// GetFileColor returns the color for a given file category
func GetFileColor(category string) string {
	switch category {
	case "text":
		return ColorFileText
	case "spreadsheet":
		return ColorFileSpreadsheet
	case "":
		return ColorWhite
	default:
		return ColorFileOther
	}
}

// GetMessageColor returns the color for a given message type
func GetMessageColor(messageType int) string {
	switch messageType {
	case MessageError:
		return ColorBrightRed
	case MessageSuccess:
		return ColorBrightGreen
	case MessageWarning:
		return ColorBrightYellow
	default: // MessageInfo
		return ColorBrightCyan
	}
}

// GetMessageIcon returns the icon for a given message type
func GetMessageIcon(messageType int) string {
	switch messageType {
	case MessageError:
		return "❌"
	case MessageSuccess:
		return "✅"
	case MessageWarning:
		return "⚠️"
	default: // MessageInfo
		return "ℹ️"
	}
}
