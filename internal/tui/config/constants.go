package config

// Layout constants
const (
	DefaultWindowWidth  = 80
	DefaultWindowHeight = 24

	// Path inputs
	InputCharLimit     = 4096
	MinInputWidth      = 20
	InputWidthPadding  = 8
	FileNameTruncateAt = 40

	// Result viewport
	MinResultHeight = 3
	// Rows taken by header, inputs, status and footer.
	ReservedRows = 18

	// Dialogs and bars
	HelpDialogWidth  = 70
	ProgressBarWidth = 40
	PanelPadding     = 4
)
