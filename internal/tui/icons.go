package tui

// Icons. Color is the primary signal; the shape reinforces it.
const (
	IconCheck   = "\u2714" // heavy check mark
	IconCross   = "\u2716" // heavy multiplication x
	IconWarning = "\u26A0" // warning sign
	IconInfo    = "\u2139" // information source
	IconBlock   = "\u2298" // circled division slash
)
