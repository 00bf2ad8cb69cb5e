// Package ui provides semantic text formatting for Envlock CLI output.
//
// Each Formatter pairs a color for capable terminals with a plain-text
// decoration used when color is disabled (NO_COLOR, dumb terminals, pipes),
// so messages stay readable in both cases:
//
//	ui.Success.Sprint("✓") + " Sealed environment " + ui.Highlight.Sprint("prd")
package ui
