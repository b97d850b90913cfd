// Package viz renders benchmark and verification reports for the terminal.
//
// Styles are plain lipgloss styles; when stdout is not a terminal lipgloss
// drops the escape codes, so reports stay readable when piped.
package viz
