// Package viz renders run results in the terminal.
//
// Time series and convergence studies are drawn with asciigraph; headers,
// metric tables and sparklines are styled with lipgloss.
package viz
