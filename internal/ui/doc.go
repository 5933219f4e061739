// Package ui holds the color themes shared by the CLI and the dashboard.
// CLI code reads ANSI codes through the Color functions; the dashboard
// reads lipgloss colors through GetCurrentTUITheme.
package ui
