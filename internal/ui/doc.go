// Package ui provides helpers for formatting human-readable console output.
//
// ConsoleCommandEventLogger turns gh invocations into short progress lines and
// SummaryRenderer prints the styled outcome of a cascade run once it finishes.
package ui
