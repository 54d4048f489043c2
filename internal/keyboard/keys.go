// Package keyboard holds the dashboard's key bindings
package keyboard

import "strings"

// Keys holds the dashboard shortcuts. Each field is a bubbletea key string.
type Keys struct {
	// List
	Filter        string
	SwitchContext string
	NextTab       string
	Refresh       string
	Reconnect     string
	YAML          string
	Describe      string
	Copy          string

	// Global
	Confirm   string
	Back      string
	Quit      string
	ForceQuit string
}

// Default returns the default, k9s-flavored bindings
func Default() *Keys {
	return &Keys{
		Filter:        "/",
		SwitchContext: "s",
		NextTab:       "tab",
		Refresh:       "r",
		Reconnect:     "R",
		YAML:          "y",
		Describe:      "d",
		Copy:          "c",

		Confirm:   "enter",
		Back:      "esc",
		Quit:      "q",
		ForceQuit: "ctrl+c",
	}
}

// ListHelp is the help line shown under the tables
func (k *Keys) ListHelp() string {
	return join(
		k.NextTab, "workloads/nodes",
		k.Filter, "filter",
		k.SwitchContext, "switch context",
		k.Refresh, "refresh",
		k.Reconnect, "reconnect",
		k.YAML, "yaml",
		k.Describe, "describe",
		k.Copy, "copy",
		k.Quit, "quit",
	)
}

func join(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, pairs[i]+": "+pairs[i+1])
	}
	return strings.Join(parts, " • ")
}
