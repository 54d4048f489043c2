package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/kboard/internal/status"
)

func TestGetTheme(t *testing.T) {
	for _, name := range AvailableThemes() {
		t.Run(name, func(t *testing.T) {
			theme := GetTheme(name)
			require.NotNil(t, theme)
			assert.Equal(t, name, theme.Name)
			assert.NotEmpty(t, theme.Primary.Dark)
			assert.NotEmpty(t, theme.Background.Light)
		})
	}

	assert.Equal(t, DefaultTheme, GetTheme("no-such-theme").Name)
	assert.Len(t, palettes, len(AvailableThemes()))
}

func TestTheme_StatusStyle(t *testing.T) {
	theme := GetTheme("dracula")

	tests := []struct {
		status status.Status
		want   lipgloss.TerminalColor
	}{
		{status.Available, theme.Success},
		{status.Succeeded, theme.Success},
		{status.Progressing, theme.Warning},
		{status.Degraded, theme.Error},
		{status.Failed, theme.Error},
		{status.Unknown, theme.Muted},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, theme.StatusStyle(tt.status).GetForeground())
		})
	}
}

func TestRenderMessage(t *testing.T) {
	theme := GetTheme("charm")

	assert.Empty(t, RenderMessage("", MessageInfo, theme, "", 80))
	assert.Equal(t, "⏺ saved", RenderMessage("saved", MessageSuccess, theme, "", 80))
	assert.Equal(t, "* loading", RenderMessage("loading", MessageLoading, theme, "*", 80))
	assert.Equal(t, "⏺ loading", RenderMessage("loading", MessageLoading, theme, "", 80))

	long := strings.Repeat("x", 100)
	out := RenderMessage(long, MessageError, theme, "", 40)
	assert.Equal(t, "⏺ "+strings.Repeat("x", 32)+"…", out)

	narrow := RenderMessage(long, MessageError, theme, "", 10)
	assert.Equal(t, "⏺ "+strings.Repeat("x", 19)+"…", narrow, "messages keep a minimum length")
}
