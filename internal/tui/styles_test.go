package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/autobear/autobear/internal/logline"
)

func TestForLevelMapping(t *testing.T) {
	s := NewStyles("dark")

	tests := []struct {
		level logline.Level
		want  lipgloss.Color
	}{
		{logline.LevelDebug, lipgloss.Color(colorDebugDark)},
		{logline.LevelInfo, lipgloss.Color(colorInfoDark)},
		{logline.LevelSuccess, lipgloss.Color(colorSuccess)},
		{logline.LevelWarning, lipgloss.Color(colorWarning)},
		{logline.LevelError, lipgloss.Color(colorError)},
		{logline.LevelSystem, lipgloss.Color(colorSystem)},
	}
	for _, tc := range tests {
		t.Run(string(tc.level), func(t *testing.T) {
			assert.Equal(t, tc.want, s.ForLevel(tc.level).GetForeground())
		})
	}
}

func TestForLevelUnknownFallsBackToInfo(t *testing.T) {
	s := NewStyles("dark")

	assert.Equal(t, s.Info.GetForeground(), s.ForLevel(logline.Level("bogus")).GetForeground())
}

func TestLightThemeSwapsNeutralColors(t *testing.T) {
	dark := NewStyles("dark")
	light := NewStyles("light")

	assert.Equal(t, lipgloss.Color(colorDebugDark), dark.Debug.GetForeground())
	assert.Equal(t, lipgloss.Color(colorDebugLight), light.Debug.GetForeground())
	assert.Equal(t, lipgloss.Color(colorInfoLight), light.Info.GetForeground())

	// Accent colors are shared between themes.
	assert.Equal(t, dark.Success.GetForeground(), light.Success.GetForeground())
	assert.Equal(t, dark.Error.GetForeground(), light.Error.GetForeground())
}

func TestUnknownThemeDefaultsToDark(t *testing.T) {
	s := NewStyles("solarized")

	assert.Equal(t, lipgloss.Color(colorDebugDark), s.Debug.GetForeground())
}
