package arg

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoarinFerret/TabWarden/internal/activity"
	"github.com/SoarinFerret/TabWarden/internal/control"
	"github.com/SoarinFerret/TabWarden/internal/surface"
)

func testSnapshot() snapshot {
	return snapshot{
		stats: control.DayStats{
			Day:         "2026-10-15",
			Total:       5400,
			GlobalLimit: 14400,
			Sites: []control.SiteUsage{
				{Domain: "reddit.com", Seconds: 3600, Limit: 3600, Percent: 100, Share: 100},
				{Domain: "github.com", Seconds: 1800, Share: 50},
			},
		},
		status: daemonStatus{
			Tracker: activity.State{Domain: "reddit.com"},
			Hub:     surface.Status{Clients: 1, Surfaces: 3, Idle: "active"},
		},
	}
}

func TestTopModel_RefreshUpdatesSnapshot(t *testing.T) {
	m := topModel{load: func() (snapshot, error) { return testSnapshot(), nil }}

	msg := m.Init()()
	updated, cmd := m.Update(msg)
	require.NotNil(t, cmd)

	view := updated.(topModel).View()
	assert.Contains(t, view, "TabWarden - 2026-10-15")
	assert.Contains(t, view, "Tracking reddit.com")
	assert.Contains(t, view, "over limit")
	assert.Contains(t, view, "github.com")
	assert.Contains(t, view, "Total 1h 30m 0s of 4h 0m 0s")
}

func TestTopModel_ErrorKeepsLastSnapshot(t *testing.T) {
	m := topModel{snap: testSnapshot()}

	updated, _ := m.Update(refreshMsg{err: errors.New("daemon not running")})
	got := updated.(topModel)
	assert.Equal(t, testSnapshot(), got.snap)
	assert.Contains(t, got.View(), "daemon not running")
}

func TestTopModel_Keys(t *testing.T) {
	m := topModel{load: func() (snapshot, error) { return snapshot{}, nil }}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	assert.IsType(t, refreshMsg{}, cmd())

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Equal(t, 100, updated.(topModel).width)
}

func TestTopModel_EmptyDay(t *testing.T) {
	view := topModel{}.View()
	assert.Contains(t, view, "Not tracking")
	assert.Contains(t, view, "No browsing recorded today")
}
