package arg

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/SoarinFerret/TabWarden/internal/control"
	"github.com/SoarinFerret/TabWarden/internal/ledger"
)

const topRefresh = 5 * time.Second

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4A90E2")).
			Padding(0, 1).
			MarginBottom(1)

	trackingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	overStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F7DC6F"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

type snapshot struct {
	stats  control.DayStats
	status daemonStatus
}

type refreshMsg struct {
	snap snapshot
	err  error
}

type topModel struct {
	load  func() (snapshot, error)
	snap  snapshot
	err   error
	width int
}

func loadSnapshot() (snapshot, error) {
	stats, err := fetchDay("")
	if err != nil {
		return snapshot{}, err
	}
	status, err := fetchStatus()
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{stats: stats, status: status}, nil
}

func (m topModel) refresh() tea.Msg {
	snap, err := m.load()
	return refreshMsg{snap: snap, err: err}
}

func (m topModel) tick() tea.Cmd {
	return tea.Tick(topRefresh, func(time.Time) tea.Msg {
		return m.refresh()
	})
}

func (m topModel) Init() tea.Cmd {
	return m.refresh
}

func (m topModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.refresh
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case refreshMsg:
		m.err = msg.err
		if msg.err == nil {
			m.snap = msg.snap
		}
		return m, m.tick()
	}
	return m, nil
}

func (m topModel) View() string {
	var b strings.Builder

	header := fmt.Sprintf("TabWarden - %s", m.snap.stats.Day)
	if m.width > 0 {
		b.WriteString(headerStyle.Width(m.width).Render(header))
	} else {
		b.WriteString(headerStyle.Render(header))
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(overStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	if d := m.snap.status.Tracker.Domain; !d.IsZero() {
		b.WriteString(trackingStyle.Render("Tracking " + string(d)))
	} else {
		b.WriteString(pausedStyle.Render("Not tracking"))
	}
	b.WriteString(fmt.Sprintf("  (%s, %d browser(s))\n\n", m.snap.status.Hub.Idle, m.snap.status.Hub.Clients))

	stats := m.snap.stats
	if len(stats.Sites) == 0 {
		b.WriteString("No browsing recorded today\n")
	}
	for _, s := range stats.Sites {
		line := fmt.Sprintf("%-28s %-22s %10s", s.Domain, progressBar(s.Share, 20), ledger.FormatSeconds(s.Seconds))
		switch {
		case s.Limit > 0 && s.Percent >= 100:
			line = overStyle.Render(line + "  over limit")
		case s.Limit > 0 && s.Percent >= 75:
			line = warnStyle.Render(line + fmt.Sprintf("  %.0f%% of limit", s.Percent))
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(fmt.Sprintf("\nTotal %s", ledger.FormatSeconds(stats.Total)))
	if stats.GlobalLimit > 0 {
		b.WriteString(fmt.Sprintf(" of %s", ledger.FormatSeconds(stats.GlobalLimit)))
	}
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("q: quit  r: refresh"))
	return b.String()
}

func progressBar(percentage float64, width int) string {
	if percentage > 100 {
		percentage = 100
	}
	filled := int(percentage) * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Live view of today's browsing time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := tea.NewProgram(topModel{load: loadSnapshot}, tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(topCmd)
}
