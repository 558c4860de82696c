package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Name string

	Title, Muted, Accent, Success, Error, Warn lipgloss.Style
	Selected, Header                           lipgloss.Style

	Border             lipgloss.Border
	BorderColor        lipgloss.TerminalColor
	SymOK, SymFail     string
	SymItem, SymCursor string
}

var current = classic()

func classic() Theme {
	return Theme{
		Name:        "classic",
		Title:       lipgloss.NewStyle().Bold(true),
		Muted:       lipgloss.NewStyle().Faint(true),
		Accent:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Success:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Warn:        lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Selected:    lipgloss.NewStyle().Bold(true).Reverse(true),
		Header:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("28")).Padding(0, 2),
		Border:      lipgloss.RoundedBorder(),
		BorderColor: lipgloss.Color("8"),
		SymOK:       "✔", SymFail: "✖",
		SymItem: "•", SymCursor: ">",
	}
}

func neon() Theme {
	t := classic()
	t.Name = "neon"
	t.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")) // bright magenta
	t.Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	t.Warn = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	t.Header = t.Header.Background(lipgloss.Color("90"))
	t.BorderColor = lipgloss.Color("13")
	t.SymItem = "◆"
	return t
}

func mono() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Name:  "mono",
		Title: plain.Bold(true), Muted: plain, Accent: plain,
		Success: plain, Error: plain, Warn: plain,
		Selected: plain.Reverse(true), Header: plain.Bold(true).Padding(0, 2),
		Border:      lipgloss.ASCIIBorder(),
		BorderColor: lipgloss.NoColor{},
		SymOK:       "ok", SymFail: "error:",
		SymItem: "-", SymCursor: ">",
	}
}

// SetTheme switches the active theme; unknown names fall back to classic.
func SetTheme(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "neon":
		current = neon()
	case "mono":
		current = mono()
	default: // classic
		current = classic()
	}
}

// Expose what renderers need
func Current() Theme { return current }
