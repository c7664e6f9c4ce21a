package cmd

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/agausmann/ope/internal/config"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// setupColor picks the lipgloss colour profile for stdout
func setupColor(mode config.ColorMode, disabled bool) {
	switch {
	case disabled || mode == config.ColorNever:
		lipgloss.SetColorProfile(termenv.Ascii)
	case mode == config.ColorAlways:
		lipgloss.SetColorProfile(termenv.ANSI256)
	case termenv.EnvNoColor():
		lipgloss.SetColorProfile(termenv.Ascii)
	default:
		lipgloss.SetColorProfile(termenv.NewOutput(stdout()).EnvColorProfile())
	}
}

const maskedPassword = "********"

// credentialTable renders usernames and (optionally) passwords in file order
func credentialTable(rows [][]string, showPasswords bool) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("#", "USERNAME", "PASSWORD")

	for _, r := range rows {
		password := maskedPassword
		if showPasswords {
			password = printable(r[2])
		}
		t.Row(r[0], printable(r[1]), password)
	}
	return t.String()
}

// printable makes control characters visible so a malformed entry cannot
// break the table layout
func printable(s string) string {
	return strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`).Replace(s)
}
