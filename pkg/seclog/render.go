package seclog

import "github.com/charmbracelet/lipgloss"

// levelStyles maps each log level to its console colour. Indexed by level.
var levelStyles = [8]lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("7")), // 0 white
	lipgloss.NewStyle().Foreground(lipgloss.Color("8")), // 1 grey
	lipgloss.NewStyle().Foreground(lipgloss.Color("4")), // 2 blue
	lipgloss.NewStyle().Foreground(lipgloss.Color("6")), // 3 cyan
	lipgloss.NewStyle().Foreground(lipgloss.Color("5")), // 4 magenta
	lipgloss.NewStyle().Foreground(lipgloss.Color("2")), // 5 green
	lipgloss.NewStyle().Foreground(lipgloss.Color("3")), // 6 yellow
	lipgloss.NewStyle().Foreground(lipgloss.Color("1")), // 7 red
}

func colorize(line string, level int) string {
	if level < 0 || level >= len(levelStyles) {
		level = 0
	}
	return levelStyles[level].Render(line)
}
