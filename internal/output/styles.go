package output

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("37"))            // dark green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))             // red
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))            // yellow
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))            // blue
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))            // cyan
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))           // light grey
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")) // purple
)

var styleSymbols = map[string]string{
	"pass":    "✓",
	"fail":    "✗",
	"pending": "◉",
	"bullet":  "•",
	"hline":   "━",
}

func PrintSuccess(text string) {
	fmt.Println(successStyle.Render(text))
}

func PrintError(text string) {
	fmt.Println(errorStyle.Render(text))
}

func PrintWarning(text string) {
	fmt.Println(warningStyle.Render(text))
}

func PrintInfo(text string) {
	fmt.Println(infoStyle.Render(text))
}

func PrintHeader(text string) {
	fmt.Println(headerStyle.Render(text))
}
