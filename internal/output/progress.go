package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/averden/modelget/internal/download"
	"golang.org/x/term"
)

// FormatBytes converts bytes to human-readable format.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// ProgressBar renders a fixed-width bar for a fraction in [0,1].
func ProgressBar(fraction float64, width int) string {
	if width <= 0 {
		width = 30
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := max(0, min(int(fraction*float64(width)), width))
	bar := styleSymbols["bullet"]
	bar += strings.Repeat(styleSymbols["hline"], filled)
	if filled < width {
		bar += strings.Repeat(" ", width-filled)
	}
	bar += styleSymbols["bullet"]
	return detailStyle.Render(fmt.Sprintf("%s %.1f%%", bar, fraction*100))
}

// RenderSnapshot formats one status line for the live display.
func RenderSnapshot(snap download.Snapshot) string {
	switch snap.Phase {
	case download.PhaseComplete:
		return successStyle.Render(fmt.Sprintf("%s %s", styleSymbols["pass"], snap.Status))
	case download.PhaseFailed:
		return errorStyle.Render(fmt.Sprintf("%s %s", styleSymbols["fail"], snap.Status))
	case download.PhaseDownloading:
		return fmt.Sprintf("%s %s (%d/%d parts)", ProgressBar(snap.Fraction, barWidth()), pendingStyle.Render(snap.Status), snap.Completed, snap.Total)
	default:
		return pendingStyle.Render(fmt.Sprintf("%s %s", styleSymbols["pending"], snap.Status))
	}
}

func barWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 30
	}
	if width > 90 {
		return 50
	}
	return max(10, width/3)
}
