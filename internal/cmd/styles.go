package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Terminal styles for user-facing output.
var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func okf(format string, args ...interface{}) {
	fmt.Println(okStyle.Render(fmt.Sprintf(format, args...)))
}

func warnf(format string, args ...interface{}) {
	fmt.Println(warnStyle.Render(fmt.Sprintf(format, args...)))
}
