// Package report renders a user's goal tree with progress bars for the
// terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/emilianohg/skilltracker/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	taskStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			PaddingLeft(2)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// Render writes one box per goal: the goal bar, then each task with its bar
// and checklist.
func Render(w io.Writer, goals []models.GoalDetail, width int) error {
	if len(goals) == 0 {
		_, err := fmt.Fprintln(w, dimStyle.Render("No goals yet."))
		return err
	}

	goalBar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(width))
	taskBar := progress.New(progress.WithSolidFill("62"), progress.WithWidth(width-4))

	for _, g := range goals {
		var b strings.Builder

		b.WriteString(titleStyle.Render(g.Goal.Title))
		if g.Goal.Category != "" {
			b.WriteString(" " + categoryStyle.Render("["+g.Goal.Category+"]"))
		}
		b.WriteString("\n" + goalBar.ViewAs(percent(g.Goal.Progress)) + "\n")

		if len(g.Tasks) == 0 {
			b.WriteString(dimStyle.Render("  no tasks") + "\n")
		}
		for _, t := range g.Tasks {
			mark := " "
			if t.IsCompleted {
				mark = doneStyle.Render("✓")
			}
			b.WriteString("\n" + taskStyle.Render(mark+" "+t.Title) + "\n")
			b.WriteString("    " + taskBar.ViewAs(percent(t.Progress)) + "\n")

			for _, s := range t.Subtasks {
				if s.IsCompleted {
					b.WriteString(doneStyle.Render("    [x] "+s.Title) + "\n")
				} else {
					b.WriteString(dimStyle.Render("    [ ] "+s.Title) + "\n")
				}
			}
		}

		if _, err := fmt.Fprintln(w, boxStyle.Render(strings.TrimRight(b.String(), "\n"))); err != nil {
			return err
		}
	}
	return nil
}

func percent(p int) float64 {
	return float64(p) / 100
}
