// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/jats-engine/internal/article"
	"github.com/pdiddy/jats-engine/internal/diag"
)

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(0, 1)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// stat is one labelled count in a summary box.
type stat struct {
	label string
	n     int
}

func printBatchReport(w io.Writer, title string, stats []stat) {
	lines := []string{titleStyle.Render(title)}
	for _, s := range stats {
		value := fmt.Sprint(s.n)
		if s.label == "failed" && s.n > 0 {
			value = failStyle.Render(value)
		}
		lines = append(lines, labelStyle.Render(s.label)+value)
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

func printArticleReport(w io.Writer, a *article.Article) {
	lines := []string{
		titleStyle.Render(a.ID),
		labelStyle.Render("references") + fmt.Sprint(a.References.Len()),
		labelStyle.Render("citations") + fmt.Sprint(len(a.Citations())),
		labelStyle.Render("tables") + fmt.Sprint(len(a.Tables())),
		labelStyle.Render("figures") + fmt.Sprint(len(a.Figures())),
	}
	for _, kc := range diag.Summary(a.Warnings) {
		lines = append(lines, warnStyle.Render(fmt.Sprintf("%s: %d", kc.Kind, kc.Count)))
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}
