package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/cortex-on/agentdeck/pkg/gallery"
	"github.com/cortex-on/agentdeck/pkg/status"
	"github.com/cortex-on/agentdeck/pkg/transcript"
)

// renderTranscript renders the full turn sequence.
func renderTranscript(tr *transcript.Transcript, loading bool, spinnerView string) string {
	var b strings.Builder
	for _, turn := range tr.Turns() {
		switch turn.Role {
		case transcript.RoleUser:
			b.WriteString(promptStyle.Render("You: ") + turn.Prompt + "\n")
		case transcript.RoleSystem:
			b.WriteString(renderSystemTurn(turn))
		}
	}
	if loading {
		b.WriteString(spinnerView + " " + mutedStyle.Render("agents working...") + "\n")
	}
	return b.String()
}

func renderSystemTurn(turn *transcript.Turn) string {
	var b strings.Builder
	for _, rec := range turn.Records() {
		b.WriteString(agentStyle.Render(rec.AgentName) + "\n")
		if rec.Instructions != "" {
			b.WriteString("  " + mutedStyle.Render(rec.Instructions) + "\n")
		}
		for _, step := range rec.Steps {
			b.WriteString("  " + stepStyle.Render("· "+step) + "\n")
		}
	}
	switch turn.Status {
	case transcript.StatusSucceeded:
		if rec, ok := turn.Record(transcript.OrchestratorAgent); ok {
			b.WriteString(finalStyle.Render("✓ "+rec.Output) + "\n")
		}
	case transcript.StatusFailed:
		b.WriteString(errorStyle.Render("✗ "+status.FailureMessage(turn)) + "\n")
	}
	return b.String()
}

// renderGallery renders the output index strip; the focused entry is
// highlighted, entries mid-transition show none.
func renderGallery(g *gallery.Gallery, width int) string {
	title := subHeaderStyle.Render("Outputs")
	if g.Len() == 0 {
		return lipgloss.NewStyle().Width(width).Render(title + "\nNo outputs yet")
	}
	selected, hasSelection := g.Selected()
	var b strings.Builder
	b.WriteString(title + "\n")
	for i, entry := range g.Entries() {
		label := fmt.Sprintf("%d. %s", i+1, entry.AgentName)
		if hasSelection && i == selected {
			label = selectedStyle.Render(label)
		}
		b.WriteString(label + "\n")
	}
	return lipgloss.NewStyle().Width(width).Render(b.String())
}

// renderDetail renders the focused entry's output as markdown, falling
// back to the raw text when rendering fails.
func renderDetail(g *gallery.Gallery, renderer *glamour.TermRenderer) string {
	idx, ok := g.Selected()
	if !ok {
		return ""
	}
	entry, ok := g.Entry(idx)
	if !ok {
		return ""
	}
	body := entry.Output
	if renderer != nil {
		if rendered, err := renderer.Render(entry.Output); err == nil {
			body = rendered
		}
	}
	return subHeaderStyle.Render(entry.AgentName) + "\n" + body
}
