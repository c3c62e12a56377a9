package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/debemdeboas/gisthub/internal/language"
	"github.com/debemdeboas/gisthub/internal/model"
)

var (
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Bold(true)
	ownerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#fab387"))
	fileStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#cdd6f4"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true)
	secretStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
)

func renderList(gists []model.Gist) string {
	if len(gists) == 0 {
		return mutedStyle.Render("No gists.") + "\n"
	}

	var b strings.Builder
	for _, g := range gists {
		b.WriteString(renderGist(g))
		b.WriteString("\n")
	}
	return b.String()
}

func renderGist(g model.Gist) string {
	header := idStyle.Render(string(g.ID))
	if login := g.OwnerLogin(); login != "" {
		header += " " + ownerStyle.Render("@"+login)
	}
	if !g.Visibility.IsPublic() {
		header += " " + secretStyle.Render("[secret]")
	}

	lines := []string{header}
	if desc := g.DescriptionOrEmpty(); desc != "" {
		lines = append(lines, "  "+desc)
	}
	for _, name := range g.Filenames() {
		f := g.Files[name]
		lines = append(lines, fmt.Sprintf("  %s %s", fileStyle.Render(name), mutedStyle.Render(describeFile(f))))
	}
	return strings.Join(lines, "\n") + "\n"
}

func describeFile(f model.File) string {
	return fmt.Sprintf("(%s, %s editor, %d bytes)", f.Language, language.EditorFor(f.Filename), f.Size)
}

func renderCreated(g model.Gist) string {
	out := okStyle.Render("Created gist "+string(g.ID)) + "\n"
	if g.HTMLURL != "" {
		out += mutedStyle.Render(g.HTMLURL) + "\n"
	}
	return out
}
