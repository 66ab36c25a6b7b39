package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type AppData struct {
	Theme       string
	Header      string
	MainPane    string
	SidePane    string
	StatusLine  string
	StatusError bool
	Banner      string
	Footer      string
	Width       int
}

type palette struct {
	accent  lipgloss.Color
	text    lipgloss.Color
	muted   lipgloss.Color
	success lipgloss.Color
	danger  lipgloss.Color
	border  lipgloss.Color
}

var (
	lightPalette = palette{
		accent:  lipgloss.Color("28"),
		text:    lipgloss.Color("235"),
		muted:   lipgloss.Color("244"),
		success: lipgloss.Color("34"),
		danger:  lipgloss.Color("160"),
		border:  lipgloss.Color("250"),
	}
	darkPalette = palette{
		accent:  lipgloss.Color("120"),
		text:    lipgloss.Color("252"),
		muted:   lipgloss.Color("242"),
		success: lipgloss.Color("82"),
		danger:  lipgloss.Color("203"),
		border:  lipgloss.Color("238"),
	}
)

func paletteFor(theme string) palette {
	if theme == "dark" {
		return darkPalette
	}
	return lightPalette
}

// Styles is the theme dependent style set used by all screens.
type Styles struct {
	Header lipgloss.Style
	Text   lipgloss.Style
	Muted  lipgloss.Style
	Status lipgloss.Style
	Error  lipgloss.Style
	Panel  lipgloss.Style
	Card   lipgloss.Style
	Active lipgloss.Style
	Banner lipgloss.Style
	Footer lipgloss.Style
}

func StylesFor(theme string) Styles {
	p := paletteFor(theme)
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		Text:   lipgloss.NewStyle().Foreground(p.text),
		Muted:  lipgloss.NewStyle().Foreground(p.muted),
		Status: lipgloss.NewStyle().Foreground(p.success),
		Error:  lipgloss.NewStyle().Foreground(p.danger),
		Panel:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.border).Padding(0, 1),
		Card:   lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(p.border).Padding(0, 1),
		Active: lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(p.accent).Padding(0, 1),
		Banner: lipgloss.NewStyle().Bold(true).Foreground(p.success).Border(lipgloss.DoubleBorder()).BorderForeground(p.success).Padding(0, 2),
		Footer: lipgloss.NewStyle().Foreground(p.muted),
	}
}

func RenderApp(data AppData) string {
	s := StylesFor(data.Theme)
	width := data.Width
	if width <= 0 {
		width = 116
	}
	mainWidth := width*3/5 - 4
	sideWidth := width - mainWidth - 8

	panes := []string{s.Panel.Width(mainWidth).Render(data.MainPane)}
	if strings.TrimSpace(data.SidePane) != "" {
		panes = append(panes, s.Panel.Width(sideWidth).Render(data.SidePane))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, panes...)

	lines := []string{s.Header.Render(data.Header)}
	if data.Banner != "" {
		lines = append(lines, s.Banner.Render(data.Banner))
	}
	lines = append(lines, row)
	if data.StatusLine != "" {
		if data.StatusError {
			lines = append(lines, s.Error.Render(data.StatusLine))
		} else {
			lines = append(lines, s.Status.Render(data.StatusLine))
		}
	}
	if data.Footer != "" {
		lines = append(lines, s.Footer.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

// RenderMarkdown renders md with the glamour style matching theme. Render
// failures fall back to the raw markdown.
func RenderMarkdown(md, theme string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	style := "light"
	if theme == "dark" {
		style = "dark"
	}
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
