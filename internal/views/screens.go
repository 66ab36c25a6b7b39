package views

import (
	"fmt"
	"strings"
)

type HabitCardData struct {
	ID           string
	Name         string
	IfThen       string
	Tasks        []string
	Difficulty   string
	Streak       int
	XP           int
	WeekCount    int
	TargetDays   int
	ProgressView string
	Selected     bool
}

type HabitListData struct {
	Theme string
	Cards []HabitCardData
}

type FormFieldData struct {
	Label   string
	View    string
	Focused bool
}

type FormData struct {
	Theme  string
	Title  string
	Fields []FormFieldData
	Error  string
}

type ConfirmData struct {
	Theme   string
	Action  string
	Subject string
}

type CelebrationData struct {
	Name   string
	Gain   int
	Streak int
}

type HelpPanelData struct {
	Mode     string
	Bindings []string
	HelpView string
}

func RenderHabitList(data HabitListData) string {
	s := StylesFor(data.Theme)
	if len(data.Cards) == 0 {
		return s.Muted.Render("no habits yet, press [a] to add one")
	}
	cards := make([]string, 0, len(data.Cards))
	for i, card := range data.Cards {
		style := s.Card
		if card.Selected {
			style = s.Active
		}
		cards = append(cards, style.Render(renderHabitCard(i+1, card, s)))
	}
	return strings.Join(cards, "\n")
}

func renderHabitCard(pos int, card HabitCardData, s Styles) string {
	var b strings.Builder
	b.WriteString(s.Header.Render(fmt.Sprintf("%d. %s", pos, card.Name)))
	b.WriteString(s.Muted.Render(fmt.Sprintf("  [%s]", card.Difficulty)))
	b.WriteString("\n")
	if card.IfThen != "" {
		b.WriteString(s.Muted.Render(card.IfThen) + "\n")
	}
	if len(card.Tasks) > 0 {
		b.WriteString(s.Text.Render("• "+strings.Join(card.Tasks, "  • ")) + "\n")
	}
	b.WriteString(fmt.Sprintf("streak: %d | xp: %d | week: %d/%d\n", card.Streak, card.XP, card.WeekCount, card.TargetDays))
	b.WriteString(card.ProgressView)
	return b.String()
}

func RenderForm(data FormData) string {
	s := StylesFor(data.Theme)
	var b strings.Builder
	b.WriteString(s.Header.Render(data.Title) + "\n")
	b.WriteString(s.Muted.Render("keys: [tab]next [shift+tab]prev [←/→]difficulty [enter]save [esc]cancel") + "\n\n")
	for _, f := range data.Fields {
		cursor := " "
		if f.Focused {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s\n  %s\n", cursor, f.Label, f.View))
	}
	if data.Error != "" {
		b.WriteString("\n" + s.Error.Render("error: "+data.Error))
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderConfirm(data ConfirmData) string {
	s := StylesFor(data.Theme)
	return fmt.Sprintf("%s\n%s",
		s.Error.Render(fmt.Sprintf("%s %q?", data.Action, data.Subject)),
		s.Muted.Render("[y] confirm  [n/esc] cancel"),
	)
}

func RenderCelebration(data CelebrationData) string {
	if strings.TrimSpace(data.Name) == "" {
		return ""
	}
	return fmt.Sprintf("🎉 %s done! +%d XP (streak %d)", data.Name, data.Gain, data.Streak)
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: :%s", input)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help (%s):\n%s\n%s",
		strings.ToLower(data.Mode),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}

// HabitMarkdown describes one habit for the details pane.
func HabitMarkdown(card HabitCardData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("## %s\n\n", card.Name))
	if card.IfThen != "" {
		b.WriteString(fmt.Sprintf("> %s\n\n", card.IfThen))
	}
	if len(card.Tasks) > 0 {
		for _, task := range card.Tasks {
			b.WriteString(fmt.Sprintf("- [ ] %s\n", task))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("**Difficulty:** %s  \n", card.Difficulty))
	b.WriteString(fmt.Sprintf("**Streak:** %d days  \n", card.Streak))
	b.WriteString(fmt.Sprintf("**XP:** %d  \n", card.XP))
	b.WriteString(fmt.Sprintf("**This week:** %d of %d\n", card.WeekCount, card.TargetDays))
	return b.String()
}
