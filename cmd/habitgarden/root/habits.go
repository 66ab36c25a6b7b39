package root

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/habitgarden/internal/habits"
	"github.com/sandeepkv93/habitgarden/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("28"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
)

func newListCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List habits with streak, XP and this week's count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openCLIApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if offset < 0 {
				offset = 0
			}
			page := paginate(a.store.Habits(), limit, offset)
			out := cmd.OutOrStdout()
			if len(page) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("no habits"))
				return nil
			}
			now := a.store.Now()
			for i, h := range page {
				week, err := a.store.WeekCountFor(h.ID, now)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s\n", titleStyle.Render(fmt.Sprintf("%d. %s", offset+i+1, h.Name)),
					mutedStyle.Render(fmt.Sprintf("[%s] %s", h.Difficulty.Label(), h.ID)))
				fmt.Fprintf(out, "   streak %d | xp %d | week %d/%d\n", h.Streak, h.XP, week, h.TargetDays)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum habits to show (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Habits to skip")
	return cmd
}

func newAddCmd() *cobra.Command {
	var in habits.CreateInput

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a habit",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("name is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openCLIApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			in.Name = strings.Join(args, " ")
			snapshot, err := a.store.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			added := snapshot[len(snapshot)-1]
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("added %d. %s (%s)", len(snapshot), added.Name, added.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.IfThen, "if-then", "", "Implementation intention, e.g. \"If it is 7 AM, then I will walk\"")
	cmd.Flags().StringVarP(&in.Tasks, "tasks", "t", "", "Comma separated micro-tasks")
	cmd.Flags().IntVarP(&in.Difficulty, "difficulty", "d", int(model.DefaultDifficulty), "Difficulty (1 easy, 2 medium, 3 tough)")
	cmd.Flags().IntVar(&in.TargetDays, "target", model.DefaultTargetDays, "Target days per week (1-7)")
	return cmd
}

func newDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "done <habit>",
		Aliases: []string{"complete", "check"},
		Short:   "Record a completion for a habit (position, id or id prefix)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openCLIApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			h, err := a.store.Lookup(args[0])
			if err != nil {
				return err
			}
			_, err = a.store.Complete(cmd.Context(), h.ID)
			if err != nil {
				return err
			}
			after, err := a.store.Get(h.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("%s done! +%d XP (streak %d)", after.Name, after.XP-h.XP, after.Streak)))
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	return newConfirmedCmd("reset", "Clear a habit's streak, XP and history", nil,
		func(a *app, cmd *cobra.Command, h model.Habit) error {
			_, err := a.store.Reset(cmd.Context(), h.ID)
			return err
		})
}

func newDeleteCmd() *cobra.Command {
	return newConfirmedCmd("delete", "Remove a habit", []string{"rm", "del"},
		func(a *app, cmd *cobra.Command, h model.Habit) error {
			_, err := a.store.Delete(cmd.Context(), h.ID)
			return err
		})
}

// newConfirmedCmd builds a destructive command that asks before acting
// unless --yes is given.
func newConfirmedCmd(verb, short string, aliases []string, act func(*app, *cobra.Command, model.Habit) error) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     verb + " <habit>",
		Aliases: aliases,
		Short:   short,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openCLIApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			h, err := a.store.Lookup(args[0])
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("%s %q?", verb, h.Name)) {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render(verb+" cancelled"))
				return nil
			}
			if err := act(a, cmd, h); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("%s %s", pastTense(verb), h.Name)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newEditCmd() *cobra.Command {
	var (
		in         habits.EditInput
		difficulty int
		target     int
	)

	cmd := &cobra.Command{
		Use:   "edit <habit>",
		Short: "Change a habit's details, keeping its progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openCLIApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			h, err := a.store.Lookup(args[0])
			if err != nil {
				return err
			}
			// Unset flags keep the current values.
			fl := cmd.Flags()
			if !fl.Changed("if-then") {
				in.IfThen = h.IfThen
			}
			if !fl.Changed("tasks") {
				in.Tasks = model.FormatTaskList(h.Tasks)
			}
			in.Difficulty = int(h.Difficulty)
			if fl.Changed("difficulty") {
				in.Difficulty = difficulty
			}
			in.TargetDays = h.TargetDays
			if fl.Changed("target") {
				in.TargetDays = target
			}
			if _, err := a.store.Edit(cmd.Context(), h.ID, in); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("habit updated"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.Name, "name", "n", "", "New name (empty keeps the current one)")
	cmd.Flags().StringVar(&in.IfThen, "if-then", "", "New implementation intention")
	cmd.Flags().StringVarP(&in.Tasks, "tasks", "t", "", "New comma separated micro-tasks")
	cmd.Flags().IntVarP(&difficulty, "difficulty", "d", 0, "New difficulty (1-3)")
	cmd.Flags().IntVar(&target, "target", 0, "New target days per week (1-7)")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show total XP and weekly progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openCLIApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			all := a.store.Habits()
			now := a.store.Now()
			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d habits, %d total XP", len(all), a.store.TotalXP())))
			for i, h := range all {
				progress, err := a.store.ProgressFor(h.ID, now)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%2d. %-24s %3.0f%% of weekly target, streak %d\n", i+1, h.Name, progress*100, h.Streak)
			}
			return nil
		},
	}
}

// paginate returns the page of habits after offset, at most limit long.
// A non-positive limit means no limit.
func paginate(all []model.Habit, limit, offset int) []model.Habit {
	if offset < 0 {
		offset = 0
	}
	if offset > len(all) {
		return nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func pastTense(verb string) string {
	switch verb {
	case "reset":
		return "reset"
	case "delete":
		return "deleted"
	default:
		return verb
	}
}
