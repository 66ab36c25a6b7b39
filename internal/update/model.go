package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"go.uber.org/zap"

	"github.com/sandeepkv93/habitgarden/internal/events"
	"github.com/sandeepkv93/habitgarden/internal/habits"
	"github.com/sandeepkv93/habitgarden/internal/model"
	"github.com/sandeepkv93/habitgarden/internal/storage"
)

// HabitStore is the part of *habits.Store the TUI drives.
type HabitStore interface {
	Habits() []model.Habit
	Lookup(ref string) (model.Habit, error)
	Create(ctx context.Context, in habits.CreateInput) ([]model.Habit, error)
	Complete(ctx context.Context, id string) ([]model.Habit, error)
	Reset(ctx context.Context, id string) ([]model.Habit, error)
	Delete(ctx context.Context, id string) ([]model.Habit, error)
	Edit(ctx context.Context, id string, in habits.EditInput) ([]model.Habit, error)
	Save(ctx context.Context) error
	TotalXP() int
	WeekCountFor(id string, now time.Time) (int, error)
	ProgressFor(id string, now time.Time) (float64, error)
	Now() time.Time
}

// SettingsStore persists the theme preference.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (storage.Setting, error)
	SetSetting(ctx context.Context, in storage.Setting) error
}

type Mode string

const (
	ModeList    Mode = "list"
	ModeForm    Mode = "form"
	ModeConfirm Mode = "confirm"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Add     string
	Edit    string
	Done    string
	Reset   string
	Delete  string
	Theme   string
	Details string
	Save    string
	Palette string
	Help    string
	Quit    string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type FormKind string

const (
	FormAdd  FormKind = "add"
	FormEdit FormKind = "edit"
)

type formField int

const (
	fieldName formField = iota
	fieldIfThen
	fieldTasks
	fieldDifficulty
	fieldTarget
	fieldCount
)

type FormState struct {
	Kind    FormKind
	HabitID string
	Focus   formField
	// DifficultyCursor indexes model.Difficulties().
	DifficultyCursor int
	Err              string
}

type ConfirmAction string

const (
	ConfirmReset  ConfirmAction = "reset"
	ConfirmDelete ConfirmAction = "delete"
)

type ConfirmState struct {
	Action  ConfirmAction
	HabitID string
	Name    string
}

type Celebration struct {
	HabitID string
	Name    string
	Gain    int
	Streak  int
}

// Deps wires the model to the habit store and its collaborators. Settings,
// Events and Logger are optional.
type Deps struct {
	Ctx          context.Context
	Store        HabitStore
	Settings     SettingsStore
	Events       *events.Bus
	Logger       *zap.Logger
	DefaultTheme model.Theme
}

type Model struct {
	Mode        Mode
	Cursor      int
	Habits      []model.Habit
	Theme       model.Theme
	Form        FormState
	Confirm     ConfirmState
	Celebration *Celebration
	Palette     CommandPaletteState
	HelpVisible bool
	ShowDetails bool
	Status      StatusBar
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error
	Width       int

	ctx      context.Context
	store    HabitStore
	settings SettingsStore
	bus      *events.Bus
	logger   *zap.Logger

	inputs       [fieldCount]textinput.Model
	commandInput textinput.Model
	progressBar  progress.Model
	helpModel    help.Model
	detailsView  viewport.Model
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// CelebrationMsg carries one event from the celebration bus.
type CelebrationMsg struct {
	Event events.Event
}

func NewModel(deps Deps) Model {
	ctx := deps.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	theme := deps.DefaultTheme
	if !theme.IsValid() {
		theme = model.ThemeLight
	}
	m := Model{
		Mode:  ModeList,
		Theme: theme,
		Keys: GlobalKeyMap{
			Add:     "a",
			Edit:    "e",
			Done:    "enter",
			Reset:   "r",
			Delete:  "x",
			Theme:   "t",
			Details: "i",
			Save:    "s",
			Palette: ":",
			Help:    "?",
			Quit:    "q",
		},
		ctx:      ctx,
		store:    deps.Store,
		settings: deps.Settings,
		bus:      deps.Events,
		logger:   logger,
	}
	m.initBubbleComponents()
	m.loadTheme()
	m.refreshHabits()
	return m
}

func (m *Model) initBubbleComponents() {
	placeholders := [fieldCount]string{
		fieldName:   "e.g., Morning Walk (10 min)",
		fieldIfThen: "If it is 7:00 AM, then I will ...",
		fieldTasks:  "Shoes on, Fill bottle, 10-min route",
		fieldTarget: "5",
	}
	for i := range m.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 200
		in.Width = 48
		m.inputs[i] = in
	}
	m.inputs[fieldTarget].CharLimit = 1

	m.commandInput = textinput.New()
	m.commandInput.Prompt = ""
	m.commandInput.Placeholder = "done 1 | add Name | ifThen | tasks | 2 | 5"

	m.progressBar = progress.New(progress.WithDefaultGradient(), progress.WithWidth(32))
	m.helpModel = help.New()
	m.detailsView = viewport.New(44, 14)
}

func (m *Model) refreshHabits() {
	if m.store == nil {
		m.Habits = nil
		return
	}
	m.Habits = m.store.Habits()
	m.clampCursor()
	m.syncDetails()
}

func (m *Model) clampCursor() {
	if m.Cursor >= len(m.Habits) {
		m.Cursor = len(m.Habits) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m Model) selectedHabit() (model.Habit, bool) {
	if len(m.Habits) == 0 || m.Cursor < 0 || m.Cursor >= len(m.Habits) {
		return model.Habit{}, false
	}
	return m.Habits[m.Cursor], true
}
