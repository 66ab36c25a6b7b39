package commands

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/habitgarden/internal/model"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeDone   Type = "done"
	TypeReset  Type = "reset"
	TypeDelete Type = "delete"
	TypeEdit   Type = "edit"
	TypeTheme  Type = "theme"
	TypeStats  Type = "stats"
)

var aliases = map[string]Type{
	"new":      TypeAdd,
	"complete": TypeDone,
	"check":    TypeDone,
	"rm":       TypeDelete,
	"del":      TypeDelete,
}

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HabitFields carries the pipe separated form fields:
// name | if-then | tasks | difficulty | target days.
// Missing trailing fields take their defaults.
type HabitFields struct {
	Name       string
	IfThen     string
	Tasks      string
	Difficulty int
	TargetDays int
}

type AddArgs struct {
	HabitFields
}

// RefArgs names a habit by 1-based position, id or id prefix.
type RefArgs struct {
	Ref string
}

type EditArgs struct {
	Ref string
	HabitFields
}

type ThemeArgs struct {
	// Theme is empty to toggle.
	Theme model.Theme
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Target *RefArgs
	Edit   *EditArgs
	Theme  *ThemeArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimLeft(raw, "/:"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	head, rest, _ := strings.Cut(raw, " ")
	head = strings.ToLower(head)
	rest = strings.TrimSpace(rest)
	typ := Type(head)
	if alias, ok := aliases[head]; ok {
		typ = alias
	}

	switch typ {
	case TypeAdd:
		return parseAdd(input, rest)
	case TypeDone, TypeReset, TypeDelete:
		return parseRef(input, typ, rest)
	case TypeEdit:
		return parseEdit(input, rest)
	case TypeTheme:
		return parseTheme(input, rest)
	case TypeStats:
		return Command{Type: TypeStats, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw, rest string) (Command, error) {
	fields := parseHabitFields(rest)
	if fields.Name == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a name"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{HabitFields: fields}}, nil
}

func parseRef(raw string, typ Type, rest string) (Command, error) {
	ref := strings.Fields(rest)
	if len(ref) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires one habit reference", typ)}
	}
	return Command{Type: typ, Raw: raw, Target: &RefArgs{Ref: ref[0]}}, nil
}

func parseEdit(raw, rest string) (Command, error) {
	ref, body, _ := strings.Cut(rest, " ")
	if strings.TrimSpace(ref) == "" || strings.Contains(ref, "|") {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "edit requires a habit reference"}
	}
	return Command{Type: TypeEdit, Raw: raw, Edit: &EditArgs{Ref: ref, HabitFields: parseHabitFields(body)}}, nil
}

func parseTheme(raw, rest string) (Command, error) {
	arg := strings.ToLower(strings.TrimSpace(rest))
	switch arg {
	case "", "toggle":
		return Command{Type: TypeTheme, Raw: raw, Theme: &ThemeArgs{}}, nil
	}
	theme := model.Theme(arg)
	if !theme.IsValid() {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown theme %q, want light or dark", arg)}
	}
	return Command{Type: TypeTheme, Raw: raw, Theme: &ThemeArgs{Theme: theme}}, nil
}

func parseHabitFields(s string) HabitFields {
	parts := strings.Split(s, "|")
	get := func(i int) string {
		if i < len(parts) {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}
	return HabitFields{
		Name:       get(0),
		IfThen:     get(1),
		Tasks:      get(2),
		Difficulty: int(model.ParseDifficulty(get(3))),
		TargetDays: model.ParseTargetDays(get(4)),
	}
}
